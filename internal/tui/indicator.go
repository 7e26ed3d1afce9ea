package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Activity is what the discovery activity is doing right now.
type Activity int

const (
	ActivityIdle     Activity = iota
	ActivityCycle             // A cycle is in flight
	ActivityDispatch          // A fleet was just sent
	ActivityStopped           // Deactivated until reactivated
)

// Indicator is a bouncing progress bar for cycle activity.
type Indicator struct {
	activity  Activity
	position  int // Current position of the "ball" (0-width)
	direction int // 1 = right, -1 = left
	width     int
}

// IndicatorTickMsg is sent to animate the indicator.
type IndicatorTickMsg time.Time

// NewIndicator creates an idle indicator.
func NewIndicator() Indicator {
	return Indicator{
		activity:  ActivityIdle,
		direction: 1,
		width:     12,
	}
}

// SetActivity sets the current activity.
func (n *Indicator) SetActivity(activity Activity) {
	n.activity = activity
}

// Activity returns the current activity.
func (n Indicator) Activity() Activity {
	return n.activity
}

// Update handles tick messages for animation.
func (n Indicator) Update(msg tea.Msg) (Indicator, tea.Cmd) {
	if _, ok := msg.(IndicatorTickMsg); !ok {
		return n, nil
	}
	if n.activity == ActivityCycle || n.activity == ActivityDispatch {
		n.position += n.direction
		if n.position >= n.width-1 {
			n.position = n.width - 1
			n.direction = -1
		} else if n.position <= 0 {
			n.position = 0
			n.direction = 1
		}
	}
	return n, n.tick()
}

func (n Indicator) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return IndicatorTickMsg(t)
	})
}

// Init starts the animation.
func (n Indicator) Init() tea.Cmd {
	return n.tick()
}

// View renders the indicator.
func (n Indicator) View() string {
	const (
		barEmpty  = "░"
		barFilled = "█"
		barLeft   = "▐"
		barRight  = "▌"
	)

	var style lipgloss.Style
	var label string
	animated := true

	switch n.activity {
	case ActivityIdle:
		style = lipgloss.NewStyle().Foreground(colorMuted)
		label = "⬦ WAITING"
		animated = false
	case ActivityStopped:
		style = stateStoppedStyle
		label = "◌ STOPPED"
		animated = false
	case ActivityCycle:
		style = lipgloss.NewStyle().Foreground(colorTeal).Bold(true)
		label = "⬥ CYCLE  "
	case ActivityDispatch:
		style = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
		label = "⬥ SEND   "
	}

	var bar strings.Builder
	bar.WriteString(barLeft)
	for i := 0; i < n.width; i++ {
		if animated && i >= n.position-1 && i <= n.position+1 {
			bar.WriteString(barFilled)
		} else {
			bar.WriteString(barEmpty)
		}
	}
	bar.WriteString(barRight)

	return style.Render(label + " " + bar.String())
}
