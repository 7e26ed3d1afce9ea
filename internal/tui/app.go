// Package tui provides the terminal dashboard for the discovery agent.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/discovery"
)

// maxLogEntries bounds the activity log kept in memory.
const maxLogEntries = 200

// Controller is the part of the runner the dashboard drives.
type Controller interface {
	State() core.RunnerState
	NextRun() time.Time
	Ended() bool
	Trigger()
	Reactivate(delay time.Duration)
}

// Pauser toggles the agent-wide sleeping flag.
type Pauser interface {
	Sleeping() bool
	SetSleeping(v bool)
}

// Counter reports how many coordinates are blacklisted.
type Counter interface {
	Len() (int, error)
}

// Options wires the dashboard to the running agent.
type Options struct {
	Runner    Controller
	Session   Pauser
	Blacklist Counter
	Settings  func() discovery.Settings
	Events    <-chan core.Event
	History   []CycleInfo
}

// Model is the main TUI model.
type Model struct {
	runner    Controller
	session   Pauser
	blacklist Counter
	settings  func() discovery.Settings
	eventCh   <-chan core.Event

	width    int
	height   int
	showHelp bool

	indicator Indicator
	state     core.RunnerState
	nextRun   time.Time
	paused    bool
	listed    int
	cycles    []CycleInfo
	logs      []LogEntry
	now       func() time.Time

	err error
}

// EventMsg wraps a core event for the TUI.
type EventMsg struct {
	Event core.Event
}

// refreshMsg re-reads runner state once per second.
type refreshMsg time.Time

// New creates a new TUI model.
func New(opts Options) Model {
	m := Model{
		runner:    opts.Runner,
		session:   opts.Session,
		blacklist: opts.Blacklist,
		settings:  opts.Settings,
		eventCh:   opts.Events,
		indicator: NewIndicator(),
		cycles:    append([]CycleInfo(nil), opts.History...),
		now:       time.Now,
	}
	if len(m.cycles) > constants.RecentCyclesLimit {
		m.cycles = m.cycles[:constants.RecentCyclesLimit]
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenForEvents(),
		m.indicator.Init(),
		refreshTick(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, keys.Help) {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.handleKey(msg)

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, m.listenForEvents()

	case IndicatorTickMsg:
		var cmd tea.Cmd
		m.indicator, cmd = m.indicator.Update(msg)
		return m, cmd

	case refreshMsg:
		m.refresh()
		return m, refreshTick()
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return RenderHelp(m.width, m.height)
	}

	var settings discovery.Settings
	if m.settings != nil {
		settings = m.settings()
	}
	content := RenderDashboard(DashboardData{
		State:       m.state,
		NextRun:     m.nextRun,
		Now:         m.now(),
		Paused:      m.paused,
		Blacklisted: m.listed,
		Settings:    settings,
		Cycles:      m.cycles,
		Logs:        m.logs,
		Indicator:   m.indicator.View(),
	}, m.width, m.height-1)

	if m.err != nil {
		content += "\n" + stateErroredStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return content
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Run):
		if m.runner == nil {
			return m, nil
		}
		if m.runner.Ended() {
			m.runner.Reactivate(0)
			m.addLog(core.EventActivityResumed, "Reactivated by user")
		} else {
			m.runner.Trigger()
			m.addLog(core.EventCycleStarted, "Cycle requested by user")
		}
		m.refresh()

	case key.Matches(msg, keys.Pause):
		if m.session == nil {
			return m, nil
		}
		m.session.SetSleeping(!m.session.Sleeping())
		m.refresh()
		if m.paused {
			log.Info().Msg("Agent paused from dashboard")
			m.addLog(core.EventRunnerState, "Agent paused")
		} else {
			log.Info().Msg("Agent resumed from dashboard")
			m.addLog(core.EventRunnerState, "Agent resumed")
		}
	}
	return m, nil
}

func (m *Model) handleEvent(event core.Event) {
	switch event.Type {
	case core.EventCycleStarted:
		m.indicator.SetActivity(ActivityCycle)
		m.addLogAt(event, "Cycle started")

	case core.EventMissionSent:
		m.indicator.SetActivity(ActivityDispatch)
		if d, ok := event.Data.(core.MissionData); ok {
			m.addLogAt(event, fmt.Sprintf("Discovery %s → %s", d.Origin, d.Destination))
		}

	case core.EventMissionFailed:
		if d, ok := event.Data.(core.MissionData); ok {
			m.addLogAt(event, fmt.Sprintf("Failed %s → %s", d.Origin, d.Destination))
		}

	case core.EventCycleFinished:
		m.indicator.SetActivity(ActivityIdle)
		if d, ok := event.Data.(core.CycleData); ok {
			info := CycleInfoFromData(d, event.Timestamp)
			m.cycles = append([]CycleInfo{info}, m.cycles...)
			if len(m.cycles) > constants.RecentCyclesLimit {
				m.cycles = m.cycles[:constants.RecentCyclesLimit]
			}
			m.addLogAt(event, fmt.Sprintf("Cycle finished: %s, %d sent, %d failed", d.Reason, d.Dispatched, d.Failures))
		}

	case core.EventCycleRescheduled:
		if d, ok := event.Data.(core.RescheduleData); ok {
			m.nextRun = d.NextRun
		}

	case core.EventActivityStopped:
		m.indicator.SetActivity(ActivityStopped)
		m.addLogAt(event, "Activity stopped")

	case core.EventActivityResumed:
		m.indicator.SetActivity(ActivityIdle)
		m.addLogAt(event, "Activity resumed")

	case core.EventConfigReloaded:
		m.addLogAt(event, "Configuration reloaded")

	case core.EventRunnerState:
		if d, ok := event.Data.(core.StateChangeData); ok {
			m.state = d.NewState
		}
	}
	m.refresh()
}

// refresh re-reads state that is not carried by events.
func (m *Model) refresh() {
	if m.runner != nil {
		m.state = m.runner.State()
		m.nextRun = m.runner.NextRun()
		if m.runner.Ended() {
			m.indicator.SetActivity(ActivityStopped)
		} else if m.indicator.Activity() == ActivityStopped {
			m.indicator.SetActivity(ActivityIdle)
		}
	}
	if m.session != nil {
		m.paused = m.session.Sleeping()
	}
	if m.blacklist != nil {
		n, err := m.blacklist.Len()
		if err != nil {
			m.err = err
			return
		}
		m.listed = n
	}
}

func (m *Model) addLog(t core.EventType, text string) {
	m.addLogAt(core.Event{Type: t, Timestamp: m.now()}, text)
}

func (m *Model) addLogAt(event core.Event, text string) {
	m.logs = append(m.logs, LogEntry{Type: event.Type, Text: text, Time: event.Timestamp})
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
}

func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		if m.eventCh == nil {
			return nil
		}
		event, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Key bindings
var keys = struct {
	Quit  key.Binding
	Help  key.Binding
	Run   key.Binding
	Pause key.Binding
}{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Help:  key.NewBinding(key.WithKeys("?")),
	Run:   key.NewBinding(key.WithKeys("r")),
	Pause: key.NewBinding(key.WithKeys("p")),
}
