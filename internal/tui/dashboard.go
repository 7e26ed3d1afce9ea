package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/discovery"
)

// CycleInfo holds display info for a finished cycle.
type CycleInfo struct {
	ID         string
	FinishedAt time.Time
	Reason     string
	Origin     string
	Dispatched int
	Failures   int
	Skips      int
	Stopped    bool
	Delayed    bool
	Interval   time.Duration
	Err        string
}

// CycleInfoFromData converts a cycle_finished payload.
func CycleInfoFromData(d core.CycleData, at time.Time) CycleInfo {
	return CycleInfo{
		ID:         d.CycleID,
		FinishedAt: at,
		Reason:     d.Reason,
		Origin:     d.Origin,
		Dispatched: d.Dispatched,
		Failures:   d.Failures,
		Skips:      d.Skips,
		Stopped:    d.Stopped,
		Delayed:    d.Delayed,
		Interval:   d.Interval,
		Err:        d.Err,
	}
}

// CycleInfoFromRecord converts a stored cycle.
func CycleInfoFromRecord(id string, rec discovery.CycleRecord) CycleInfo {
	return CycleInfo{
		ID:         id,
		FinishedAt: rec.FinishedAt,
		Reason:     string(rec.Reason),
		Origin:     rec.Origin,
		Dispatched: rec.Dispatched,
		Failures:   rec.Failures,
		Skips:      rec.Skips,
		Stopped:    rec.Stopped,
		Delayed:    rec.Delayed,
		Interval:   rec.Interval,
		Err:        rec.Error,
	}
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	Type core.EventType
	Text string
	Time time.Time
}

// DashboardData is everything the dashboard renders.
type DashboardData struct {
	State       core.RunnerState
	NextRun     time.Time
	Now         time.Time
	Paused      bool
	Blacklisted int
	Settings    discovery.Settings
	Cycles      []CycleInfo
	Logs        []LogEntry
	Indicator   string
}

// RenderDashboard renders the main dashboard view.
func RenderDashboard(d DashboardData, width, height int) string {
	if width < 40 {
		width = 40
	}
	var sections []string

	// Header banner
	topLine := "◆" + strings.Repeat("═", width-2) + "◆"
	titleText := " ⬡ Z O E A   D I S C O V E R Y ⬡"
	titlePadding := (width - lipgloss.Width(titleText)) / 2
	if titlePadding < 0 {
		titlePadding = 0
	}
	titleLine := strings.Repeat(" ", titlePadding) + titleText
	if w := lipgloss.Width(titleLine); w < width {
		titleLine += strings.Repeat(" ", width-w)
	}
	sections = append(sections, headerStyle.Width(width).Render(topLine+"\n"+titleLine+"\n"+topLine))

	sections = append(sections, statusBarStyle.Width(width).Render(renderStatus(d)))

	sections = append(sections, renderSectionTitle("SETTINGS", width))
	sections = append(sections, renderSettings(d.Settings, d.Blacklisted))

	sections = append(sections, renderSectionTitle("RECENT CYCLES", width))
	cycleRows := 5
	sections = append(sections, renderCycles(d.Cycles, cycleRows, width))

	// Header 4 + status 1 + settings 3 + cycles 1+rows + log title 1 + borders 2 + footer 1
	usedHeight := 13 + cycleRows
	logHeight := height - usedHeight
	if logHeight < 3 {
		logHeight = 3
	}
	sections = append(sections, renderSectionTitle("ACTIVITY", width))
	sections = append(sections, panelStyle.Width(width-2).Height(logHeight).Render(renderLogs(d.Logs, logHeight, width-6)))

	hint := dimmedStyle.Render("[ ? ] HELP  ·  [ r ] RUN NOW  ·  [ p ] PAUSE  ·  [ q ] QUIT")
	sections = append(sections, hint)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderStatus(d DashboardData) string {
	state := string(d.State)
	if state == "" {
		state = string(core.RunnerStateIdle)
	}
	parts := []string{
		d.Indicator,
		labelStyle.Render("state ") + StateStyle(state).Render(state),
	}
	if d.Paused {
		parts = append(parts, pausedStyle.Render("⏸ PAUSED"))
	}
	if !d.NextRun.IsZero() && d.State != core.RunnerStateStopped {
		parts = append(parts, labelStyle.Render("next ")+valueStyle.Render(formatCountdown(d.NextRun.Sub(d.Now))))
	}
	return strings.Join(parts, "  ")
}

func renderSettings(s discovery.Settings, blacklisted int) string {
	active := "off"
	if s.Active {
		active = "on"
	}
	line1 := fmt.Sprintf("%s %s  %s %s  %s %d  %s %d",
		labelStyle.Render("active"), valueStyle.Render(active),
		labelStyle.Render("origins"), valueStyle.Render(s.OriginExpression),
		labelStyle.Render("max missions"), s.MaxConcurrentMissions,
		labelStyle.Render("max failures"), s.MaxFailuresBeforeStop,
	)
	line2 := fmt.Sprintf("%s %s–%s  %s %d  %s %d/%d",
		labelStyle.Render("interval"), s.CheckIntervalMin, s.CheckIntervalMax,
		labelStyle.Render("reserved slots"), s.ReservedFreeSlots,
		labelStyle.Render("blacklisted"), blacklisted, s.TotalDestinations(),
	)
	return line1 + "\n" + line2
}

func renderCycles(cycles []CycleInfo, rows, width int) string {
	if len(cycles) == 0 {
		lines := []string{dimmedStyle.Render("No cycles yet.")}
		for len(lines) < rows {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	var lines []string
	for i, c := range cycles {
		if i >= rows {
			break
		}
		lines = append(lines, renderCycleLine(c, width))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderCycleLine(c CycleInfo, width int) string {
	ts := dimmedStyle.Render(c.FinishedAt.Local().Format("15:04:05"))
	reason := ReasonStyle(c.Reason).Render(fmt.Sprintf("%-22s", c.Reason))
	origin := c.Origin
	if origin == "" {
		origin = "-"
	}
	counts := fmt.Sprintf("sent %d  fail %d  skip %d", c.Dispatched, c.Failures, c.Skips)

	var tail string
	switch {
	case c.Stopped:
		tail = stateStoppedStyle.Render("stopped")
	case c.Delayed:
		tail = pausedStyle.Render("delayed " + formatCountdown(c.Interval))
	case c.Interval > 0:
		tail = dimmedStyle.Render("next in " + formatCountdown(c.Interval))
	}
	if c.Err != "" {
		tail += " " + stateErroredStyle.Render(c.Err)
	}

	line := fmt.Sprintf("%s %s %-12s %s  %s", ts, reason, origin, counts, tail)
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func renderLogs(logs []LogEntry, height, width int) string {
	if len(logs) == 0 {
		return dimmedStyle.Render("Waiting for the first cycle...")
	}
	start := 0
	if len(logs) > height {
		start = len(logs) - height
	}
	var lines []string
	for _, e := range logs[start:] {
		ts := dimmedStyle.Render(e.Time.Local().Format("15:04:05"))
		text := truncateWithEllipsis(e.Text, width-10)
		lines = append(lines, ts+" "+logStyle(e.Type).Render(text))
	}
	return strings.Join(lines, "\n")
}

func logStyle(t core.EventType) lipgloss.Style {
	switch t {
	case core.EventMissionSent:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case core.EventMissionFailed, core.EventActivityStopped:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case core.EventCycleFinished:
		return lipgloss.NewStyle().Foreground(colorTeal)
	default:
		return lipgloss.NewStyle().Foreground(colorInfo)
	}
}

// formatCountdown renders a duration as 1h02m03s, 4m05s or 6s.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
