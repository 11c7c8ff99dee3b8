package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"plantree/internal/logging"
)

const (
	// maxLogEntries bounds the in-memory log panel history.
	maxLogEntries = 1000
	// logBatchSize is how many buffered entries one consume pass drains.
	logBatchSize = 100
)

var logLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// LogSource is the stream the log panel drains. logging.Manager satisfies it.
type LogSource interface {
	Entries() <-chan logging.LogEntry
}

// consumeLogEntries waits for the next entry, then drains whatever else is
// buffered. A closed channel ends the loop.
func consumeLogEntries(src LogSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		ch := src.Entries()
		first, ok := <-ch
		if !ok {
			return nil
		}
		entries := []logging.LogEntry{first}
		for len(entries) < logBatchSize {
			select {
			case entry, ok := <-ch:
				if !ok {
					return logEntriesMsg{entries: entries}
				}
				entries = append(entries, entry)
			default:
				return logEntriesMsg{entries: entries}
			}
		}
		return logEntriesMsg{entries: entries}
	}
}

func (m *Model) addLogEntry(entry logging.LogEntry) {
	m.logEntries = append(m.logEntries, entry)
	if over := len(m.logEntries) - maxLogEntries; over > 0 {
		m.logEntries = slices.Delete(m.logEntries, 0, over)
	}
}

// toggleLogLevel hides or shows entries of level.
func (m *Model) toggleLogLevel(level string) {
	if m.hiddenLevels[level] {
		delete(m.hiddenLevels, level)
	} else {
		m.hiddenLevels[level] = true
	}
	m.updateLogViewportContent()
}

func (m Model) filteredLogEntries() []logging.LogEntry {
	if len(m.hiddenLevels) == 0 {
		return m.logEntries
	}
	out := make([]logging.LogEntry, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		if !m.hiddenLevels[e.Level] {
			out = append(out, e)
		}
	}
	return out
}

// logFilterLabel describes the active level filter for the panel header.
func (m Model) logFilterLabel() string {
	if len(m.hiddenLevels) == 0 {
		return "all levels"
	}
	var shown []string
	for _, level := range logLevels {
		if !m.hiddenLevels[level] {
			shown = append(shown, strings.ToLower(level))
		}
	}
	if len(shown) == 0 {
		return "all hidden"
	}
	return strings.Join(shown, ", ")
}

func (m *Model) updateLogViewportContent() {
	entries := m.filteredLogEntries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderLogEntry(e))
	}
	if len(lines) == 0 {
		lines = []string{m.styles.InfoStyle().Render("No log entries")}
	}
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if atBottom || m.logAutoScroll {
		m.logViewport.GotoBottom()
	}
}

// renderLogEntry formats a single log entry for display.
func (m Model) renderLogEntry(entry logging.LogEntry) string {
	ts := m.styles.LogTimestampStyle().Render(entry.Timestamp.Format("15:04:05"))

	var level string
	switch entry.Level {
	case "DEBUG":
		level = m.styles.LogDebugStyle().Render("DEBUG")
	case "INFO":
		level = m.styles.LogInfoStyle().Render("INFO ")
	case "WARN":
		level = m.styles.LogWarnStyle().Render("WARN ")
	case "ERROR":
		level = m.styles.LogErrorStyle().Render("ERROR")
	default:
		level = m.styles.LogInfoStyle().Render(entry.Level)
	}

	scope := m.styles.LogScopeStyle().Render("[" + entry.Scope + "]")
	line := fmt.Sprintf("%s %s %s %s", ts, level, scope, entry.Message)
	if err, ok := entry.Fields["error"]; ok {
		line += " " + m.styles.ErrorStyle().Render(fmt.Sprint(err))
	}
	return line
}
