// pattern: Imperative Shell

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
)

// View renders the TUI.
func (m Model) View() string {
	layout := ComputeLayout(m.width, m.height, m.panels())

	parts := []string{m.renderHeader(layout)}

	treeColumn := m.renderTree(layout)
	if m.state.SettingsOpen && layout.Settings.Height > 0 {
		treeColumn = lipgloss.JoinVertical(lipgloss.Left, treeColumn, m.renderSettings(layout))
	}
	content := treeColumn
	if m.detailOpen {
		content = lipgloss.JoinHorizontal(lipgloss.Top, treeColumn, m.renderDetailPanel(layout))
	}
	parts = append(parts, content)

	if m.logPanelOpen {
		separator := m.styles.SeparatorStyle().
			Width(layout.Separator.Width).
			Render(strings.Repeat("─", max(layout.Separator.Width, 0)))
		parts = append(parts, separator, m.renderLogPanel(layout))
	}

	if m.addOpen {
		parts = append(parts, m.renderAddDialog(layout))
	}

	statusBar := lipgloss.NewStyle().Width(layout.StatusBar.Width).Render(m.renderStatusBar(layout.StatusBar.Width))
	parts = append(parts, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader(layout Layout) string {
	title := m.styles.TitleStyle().Render("Plan Tree")

	var info []string
	info = append(info, fmt.Sprintf("%d projects", len(m.state.Snapshot)))
	if m.state.ShowDeleted {
		info = append(info, "deleted shown")
	}
	if m.state.ShowNonPlanFiles {
		info = append(info, "all files")
	}
	if m.webURL != "" {
		info = append(info, m.webURL)
	}
	subtitle := m.styles.SubtitleStyle().Render(truncate(strings.Join(info, " · "), layout.Header.Width))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

// renderTree renders the project tree with the highlight and selection marks.
func (m Model) renderTree(layout Layout) string {
	headerStyle := m.styles.PanelHeaderUnfocusedStyle()
	if m.panelFocus == FocusTree {
		headerStyle = m.styles.PanelHeaderFocusedStyle()
	}
	header := headerStyle.Width(layout.Tree.Width).Render(" Projects")

	body := lipgloss.NewStyle().
		Width(layout.Tree.Width).
		Height(layout.TreeRows()).
		MaxHeight(layout.TreeRows())

	if len(m.rows) == 0 {
		msg := "No attached projects. Press 'a' to add one."
		if m.isLoading() {
			msg = "Loading projects…"
		}
		return lipgloss.JoinVertical(lipgloss.Left, header,
			body.Padding(0, 1).Render(m.styles.InfoStyle().Render(msg)))
	}

	start, end := visibleWindow(m.cursor, len(m.rows), layout.TreeRows())
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor, layout.Tree.Width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body.Render(strings.Join(lines, "\n")))
}

// visibleWindow returns the row range that keeps cursor on screen.
func visibleWindow(cursor, total, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	return start, min(start+height, total)
}

func (m Model) renderRow(row tree.Row, highlighted bool, width int) string {
	cursor := "  "
	if highlighted {
		cursor = "> "
	}
	indent := strings.Repeat("  ", row.Depth)
	selected := row.ID == m.state.Selected

	var icon, badge string
	labelStyle := m.styles.PlanFileStyle()
	switch row.Kind {
	case tree.RowProject:
		icon = " "
		if row.HasChildren {
			icon = "▸"
			if row.Expanded {
				icon = "▾"
			}
		}
		labelStyle = m.styles.ProjectStyle()
	case tree.RowPlanFile:
		icon = "◆"
		badge = statusBadge(row.Status)
	default:
		icon = "·"
		badge = statusBadge(row.Status)
		labelStyle = m.styles.ProjectFileStyle()
	}

	plain := fmt.Sprintf("%s%s%s %s", cursor, indent, icon, row.Label)
	if badge != "" {
		plain += " " + badge
	}
	plain = truncate(plain, width)

	// Styled runs would reset the highlight background, so highlighted and
	// selected rows are styled as a whole.
	switch {
	case selected:
		return m.styles.TreeItemSelectedStyle().Render(plain)
	case highlighted:
		return m.styles.TreeItemHighlightStyle().Width(width).Render(plain)
	}

	line := cursor + indent + icon + " " + labelStyle.Render(row.Label)
	if badge != "" {
		line += " " + m.styles.FileStatusStyle(row.Status).Render(badge)
	}
	return truncate(line, width)
}

// statusBadge is the one-letter source-control marker; tracked files have none.
func statusBadge(status scm.Status) string {
	switch status {
	case scm.StatusModified:
		return "M"
	case scm.StatusAdded:
		return "A"
	case scm.StatusDeleted:
		return "D"
	case scm.StatusRenamed:
		return "R"
	case scm.StatusUntracked:
		return "?"
	case scm.StatusConflicted:
		return "U"
	default:
		return ""
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func (m Model) renderSettings(layout Layout) string {
	check := func(on bool) string {
		if on {
			return m.styles.SuccessStyle().Render("[x]")
		}
		return "[ ]"
	}
	lines := []string{
		m.styles.AccentStyle().Render("Settings"),
		check(m.state.ShowDeleted) + " d  show deleted files",
		check(m.state.ShowNonPlanFiles) + " f  show non-plan files",
		"    a  add project",
		"    x  remove selected project",
	}
	box := m.styles.BoxStyle().
		Width(max(layout.Settings.Width-2, 1)).
		MaxHeight(layout.Settings.Height)
	return box.Render(strings.Join(lines, "\n"))
}

// renderDetailPanel renders the plan viewer or the project details.
func (m Model) renderDetailPanel(layout Layout) string {
	if layout.Detail.Width == 0 {
		return ""
	}

	headerStyle := m.styles.PanelHeaderUnfocusedStyle()
	if m.panelFocus == FocusDetail {
		headerStyle = m.styles.PanelHeaderFocusedStyle()
	}
	title := " Details"
	if m.detailTitle != "" {
		title = " " + m.detailTitle
	}
	header := headerStyle.Width(layout.Detail.Width).Render(truncate(title, layout.Detail.Width))

	bodyHeight := max(layout.Detail.Height-1, 1)
	panelStyle := lipgloss.NewStyle().
		Width(max(layout.Detail.Width-1, 1)).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		PaddingLeft(1).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(m.styles.flavor.Surface1().Hex))

	return lipgloss.JoinVertical(lipgloss.Left, header, panelStyle.Render(m.detailViewport.View()))
}

// updateDetailContent fills the details viewport for the project at detailRoot.
func (m *Model) updateDetailContent() {
	p := tree.FindProject(m.state.Snapshot, m.detailRoot)
	m.detailViewport.SetContent(m.renderProjectDetails(p))
}

func (m Model) renderProjectDetails(p *project.Project) string {
	if p == nil {
		return m.styles.HelpStyle().Render("This project is no longer attached.")
	}

	var children, plans, files, deleted int
	countProject(p, &children, &plans, &files, &deleted)

	label := func(s string) string { return m.styles.SubtitleStyle().Render(fmt.Sprintf("%-15s", s)) }
	lines := []string{
		m.styles.TitleStyle().Render(p.Name),
		"",
		label("Root") + p.RootFolder,
		label("Attached as") + p.Attached.Root,
	}
	if p.Attached.Name != "" {
		lines = append(lines, label("Display name")+p.Attached.Name)
	}
	lines = append(lines,
		"",
		label("Child projects")+fmt.Sprint(children),
		label("Plan files")+fmt.Sprint(plans),
		label("Other files")+fmt.Sprint(files),
	)
	if deleted > 0 {
		lines = append(lines, label("Deleted")+m.styles.FileStatusStyle(scm.StatusDeleted).Render(fmt.Sprint(deleted)))
	}

	if len(p.PlanFiles) > 0 {
		lines = append(lines, "", m.styles.AccentStyle().Render("Plans"))
		for _, f := range p.PlanFiles {
			lines = append(lines, "  "+f.File+" "+m.styles.FileStatusStyle(f.Status).Render(statusBadge(f.Status)))
		}
	}
	return strings.Join(lines, "\n")
}

// countProject tallies p and its nested projects.
func countProject(p *project.Project, children, plans, files, deleted *int) {
	*plans += len(p.PlanFiles)
	*files += len(p.ProjectFiles)
	for _, f := range p.PlanFiles {
		if f.IsDeleted() {
			*deleted++
		}
	}
	for _, f := range p.ProjectFiles {
		if f.IsDeleted() {
			*deleted++
		}
	}
	for _, child := range p.ChildProjects {
		*children++
		countProject(child, children, plans, files, deleted)
	}
}

// renderLogPanel renders the log panel content.
func (m Model) renderLogPanel(layout Layout) string {
	headerStyle := m.styles.PanelHeaderUnfocusedStyle()
	if m.panelFocus == FocusLogs {
		headerStyle = m.styles.PanelHeaderFocusedStyle()
	}
	header := headerStyle.Width(layout.Logs.Width).Render(fmt.Sprintf(" Logs (%s)", m.logFilterLabel()))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.logViewport.View())
}

func (m Model) renderAddDialog(layout Layout) string {
	title := m.styles.AccentStyle().Render("Attach a project folder")
	hint := m.styles.HelpStyle().Render("enter: attach • esc: cancel")
	return m.styles.BoxStyle().
		Width(max(layout.StatusBar.Width-2, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.addInput.View(), hint))
}

func (m Model) renderStatusBar(width int) string {
	var statusIcon string
	var messageStyle lipgloss.Style

	level := m.statusLevel
	message := m.statusMessage
	if level != StatusError && m.state.Loading && message == "" {
		level = StatusLoading
		message = "Refreshing projects"
	}

	switch level {
	case StatusLoading:
		statusIcon = m.statusSpinner.View()
		messageStyle = m.styles.InfoStatusStyle()
	case StatusSuccess:
		statusIcon = m.styles.SuccessStyle().Render("✓")
		messageStyle = m.styles.SuccessStyle()
	case StatusError:
		statusIcon = m.styles.ErrorStyle().Render("✗")
		messageStyle = m.styles.ErrorStyle()
	default:
		messageStyle = m.styles.InfoStatusStyle()
	}

	var statusText string
	if statusIcon != "" {
		statusText = statusIcon + " " + messageStyle.Render(message)
	} else if message != "" {
		statusText = messageStyle.Render(message)
	}
	if level == StatusError {
		statusText += m.styles.HelpStyle().Render(" (esc to clear)")
	}

	help := m.renderContextualHelp()

	spacerWidth := width - lipgloss.Width(statusText) - lipgloss.Width(help) - 2
	if spacerWidth < 1 {
		// Not enough room for both; the status wins.
		return truncate(statusText, width)
	}

	return lipgloss.JoinHorizontal(lipgloss.Bottom, statusText, strings.Repeat(" ", spacerWidth), help)
}

// renderContextualHelp returns help text based on current state and panel focus.
func (m Model) renderContextualHelp() string {
	k := m.keys
	var bindings []key.Binding
	switch {
	case m.addOpen:
		return ""
	case m.panelFocus == FocusLogs:
		bindings = []key.Binding{k.Up, k.Down, k.Bottom, k.NextPanel, k.Close}
		return m.help.ShortHelpView(bindings) + m.styles.HelpStyle().Render(" • 1-4: levels")
	case m.panelFocus == FocusDetail:
		bindings = []key.Binding{k.Up, k.Down, k.NextPanel, k.Close}
	case m.state.SettingsOpen:
		bindings = []key.Binding{k.ToggleDeleted, k.ToggleFiles, k.Add, k.Remove, k.Close}
	case len(m.rows) == 0:
		bindings = []key.Binding{k.Add, k.Reload, k.Logs}
	default:
		bindings = []key.Binding{k.Up, k.Down, k.Expand, k.Click, k.Open, k.Settings, k.Reload, k.Logs}
	}
	return m.help.ShortHelpView(bindings)
}
