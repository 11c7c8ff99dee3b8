// pattern: Functional Core

package tui

// Region defines a rectangular area within the terminal.
type Region struct {
	X      int // Left position (0-indexed)
	Y      int // Top position (0-indexed)
	Width  int // Width in cells
	Height int // Height in lines
}

// Layout holds computed regions for all UI components.
type Layout struct {
	Header    Region // Title + subtitle
	Content   Region // Tree column plus detail panel
	Tree      Region // Tree view (left side, 40% when detail open, 100% otherwise)
	Settings  Region // Settings panel at the bottom of the tree column when open
	Detail    Region // Plan or project details (right side, 60% when open)
	Separator Region // Separator between content and logs (1 line when logs open)
	Logs      Region // Log panel when open (60% of the content area)
	StatusBar Region // Status bar (1 line)
}

// PanelState says which optional panels are visible.
type PanelState struct {
	Logs     bool
	Detail   bool
	Settings bool
}

// Fixed heights for chrome elements
const (
	headerHeight    = 2 // Title + subtitle
	statusBarHeight = 1
	marginHeight    = 1 // Bottom margin
	separatorHeight = 1 // Separator when log panel open
	settingsHeight  = 7 // Settings box including its border
	minTreeHeight   = 2 // Header + one row
)

// ComputeLayout calculates regions based on terminal dimensions.
// When logs are open, the content area splits 40/60 vertically (content/logs).
// When the detail panel is open, the content area splits 40/60 horizontally (tree/detail).
func ComputeLayout(width, height int, panels PanelState) Layout {
	fixedHeight := headerHeight + statusBarHeight + marginHeight
	availableHeight := height - fixedHeight
	if availableHeight < 4 {
		availableHeight = 4
	}

	var contentHeight, logsHeight int
	if panels.Logs {
		// The separator comes out of the log share.
		contentHeight = int(float64(availableHeight) * 0.4)
		logsHeight = availableHeight - contentHeight - separatorHeight
		if logsHeight < 1 {
			logsHeight = 1
		}
	} else {
		contentHeight = availableHeight
	}

	y := 0
	header := Region{X: 0, Y: y, Width: width, Height: headerHeight}
	y += headerHeight

	content := Region{X: 0, Y: y, Width: width, Height: contentHeight}

	treeWidth := width
	var detail Region
	if panels.Detail {
		treeWidth = int(float64(width) * 0.4)
		detail = Region{X: treeWidth, Y: content.Y, Width: width - treeWidth, Height: contentHeight}
	} else {
		detail = Region{X: 0, Y: content.Y}
	}

	treeHeight := contentHeight
	var settings Region
	if panels.Settings {
		sh := settingsHeight
		if treeHeight-sh < minTreeHeight {
			sh = treeHeight - minTreeHeight
		}
		if sh > 0 {
			treeHeight -= sh
			settings = Region{X: 0, Y: content.Y + treeHeight, Width: treeWidth, Height: sh}
		}
	}
	tree := Region{X: 0, Y: content.Y, Width: treeWidth, Height: treeHeight}
	y += contentHeight

	var separator, logs Region
	if panels.Logs {
		separator = Region{X: 0, Y: y, Width: width, Height: separatorHeight}
		y += separatorHeight
		logs = Region{X: 0, Y: y, Width: width, Height: logsHeight}
		y += logsHeight
	}

	statusBar := Region{X: 0, Y: y, Width: width, Height: statusBarHeight}

	return Layout{
		Header:    header,
		Content:   content,
		Tree:      tree,
		Settings:  settings,
		Detail:    detail,
		Separator: separator,
		Logs:      logs,
		StatusBar: statusBar,
	}
}

// TreeRows returns how many tree rows fit under the panel header.
func (l Layout) TreeRows() int {
	h := l.Tree.Height - 1
	if h < 1 {
		h = 1
	}
	return h
}
