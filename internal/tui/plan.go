package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

// maxPlanBytes caps how much of a plan file the viewer reads.
const maxPlanBytes = 1 << 20

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]*glamour.TermRenderer{}
)

type rendererKey struct {
	width int
	dark  bool
}

// isMarkdown reports whether path should be rendered through glamour.
func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// readPlan loads a plan file and renders it for a viewport of the given
// width.
func readPlan(path string, width int, dark bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxPlanBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return renderPlan(path, string(data), width, dark), nil
}

// renderPlan renders Markdown plans with glamour and leaves anything else
// as plain text, hard-wrapped to width.
func renderPlan(path, content string, width int, dark bool) string {
	if width <= 0 {
		width = 80
	}
	content = strings.TrimRight(content, "\n")
	if !isMarkdown(path) {
		return xansi.Hardwrap(content, width, true)
	}

	r := markdownRenderer(width, dark)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func markdownRenderer(width int, dark bool) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	key := rendererKey{width: width, dark: dark}
	if r, ok := renderers[key]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(planStyle(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = r
	return r
}

func planStyle(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	// The panel supplies its own padding.
	zero := uint(0)
	base.Document.Margin = &zero
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	return base
}
