// Package display renders the sender's progress line and measures terminal
// geometry. It is the concrete home for the "terminal capability bits"
// spec.md §6 says the sender consumes from its environment, and for the
// path-truncation and progress-formatting logic the original kitty sender
// keeps inline in its Handler.
package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/term"

	"github.com/deb2000-sudo/termcargo/pkg/utils"
)

// ColumnWidth returns the terminal's current column count, or a sane
// default when stdout isn't a terminal (piped output, tests, CI).
func ColumnWidth() int {
	const fallback = 80
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// StringWidth returns the terminal cell width of s, accounting for
// wide/combining runes the way wcswidth does in the original sender.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// TruncatePath shrinks path to fit within width terminal columns by
// collapsing interior path components to their first grapheme, then
// falling back to a trailing ellipsis, mirroring the original sender's
// render_path_in_width.
func TruncatePath(path string, width int) string {
	path = utils.ToSlash(path)
	if StringWidth(path) <= width || width <= 0 {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) > 1 {
		reduced := make([]string, len(parts)-1)
		for i, p := range parts[:len(parts)-1] {
			reduced[i] = reduceToGrapheme(p)
		}
		candidate := strings.Join(append(reduced, parts[len(parts)-1]), "/")
		if StringWidth(candidate) <= width {
			return candidate
		}
		path = candidate
	}
	return truncateToWidth(path, width-1) + "…"
}

func reduceToGrapheme(s string) string {
	if StringWidth(s) <= 1 {
		return s
	}
	gr := uniseg.NewGraphemes(s)
	if gr.Next() {
		return gr.Str()
	}
	return s
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	gr := uniseg.NewGraphemes(s)
	var b strings.Builder
	w := 0
	for gr.Next() {
		cluster := gr.Str()
		wd := StringWidth(cluster)
		if w+wd > width {
			break
		}
		b.WriteString(cluster)
		w += wd
	}
	return b.String()
}

// Line is the data needed to render one progress row.
type Line struct {
	Name         string
	SpinnerChar  string
	BytesSoFar   int64
	TotalBytes   int64
	SecsSoFar    float64
	BytesPerSec  float64
	IsComplete   bool
	MaxNameWidth int
}

// Render formats one progress line within the given terminal width,
// a simplified form of the original sender's render_progress_in_width:
// "<spinner> <name>  <done>/<total> @ <rate>/s".
func Render(l Line, width int) string {
	if l.IsComplete {
		l.BytesSoFar = l.TotalBytes
	}
	nameWidth := l.MaxNameWidth
	if nameWidth <= 0 {
		nameWidth = 40
	}
	name := TruncatePath(l.Name, nameWidth)
	prefix := l.SpinnerChar + " " + ljust(name, nameWidth)
	stats := fmt.Sprintf("%s/%s @ %s/s", utils.HumanBytes(l.BytesSoFar), utils.HumanBytes(l.TotalBytes), utils.HumanBytes(int64(l.BytesPerSec)))
	line := prefix + "  " + stats
	if width > 0 && StringWidth(line) > width {
		line = truncateToWidth(line, width)
	}
	return line
}

func ljust(s string, width int) string {
	w := StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// FormatPlanEntry renders one line of the confirm-paths listing
// (spec.md §4.7 confirm-paths policy): "[<type>] <local> -> <remote>",
// with the remote path marked when it overwrites an existing file.
func FormatPlanEntry(shortType, localDisplay, remoteFinal string, overwrites bool) string {
	arrow := localDisplay + " -> " + remoteFinal
	if overwrites {
		arrow = localDisplay + " -> [red]" + remoteFinal + "[reset]"
	}
	return fmt.Sprintf("[%s] %s", shortType, arrow)
}

// Basename is a small convenience re-export so callers formatting plan
// entries don't need a second import for filepath.Base.
func Basename(path string) string { return filepath.Base(path) }
