package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"

	"github.com/deb2000-sudo/termcargo/internal/display"
	"github.com/deb2000-sudo/termcargo/internal/plan"
)

// barRenderer is the default ProgressRenderer (spec.md §2's "thin terminal
// UI" external collaborator), built on the teacher's schollz/progressbar
// usage in cmd/sender/main.go. It keeps one bar per file, created lazily
// the first time that file is rendered.
type barRenderer struct {
	bars map[string]*progressbar.ProgressBar
}

func newBarRenderer() *barRenderer {
	return &barRenderer{bars: make(map[string]*progressbar.ProgressBar)}
}

// barWidth derives the bar's column width from the terminal's actual size
// (internal/display.ColumnWidth, backed by golang.org/x/term) instead of a
// fixed constant, clamped to a sane range for narrow or piped terminals.
func barWidth() int {
	const (
		min = 10
		max = 30
	)
	w := display.ColumnWidth() / 4
	switch {
	case w < min:
		return min
	case w > max:
		return max
	default:
		return w
	}
}

func (r *barRenderer) barFor(f *plan.File) *progressbar.ProgressBar {
	if b, ok := r.bars[f.FileID]; ok {
		return b
	}
	total := f.BytesToTransmit()
	if total <= 0 {
		total = -1 // progressbar treats <=0 as an indeterminate spinner
	}
	b := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(display.TruncatePath(f.LocalPath, 40)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(barWidth()),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
	)
	r.bars[f.FileID] = b
	return b
}

// Render is called once per produced chunk batch, passing the current
// aggregate rate (driver.Driver.renderer contract).
func (r *barRenderer) Render(f *plan.File, rate float64, spinnerChar string) {
	b := r.barFor(f)
	_ = b.Set64(f.TransmittedBytes)
}

// Done marks a file's bar complete when the active-file streak moves on.
func (r *barRenderer) Done(f *plan.File) {
	if b, ok := r.bars[f.FileID]; ok {
		_ = b.Finish()
	}
}

// printPlan implements driver.PlanPrinter for the confirm-paths policy
// (spec.md §4.7): one colored line per file via internal/display's
// colorstring template, rendered through colorstring.Color the same way
// internal/diag renders its own colored diagnostics.
func printPlan(files []*plan.File) {
	for _, f := range files {
		overwrites := f.RemoteInitialSize >= 0
		remote := f.RemoteFinalPath
		if remote == "" {
			remote = f.RemotePath
		}
		entry := display.FormatPlanEntry(f.FileType.ShortText(), f.LocalPath, remote, overwrites)
		fmt.Fprintln(os.Stderr, colorstring.Color(entry))
	}
	fmt.Fprintf(os.Stderr, "Press y to begin transfer, n to cancel\n")
}

// plainRenderer is the non-interactive ProgressRenderer used when stdout
// isn't a terminal (piped output, CI): schollz/progressbar's cursor
// control assumes a real terminal, so this falls back to one
// internal/display.Render line per update instead.
type plainRenderer struct {
	width int
}

func newPlainRenderer() *plainRenderer {
	return &plainRenderer{width: display.ColumnWidth()}
}

func (r *plainRenderer) Render(f *plan.File, rate float64, spinnerChar string) {
	line := display.Line{
		Name:        f.LocalPath,
		SpinnerChar: spinnerChar,
		BytesSoFar:  f.TransmittedBytes,
		TotalBytes:  f.BytesToTransmit(),
		BytesPerSec: rate,
	}
	// the sender's stdout carries the protocol's own OSC frames
	// (driver.WriterChannel), so human-facing progress always goes to
	// stderr, the same as printPlan and internal/diag's diagnostics.
	fmt.Fprintln(os.Stderr, display.Render(line, r.width))
}

func (r *plainRenderer) Done(f *plan.File) {
	fmt.Fprintf(os.Stderr, "done: %s\n", f.RemotePath)
}
