// Package diag renders the small set of colored, human-facing diagnostics
// the sender prints: permission grant/deny, cancel notices, and the
// failed-file summary (spec.md §7).
package diag

import (
	"fmt"
	"io"

	"github.com/mitchellh/colorstring"
)

// Fprintln writes a colorstring-templated line (e.g. "[red]boom[reset]")
// to w, followed by a newline.
func Fprintln(w io.Writer, template string) {
	fmt.Fprintln(w, colorstring.Color(template+"[reset]"))
}

// PermissionDenied is the diagnostic printed when the receiver refuses the
// session (spec.md §7 kind 2).
func PermissionDenied(w io.Writer) {
	Fprintln(w, "[red]Permission denied for this transfer")
}

// PermissionGranted is printed once the receiver accepts the session.
func PermissionGranted(w io.Writer) {
	Fprintln(w, "[green]Permission granted for this transfer")
}

// InterruptCancel is printed when a local interrupt initiates the cancel
// flow (spec.md §4.7).
func InterruptCancel(w io.Writer) {
	Fprintln(w, "[red]Interrupt requested, cancelling transfer, transferred files are in undefined state")
}

// TerminateCancel is printed when a terminate signal initiates the cancel
// flow with the shorter deadline.
func TerminateCancel(w io.Writer) {
	Fprintln(w, "[red]Terminate requested, cancelling transfer, transferred files are in undefined state")
}

// WaitingForCancelAck is printed on a second interrupt while already
// canceled.
func WaitingForCancelAck(w io.Writer) {
	Fprintln(w, "[yellow]Waiting for canceled acknowledgement from terminal, will abort in a few seconds if no response received")
}

// FailedFile prints one entry of the end-of-run failure summary
// (spec.md §7 kind 3, scenario S6).
func FailedFile(w io.Writer, displayName, errMsg string) {
	Fprintln(w, fmt.Sprintf("[red]%s[reset] %s", displayName, errMsg))
}
