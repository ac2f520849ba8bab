// Command send is the sender side of the in-band file-transfer protocol
// (spec.md §1): it plans a local path argument list into a transfer plan,
// then drives the permission/metadata/data state machine with a
// terminal emulator over stdin/stdout.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/deb2000-sudo/termcargo/internal/codec"
	"github.com/deb2000-sudo/termcargo/internal/diag"
	"github.com/deb2000-sudo/termcargo/internal/driver"
	"github.com/deb2000-sudo/termcargo/internal/handshake"
	"github.com/deb2000-sudo/termcargo/internal/idgen"
	"github.com/deb2000-sudo/termcargo/internal/plan"
	"github.com/deb2000-sudo/termcargo/internal/sendmgr"
)

func main() {
	mirrorMode := flag.Bool("mirror", false, "mirror mode: rewrite paths under $HOME to ~-relative, no remote base argument")
	confirmPaths := flag.Bool("confirm-paths", false, "print the resolved transfer plan and wait for y/n before sending data")
	password := flag.String("permissions-password", "", "shared-secret handshake password (skips the permission round trip)")
	transmitDeltas := flag.Bool("transmit-deltas", false, "request rsync-style delta transmission for every file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	mode := plan.Normal
	if *mirrorMode {
		mode = plan.Mirror
	}

	p := plan.Planner{}
	files, err := p.Build(mode, args)
	if err != nil {
		log.Fatalf("planning transfer: %v", err)
	}
	if *transmitDeltas {
		for _, f := range files {
			f.TransmissionType = plan.TransmissionRsync
		}
	}

	requestID := idgen.RequestID()
	encodedPassword := handshake.EncodePassword(requestID, *password)

	os.Exit(run(requestID, encodedPassword, files, *confirmPaths))
}

func run(requestID, password string, files []*plan.File, confirmPaths bool) int {
	mgr := sendmgr.New(requestID, password, files)
	ch := driver.NewWriterChannel(os.Stdout)

	var renderer driver.ProgressRenderer
	if term.IsTerminal(int(os.Stdout.Fd())) {
		renderer = newBarRenderer()
	} else {
		renderer = newPlainRenderer()
	}
	d := driver.New(mgr, ch, os.Stderr, confirmPaths, printPlan, renderer)

	if err := d.Start(); err != nil {
		log.Fatalf("start session: %v", err)
	}

	inbound := make(chan codec.Command, 16)
	input := make(chan driver.InputEvent, 4)
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	go readInbound(requestID, confirmPaths, inbound, input)
	go watchSignals(input)

	code := d.Run(inbound, input, tick.C)
	if fails := mgr.FailedFiles(); len(fails) > 0 {
		for _, f := range fails {
			diag.FailedFile(os.Stderr, f.LocalPath, f.ErrMsg)
		}
	}
	return code
}

// readInbound scans stdin for protocol replies and, while a confirm-paths
// prompt is pending, the y/n answer: both arrive as lines on the same
// stream in this CLI's simplified terminal model (spec.md §6 treats frame
// unwrapping as already done by "the terminal layer"; here that layer is
// just line-buffered stdin).
func readInbound(requestID string, confirmPaths bool, inbound chan<- codec.Command, input chan<- driver.InputEvent) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if confirmPaths && (line == "y" || line == "n") {
			kind := driver.EventKeyCancel
			if line == "y" {
				kind = driver.EventKeyConfirm
			}
			input <- driver.InputEvent{Kind: kind}
			continue
		}
		id, body, ok := codec.Unwrap(line)
		if !ok || id != requestID {
			continue
		}
		cmd, err := codec.Parse(body)
		if err != nil {
			continue
		}
		inbound <- cmd
	}
}

// watchSignals turns SIGINT/SIGTERM into the driver's cancel events
// (spec.md §4.7 and §7 kinds 4/5).
func watchSignals(input chan<- driver.InputEvent) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	for sig := range sigCh {
		if sig == syscall.SIGTERM {
			input <- driver.InputEvent{Kind: driver.EventTerminate}
		} else {
			input <- driver.InputEvent{Kind: driver.EventInterrupt}
		}
	}
}
