package sendmgr

import (
	"io/fs"
	"testing"
	"time"

	"github.com/deb2000-sudo/termcargo/internal/codec"
	"github.com/deb2000-sudo/termcargo/internal/plan"
)

type fakeInfo struct {
	size  int64
	mode  fs.FileMode
	mtime time.Time
}

func (i fakeInfo) Name() string       { return "f" }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) Mode() fs.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return i.mtime }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

func newRegular(id int, name string, size int64) *plan.File {
	return plan.NewFile(name, name, id, fakeInfo{size: size, mode: 0o644}, plan.Hash{Dev: 1, Ino: uint64(id)}, plan.FileRegular, name)
}

func TestPermissionGrantAndDeny(t *testing.T) {
	m := New("req1", "", []*plan.File{newRegular(1, "a.txt", 10)})
	m.OnFileTransferResponse(codec.Command{Status: "OK"}, time.Now())
	if m.State != PermissionGranted {
		t.Fatalf("expected PermissionGranted, got %v", m.State)
	}

	m2 := New("req2", "", []*plan.File{newRegular(1, "a.txt", 10)})
	m2.OnFileTransferResponse(codec.Command{Status: "nope"}, time.Now())
	if m2.State != PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", m2.State)
	}
}

func TestStartedTransitionsRegularToTransmitting(t *testing.T) {
	f := newRegular(1, "a.txt", 10)
	m := New("req", "", []*plan.File{f})
	m.OnFileTransferResponse(codec.Command{FileID: f.FileID, Status: "STARTED", Name: "a.txt", Size: -1}, time.Now())
	if f.State != plan.Transmitting {
		t.Fatalf("expected Transmitting, got %v", f.State)
	}
	if !m.AllStarted {
		t.Fatalf("expected AllStarted true")
	}
}

func TestTerminalAcknowledgesAndRecordsError(t *testing.T) {
	f := newRegular(1, "a.txt", 10)
	m := New("req", "", []*plan.File{f})
	now := time.Now()
	m.OnFileTransferResponse(codec.Command{FileID: f.FileID, Status: "STARTED", Name: "a.txt", Size: -1}, now)
	m.OnFileTransferResponse(codec.Command{FileID: f.FileID, Status: "disk full"}, now)
	if f.State != plan.Acknowledged {
		t.Fatalf("expected Acknowledged, got %v", f.State)
	}
	if f.ErrMsg != "disk full" {
		t.Fatalf("expected error recorded, got %q", f.ErrMsg)
	}
	if !m.AllAcknowledged {
		t.Fatalf("expected AllAcknowledged true")
	}
	if m.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", m.ExitCode())
	}
}

func TestNextChunksProducesEndDataOnFinish(t *testing.T) {
	f := newRegular(1, "a.txt", 0) // size 0: symlink-free regular but no disk read needed via direct state manipulation
	f.FileType = plan.FileLink
	f.HardLinkTarget = "1"
	m := New("req", "", []*plan.File{f})
	f.State = plan.Transmitting

	cmds, err := m.NextChunks(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Action != codec.ActionEndData {
		t.Fatalf("expected single end_data frame, got %+v", cmds)
	}
	if string(cmds[0].Data) != "1" {
		t.Fatalf("expected hard link target bytes, got %q", cmds[0].Data)
	}
	if f.State != plan.Finished {
		t.Fatalf("expected file finished, got %v", f.State)
	}
}

func TestNoActiveFileYieldsNoChunks(t *testing.T) {
	f := newRegular(1, "a.txt", 10)
	m := New("req", "", []*plan.File{f}) // still waiting_for_start
	cmds, err := m.NextChunks(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmds != nil {
		t.Fatalf("expected no chunks, got %+v", cmds)
	}
}

func TestCancelSuppressesFurtherChunks(t *testing.T) {
	f := newRegular(1, "a.txt", 10)
	f.State = plan.Transmitting
	m := New("req", "", []*plan.File{f})
	m.CancelFrame()
	if m.State != Canceled {
		t.Fatalf("expected Canceled")
	}
	cmds, err := m.NextChunks(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmds != nil {
		t.Fatalf("expected no chunks while canceled, got %+v", cmds)
	}
}

func TestWriteCompletedFeedsProgressTracker(t *testing.T) {
	f := newRegular(1, "a.txt", 0)
	f.FileType = plan.FileSymlink
	f.SymbolicLinkTarget = "path:/etc/hosts"
	f.State = plan.Transmitting
	m := New("req", "", []*plan.File{f})

	now := time.Now()
	if _, err := m.NextChunks(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.WriteCompleted(now)
	if m.Tracker.TotalTransferred() != int64(len(f.SymbolicLinkTarget)) {
		t.Fatalf("expected tracker to record %d bytes, got %d", len(f.SymbolicLinkTarget), m.Tracker.TotalTransferred())
	}
	if f.TransmittedBytes != int64(len(f.SymbolicLinkTarget)) {
		t.Fatalf("expected file's own counter to record %d bytes, got %d", len(f.SymbolicLinkTarget), f.TransmittedBytes)
	}
}

func TestWriteCompletedAttributesBytesToTheFileThatProducedThem(t *testing.T) {
	f1 := newRegular(1, "a.txt", 0)
	f1.FileType = plan.FileSymlink
	f1.SymbolicLinkTarget = "path:/one"
	f1.State = plan.Transmitting

	f2 := newRegular(2, "b.txt", 0)
	f2.FileType = plan.FileSymlink
	f2.SymbolicLinkTarget = "path:/two-longer"
	f2.State = plan.WaitingForStart

	m := New("req", "", []*plan.File{f1, f2})
	now := time.Now()

	if _, err := m.NextChunks(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.WriteCompleted(now)

	// acknowledge f1 so the manager frees activeIdx and can pick up f2, the
	// same as a real terminal-status reply arriving between chunk batches.
	m.OnFileTransferResponse(codec.Command{FileID: f1.FileID, Status: "OK"}, now)

	f2.State = plan.Transmitting
	if _, err := m.NextChunks(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.WriteCompleted(now)

	if f1.TransmittedBytes != int64(len(f1.SymbolicLinkTarget)) {
		t.Fatalf("expected f1 to carry its own %d bytes, got %d", len(f1.SymbolicLinkTarget), f1.TransmittedBytes)
	}
	if f2.TransmittedBytes != int64(len(f2.SymbolicLinkTarget)) {
		t.Fatalf("expected f2 to carry its own %d bytes, got %d", len(f2.SymbolicLinkTarget), f2.TransmittedBytes)
	}
}

func TestFinishAfterAllAcknowledged(t *testing.T) {
	f1 := newRegular(1, "a.txt", 10)
	f2 := newRegular(2, "b.txt", 20)
	m := New("req", "", []*plan.File{f1, f2})
	now := time.Now()
	for _, f := range []*plan.File{f1, f2} {
		m.OnFileTransferResponse(codec.Command{FileID: f.FileID, Status: "STARTED", Name: f.LocalPath, Size: -1}, now)
		m.OnFileTransferResponse(codec.Command{FileID: f.FileID, Status: "OK"}, now)
	}
	if !m.AllAcknowledged {
		t.Fatalf("expected AllAcknowledged")
	}
	if m.ExitCode() != 0 {
		t.Fatalf("expected exit 0, got %d", m.ExitCode())
	}
	cmd := m.FinishFrame()
	if cmd.Action != codec.ActionFinish {
		t.Fatalf("expected finish action")
	}
}
