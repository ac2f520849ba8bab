// Package sendmgr implements the Send Manager (spec.md §4.5): the global
// and per-file state machines, active-file selection, outbound chunk
// production, and acknowledgement intake. It is grounded on the kitty
// sender's SendManager/update_collective_statuses/activate_next_ready_file
// and on the teacher's internal/session/manager.go for the shape of a
// struct that owns a collection plus a "current" pointer into it.
package sendmgr

import (
	"fmt"
	"time"

	"github.com/deb2000-sudo/termcargo/internal/codec"
	"github.com/deb2000-sudo/termcargo/internal/plan"
	"github.com/deb2000-sudo/termcargo/internal/progress"
)

// maxFrameBytes caps a single data/end_data frame's payload (spec.md §4.3).
const maxFrameBytes = 4096

// SendState is the session-wide state machine (spec.md §4.5).
type SendState int

const (
	WaitingForPermission SendState = iota
	PermissionGranted
	PermissionDenied
	Canceled
)

func (s SendState) String() string {
	switch s {
	case WaitingForPermission:
		return "waiting_for_permission"
	case PermissionGranted:
		return "permission_granted"
	case PermissionDenied:
		return "permission_denied"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Manager owns the plan, the active file, the global state, the fid→index
// map, and the Progress Tracker for one send session.
type Manager struct {
	RequestID string
	Password  string

	files    []*plan.File
	byFileID map[string]int

	State     SendState
	activeIdx int // -1 == none

	currentChunkUncompressedSz int // bytes consumed in the in-flight chunk
	hasChunkInFlight           bool
	inFlightFile               *plan.File // file that produced the in-flight chunk

	AllStarted      bool
	AllAcknowledged bool

	Tracker *progress.Tracker

	// OnFileDone is invoked when a file's active streak ends (activation of
	// the next file, or acknowledgement of the active file). Optional.
	OnFileDone func(f *plan.File)
}

// New builds a Manager over files, ready to drive requestID's session.
func New(requestID, password string, files []*plan.File) *Manager {
	byID := make(map[string]int, len(files))
	var total int64
	for i, f := range files {
		byID[f.FileID] = i
		total += f.BytesToTransmit()
	}
	return &Manager{
		RequestID: requestID,
		Password:  password,
		files:     files,
		byFileID:  byID,
		State:     WaitingForPermission,
		activeIdx: -1,
		Tracker:   progress.New(total),
	}
}

// Files exposes the plan this manager drives.
func (m *Manager) Files() []*plan.File { return m.files }

// FileByID looks up a plan entry by its wire file id.
func (m *Manager) FileByID(fileID string) (*plan.File, bool) {
	idx, ok := m.byFileID[fileID]
	if !ok {
		return nil, false
	}
	return m.files[idx], true
}

// ActiveFile returns the file currently producing data frames, or nil.
func (m *Manager) ActiveFile() *plan.File {
	if m.activeIdx < 0 {
		return nil
	}
	return m.files[m.activeIdx]
}

// StartFrame builds the session-opening "send" command (spec.md §4.7).
func (m *Manager) StartFrame() codec.Command {
	return codec.Command{Action: codec.ActionSend, Password: m.Password}
}

// MetadataFrames builds one "file" command per plan entry, in plan order
// (spec.md §5: send precedes all metadata; metadata for a file precedes
// any of its data frames).
func (m *Manager) MetadataFrames() []codec.Command {
	cmds := make([]codec.Command, len(m.files))
	for i, f := range m.files {
		cmds[i] = codec.Command{
			Action:      codec.ActionFile,
			FileID:      f.FileID,
			Name:        f.RemotePath,
			Size:        f.FileSize,
			MTime:       f.MTime,
			Permissions: uint32(f.Permissions),
			Compression: f.Compression,
			FType:       f.FileType,
			TType:       f.TransmissionType,
		}
	}
	return cmds
}

// activateNextReadyFile finalizes the previous active file and linearly
// scans for the first file in state Transmitting, per spec.md §4.5.
func (m *Manager) activateNextReadyFile(now time.Time) {
	if prev := m.ActiveFile(); prev != nil {
		prev.TransmitEndedAt = now
		if m.OnFileDone != nil {
			m.OnFileDone(prev)
		}
	}
	m.activeIdx = -1
	for i, f := range m.files {
		if f.State == plan.Transmitting {
			m.activeIdx = i
			f.TransmitStartedAt = now
			break
		}
	}
}

// NextChunks produces the next batch of outbound frames for the active
// file (spec.md §4.5 next_chunks): repeated NextChunk calls until a
// non-empty chunk is produced or the file finishes, then sub-framed into
// at most maxFrameBytes-sized data/end_data commands, all carrying the
// active file's id. Returns no frames if there is no file ready to send.
func (m *Manager) NextChunks(now time.Time) ([]codec.Command, error) {
	if m.State == Canceled {
		return nil, nil
	}
	if af := m.ActiveFile(); af == nil || af.State != plan.Transmitting {
		m.activateNextReadyFile(now)
	}
	f := m.ActiveFile()
	if f == nil {
		return nil, nil
	}

	var chunk []byte
	uncompressed := 0
	for {
		part, n, err := f.NextChunk(0)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.LocalPath, err)
		}
		chunk = append(chunk, part...)
		uncompressed += n
		if len(part) > 0 || f.State == plan.Finished {
			break
		}
	}
	m.currentChunkUncompressedSz = uncompressed
	m.hasChunkInFlight = true
	m.inFlightFile = f

	finished := f.State == plan.Finished
	if len(chunk) == 0 {
		action := codec.ActionData
		if finished {
			action = codec.ActionEndData
		}
		return []codec.Command{{Action: action, FileID: f.FileID}}, nil
	}

	var cmds []codec.Command
	for off := 0; off < len(chunk); off += maxFrameBytes {
		end := off + maxFrameBytes
		if end > len(chunk) {
			end = len(chunk)
		}
		isLast := end == len(chunk)
		action := codec.ActionData
		if isLast && finished {
			action = codec.ActionEndData
		}
		cmds = append(cmds, codec.Command{
			Action: action,
			FileID: f.FileID,
			Data:   chunk[off:end],
		})
	}
	return cmds, nil
}

// WriteCompleted is called once a produced batch has been confirmed
// written to the channel (spec.md §4.7): it increments the in-flight
// file's transmitted-bytes counter and pushes the same amount into the
// session-global progress tracker (spec.md §4.6: "increment the active
// file's transmitted counter and the global counter").
func (m *Manager) WriteCompleted(now time.Time) {
	if !m.hasChunkInFlight {
		return
	}
	if m.inFlightFile != nil {
		m.inFlightFile.TransmittedBytes += int64(m.currentChunkUncompressedSz)
	}
	m.Tracker.OnTransfer(int64(m.currentChunkUncompressedSz), now)
	m.currentChunkUncompressedSz = 0
	m.hasChunkInFlight = false
	m.inFlightFile = nil
}

// OnFileTransferResponse applies one inbound status command (spec.md
// §4.5): session-level grant/deny while waiting for permission, per-file
// STARTED, or per-file terminal status. It recomputes AllStarted and
// AllAcknowledged after every call.
func (m *Manager) OnFileTransferResponse(cmd codec.Command, now time.Time) {
	if cmd.FileID == "" {
		m.applySessionStatus(cmd.Status)
		m.recompute()
		return
	}

	f, ok := m.FileByID(cmd.FileID)
	if !ok {
		return
	}
	if cmd.Status == "STARTED" {
		m.applyStarted(f, cmd)
	} else {
		m.applyTerminal(f, cmd.Status, now)
	}
	m.recompute()
}

func (m *Manager) applySessionStatus(status string) {
	if m.State != WaitingForPermission {
		return
	}
	if status == "OK" {
		m.State = PermissionGranted
	} else {
		m.State = PermissionDenied
	}
}

func (m *Manager) applyStarted(f *plan.File, cmd codec.Command) {
	f.RemoteFinalPath = cmd.Name
	f.RemoteInitialSize = cmd.Size
	switch {
	case f.FileType == plan.FileDirectory:
		f.State = plan.Finished
	case f.TransmissionType == plan.TransmissionRsync:
		f.State = plan.WaitingForData
	default:
		f.State = plan.Transmitting
	}
}

func (m *Manager) applyTerminal(f *plan.File, status string, now time.Time) {
	if f.State == plan.Acknowledged {
		return
	}
	if status != "OK" {
		f.ErrMsg = status
	}
	f.State = plan.Acknowledged
	if m.ActiveFile() == f {
		f.TransmitEndedAt = now
		if m.OnFileDone != nil {
			m.OnFileDone(f)
		}
		m.activeIdx = -1
	}
}

// recompute refreshes AllStarted and AllAcknowledged with a single scan
// (spec.md §4.5).
func (m *Manager) recompute() {
	allStarted, allAcked := true, true
	for _, f := range m.files {
		if f.State == plan.WaitingForStart {
			allStarted = false
		}
		if f.State != plan.Acknowledged {
			allAcked = false
		}
	}
	m.AllStarted = allStarted
	m.AllAcknowledged = allAcked
}

// CancelFrame builds the "cancel" command and transitions to Canceled.
func (m *Manager) CancelFrame() codec.Command {
	m.State = Canceled
	return codec.Command{Action: codec.ActionCancel}
}

// FinishFrame builds the "finish" command, emitted once AllAcknowledged is
// observed after a write completes.
func (m *Manager) FinishFrame() codec.Command {
	return codec.Command{Action: codec.ActionFinish}
}

// ExitCode returns the process exit code per spec.md §4.5/§7: 0 if every
// file finished without an error, 1 otherwise.
func (m *Manager) ExitCode() int {
	for _, f := range m.files {
		if f.ErrMsg != "" {
			return 1
		}
	}
	if m.State == PermissionDenied || m.State == Canceled {
		return 1
	}
	return 0
}

// FailedFiles returns the plan entries that recorded a per-file error.
func (m *Manager) FailedFiles() []*plan.File {
	var out []*plan.File
	for _, f := range m.files {
		if f.ErrMsg != "" {
			out = append(out, f)
		}
	}
	return out
}
