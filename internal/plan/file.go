// Package plan enumerates a tree of local paths into an ordered transfer
// plan, classifying regular files, directories, symlinks and hard-link
// groups the way the sender's wire protocol expects them.
package plan

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/deb2000-sudo/termcargo/internal/compressor"
	"github.com/deb2000-sudo/termcargo/pkg/utils"
)

// FileType classifies a plan entry.
type FileType int

const (
	FileRegular FileType = iota
	FileDirectory
	FileSymlink
	FileLink
)

func (t FileType) String() string {
	switch t {
	case FileRegular:
		return "regular"
	case FileDirectory:
		return "directory"
	case FileSymlink:
		return "symlink"
	case FileLink:
		return "link"
	default:
		return "unknown"
	}
}

// ShortText is the three-letter label used when printing the transfer plan.
func (t FileType) ShortText() string {
	switch t {
	case FileDirectory:
		return "dir"
	case FileSymlink:
		return "sym"
	case FileLink:
		return "hrd"
	default:
		return "fil"
	}
}

// TransmissionType selects how a file's data is carried once transmission
// begins.
type TransmissionType int

const (
	TransmissionSimple TransmissionType = iota
	TransmissionRsync
)

// State is the per-file state machine (spec.md §4.5).
type State int

const (
	WaitingForStart State = iota
	WaitingForData
	Transmitting
	Finished
	Acknowledged
)

func (s State) String() string {
	switch s {
	case WaitingForStart:
		return "waiting_for_start"
	case WaitingForData:
		return "waiting_for_data"
	case Transmitting:
		return "transmitting"
	case Finished:
		return "finished"
	case Acknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// Hash identifies a file on disk by device and inode, used to detect hard
// links and symlink targets that are already part of the plan.
type Hash struct {
	Dev, Ino uint64
}

// File is one entry in a transfer Plan.
type File struct {
	LocalPath         string // display form, control-code sanitized
	ExpandedLocalPath string // home-expanded, for disk I/O
	FileID            string // lowercase hex, unique within the plan

	FileType         FileType
	TransmissionType TransmissionType
	Permissions      fs.FileMode
	MTime            int64 // nanoseconds since epoch
	FileSize         int64
	FileHash         Hash

	RemotePath        string
	RemoteFinalPath   string
	RemoteInitialSize int64 // -1 == new file

	HardLinkTarget     string // another file's id
	SymbolicLinkTarget string // "path:<literal>" or "fid:<id>"

	Compression compressor.Mode

	State            State
	ErrMsg           string
	TransmittedBytes int64

	TransmitStartedAt time.Time
	TransmitEndedAt   time.Time

	compressor   compressor.Compressor
	actualFile   readCloser
	rawBytesRead int64
}

// readCloser is the subset of *os.File the File Reader needs; it exists so
// tests can substitute an in-memory file without touching disk.
type readCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

// NewFile builds a File from a stat result. file_id is rendered as lowercase
// hex without a prefix, per spec.md §3.
func NewFile(localPath, expandedPath string, fileID int, info fs.FileInfo, hash Hash, ftype FileType, remotePath string) *File {
	size := info.Size()
	if ftype == FileDirectory || ftype == FileSymlink {
		size = 0
	}
	f := &File{
		LocalPath:         utils.SanitizeControlCodes(localPath),
		ExpandedLocalPath: expandedPath,
		FileID:            fmt.Sprintf("%x", fileID),
		FileType:          ftype,
		TransmissionType:  TransmissionSimple,
		Permissions:       info.Mode().Perm(),
		MTime:             info.ModTime().UnixNano(),
		FileSize:          size,
		FileHash:          hash,
		RemotePath:        utils.ToSlash(remotePath),
		RemoteInitialSize: -1,
		State:             WaitingForStart,
	}
	f.Compression = chooseCompression(f)
	return f
}

// chooseCompression applies the "should be compressed" heuristic from
// spec.md §4.2: zlib whenever the file is regular, larger than 4096 bytes,
// and its name doesn't look already-compressed.
func chooseCompression(f *File) compressor.Mode {
	if f.FileType == FileRegular && f.FileSize > 4096 && shouldBeCompressed(f.ExpandedLocalPath) {
		return compressor.Zlib
	}
	return compressor.None
}

// BytesToTransmit is the amount of data this file is expected to carry:
// its size for regular files, or the byte length of its link target for
// symlinks/hard links.
func (f *File) BytesToTransmit() int64 {
	switch f.FileType {
	case FileSymlink:
		return int64(len(f.SymbolicLinkTarget))
	case FileLink:
		return int64(len(f.HardLinkTarget))
	default:
		return f.FileSize
	}
}
