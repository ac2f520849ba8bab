package plan

import (
	"errors"
	"io"
	"os"

	"github.com/deb2000-sudo/termcargo/internal/compressor"
)

// defaultChunkSize is the recommended raw-input read size (spec.md §4.3).
const defaultChunkSize = 1024 * 1024

// NextChunk implements the File Reader (spec.md §4.3). It returns the next
// compressed output bytes and the number of uncompressed bytes consumed to
// produce them, and mutates f's state. maxSz<=0 uses the recommended 1MiB
// default.
func (f *File) NextChunk(maxSz int) ([]byte, int, error) {
	if maxSz <= 0 {
		maxSz = defaultChunkSize
	}
	switch f.FileType {
	case FileSymlink:
		f.State = Finished
		ans := []byte(f.SymbolicLinkTarget)
		return ans, len(ans), nil
	case FileLink:
		f.State = Finished
		ans := []byte(f.HardLinkTarget)
		return ans, len(ans), nil
	}

	if f.compressor == nil {
		f.compressor = compressor.New(f.Compression)
	}
	if f.actualFile == nil {
		file, err := os.Open(f.ExpandedLocalPath)
		if err != nil {
			return nil, 0, err
		}
		f.actualFile = file
	}

	buf := make([]byte, maxSz)
	n, readErr := f.actualFile.Read(buf)
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return nil, 0, readErr
	}
	raw := buf[:n]
	f.rawBytesRead += int64(n)
	isLast := n == 0 || f.rawBytesRead >= f.FileSize

	chunk := f.compressor.Compress(raw)
	if isLast {
		chunk = append(chunk, f.compressor.Flush()...)
		f.State = Finished
		if err := f.actualFile.Close(); err != nil {
			return nil, 0, err
		}
		f.actualFile = nil
	}
	return chunk, n, nil
}
