package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/deb2000-sudo/termcargo/pkg/utils"
)

// Mode selects how the Planner computes remote destinations.
type Mode int

const (
	Normal Mode = iota
	Mirror
)

// Planner walks a set of local path arguments and produces an ordered
// transfer Plan (spec.md §4.1).
type Planner struct{}

// Build runs the full two-pass planning algorithm: depth-first traversal,
// then the hard-link and symlink post-passes (spec.md §3 invariants).
func (Planner) Build(mode Mode, args []string) ([]*File, error) {
	var files []*File
	var err error
	switch mode {
	case Mirror:
		files, err = processMirroredFiles(args)
	default:
		files, err = processNormalFiles(args)
	}
	if err != nil {
		return nil, err
	}

	applyHardLinkPass(files)
	files = applySymlinkPass(files)
	return files, nil
}

func getRemotePath(localPath, remoteBase string) string {
	if remoteBase == "" {
		return utils.ToSlash(localPath)
	}
	if strings.HasSuffix(remoteBase, "/") {
		return filepath.Join(remoteBase, filepath.Base(localPath))
	}
	return remoteBase
}

func statHash(info os.FileInfo) (Hash, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Hash{}, false
	}
	return Hash{Dev: uint64(st.Dev), Ino: st.Ino}, true
}

// process performs the depth-first traversal rooted at each of paths,
// recursing into directories and rewriting the remote base per directory
// the way the original kitty sender does it.
func process(paths []string, remoteBase string, counter *int) ([]*File, error) {
	var ans []*File
	for _, local := range paths {
		expanded := utils.ExpandHome(local)
		info, err := os.Lstat(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", local, err)
		}
		hash, _ := statHash(info)

		switch {
		case info.IsDir():
			*counter++
			ans = append(ans, NewFile(local, expanded, *counter, info, hash, FileDirectory, getRemotePath(local, remoteBase)))
			newBase := remoteBase
			if newBase != "" {
				newBase = strings.TrimRight(newBase, "/") + "/" + filepath.Base(local) + "/"
			} else {
				newBase = strings.TrimRight(utils.ToSlash(local), "/") + "/"
			}
			entries, err := os.ReadDir(expanded)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", local, err)
			}
			children := make([]string, len(entries))
			for i, e := range entries {
				children[i] = filepath.Join(local, e.Name())
			}
			sub, err := process(children, newBase, counter)
			if err != nil {
				return nil, err
			}
			ans = append(ans, sub...)
		case info.Mode()&os.ModeSymlink != 0:
			*counter++
			ans = append(ans, NewFile(local, expanded, *counter, info, hash, FileSymlink, getRemotePath(local, remoteBase)))
		case info.Mode().IsRegular():
			*counter++
			ans = append(ans, NewFile(local, expanded, *counter, info, hash, FileRegular, getRemotePath(local, remoteBase)))
		}
		// other entry kinds (devices, sockets, fifos) are silently skipped.
	}
	return ans, nil
}

// processMirroredFiles implements mirror mode: local paths under the user's
// home directory are rewritten ~-relative and no explicit remote base is
// used.
func processMirroredFiles(args []string) ([]*File, error) {
	paths := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(utils.ExpandHome(a))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", a, err)
		}
		paths[i] = abs
	}
	for i, p := range paths {
		paths[i] = utils.HomeRelative(p)
	}
	counter := 0
	return process(paths, "", &counter)
}

// processNormalFiles implements normal mode: the last argument is the
// remote base; if multiple sources remain and it lacks a trailing slash,
// one is appended.
func processNormalFiles(args []string) ([]*File, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("must specify at least one local path and one remote path")
	}
	remoteBase := utils.ToSlash(args[len(args)-1])
	sources := args[:len(args)-1]
	if len(sources) > 1 && !strings.HasSuffix(remoteBase, "/") {
		remoteBase += "/"
	}
	paths := make([]string, len(sources))
	for i, a := range sources {
		abs, err := filepath.Abs(utils.ExpandHome(a))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", a, err)
		}
		paths[i] = abs
	}
	counter := 0
	return process(paths, remoteBase, &counter)
}

// applyHardLinkPass groups files by (device, inode); in groups of size > 1
// the 2nd..Nth entries are rewritten to type link (spec.md §3, post-pass #1).
func applyHardLinkPass(files []*File) {
	groups := make(map[Hash][]*File, len(files))
	for _, f := range files {
		groups[f.FileHash] = append(groups[f.FileHash], f)
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		first := group[0]
		for _, f := range group[1:] {
			f.FileType = FileLink
			f.HardLinkTarget = first.FileID
		}
	}
}

// applySymlinkPass resolves each symlink's target (spec.md §3, post-pass
// #2). A symlink whose readlink fails is dropped from the plan; one whose
// target resolves to a planned file gets a "fid:" target, otherwise
// "path:".
func applySymlinkPass(files []*File) []*File {
	groups := make(map[Hash][]*File, len(files))
	for _, f := range files {
		groups[f.FileHash] = append(groups[f.FileHash], f)
	}

	kept := files[:0:0]
	for _, f := range files {
		if f.FileType != FileSymlink {
			kept = append(kept, f)
			continue
		}
		target, err := os.Readlink(f.ExpandedLocalPath)
		if err != nil {
			continue // dropped: spec.md §4.1 "a failed readlink drops that entry"
		}
		f.SymbolicLinkTarget = "path:" + target

		q := target
		if !filepath.IsAbs(target) {
			q = filepath.Join(filepath.Dir(f.ExpandedLocalPath), target)
		}
		if st, err := os.Stat(q); err == nil {
			if hash, ok := statHash(st); ok {
				// Matching (dev, inode) against another planned file's hash
				// is exactly the receiver's samestat equivalence (spec.md
				// §3): same device and inode identify the same file.
				if group, found := groups[hash]; found && len(group) > 0 {
					f.SymbolicLinkTarget = "fid:" + group[0].FileID
				}
			}
		}
		kept = append(kept, f)
	}
	return kept
}
