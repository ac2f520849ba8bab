package plan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildNormalModeSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(src, []byte("hello world\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p := Planner{}
	files, err := p.Build(Normal, []string{src, "/remote/dest.txt"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.FileID != "1" {
		t.Fatalf("expected file id 1 (hex), got %q", f.FileID)
	}
	if f.FileType != FileRegular {
		t.Fatalf("expected regular file, got %v", f.FileType)
	}
	if f.RemotePath != "/remote/dest.txt" {
		t.Fatalf("expected literal remote dest, got %q", f.RemotePath)
	}
}

func TestBuildHardLinkPair(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.Link(a, b); err != nil {
		t.Skipf("hard links unsupported in this environment: %v", err)
	}

	p := Planner{}
	files, err := p.Build(Normal, []string{a, b, "/remote/"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].FileType != FileRegular {
		t.Fatalf("expected first entry regular, got %v", files[0].FileType)
	}
	if files[1].FileType != FileLink {
		t.Fatalf("expected second entry link, got %v", files[1].FileType)
	}
	if files[1].HardLinkTarget != files[0].FileID {
		t.Fatalf("expected hard link target %q, got %q", files[0].FileID, files[1].HardLinkTarget)
	}
}

func TestBuildSymlinkToPlannedFile(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	link := filepath.Join(dir, "s")
	if err := os.WriteFile(real, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write real: %v", err)
	}
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	p := Planner{}
	files, err := p.Build(Normal, []string{real, link, "/remote/"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	sym := files[1]
	if sym.FileType != FileSymlink {
		t.Fatalf("expected symlink, got %v", sym.FileType)
	}
	want := "fid:" + files[0].FileID
	if sym.SymbolicLinkTarget != want {
		t.Fatalf("expected %q, got %q", want, sym.SymbolicLinkTarget)
	}
}

func TestBuildDanglingSymlinkKeepsPathTarget(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling")
	if err := os.Symlink(filepath.Join(dir, "does-not-exist"), link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	p := Planner{}
	files, err := p.Build(Normal, []string{link, "/remote/dest"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// a dangling symlink's readlink still succeeds (it just doesn't stat);
	// this exercises the "path:" fallback rather than the drop path, which
	// only triggers when Readlink itself errors (not reachable by a normal
	// dangling symlink on POSIX).
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].SymbolicLinkTarget == "" || files[0].SymbolicLinkTarget[:5] != "path:" {
		t.Fatalf("expected path: target, got %q", files[0].SymbolicLinkTarget)
	}
}

func TestBuildDirectoryRecursesWithRemoteBaseRewrite(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "tree")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "leaf.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write leaf: %v", err)
	}

	p := Planner{}
	files, err := p.Build(Normal, []string{sub, "/remote/"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected directory + leaf, got %d", len(files))
	}
	if files[0].FileType != FileDirectory {
		t.Fatalf("expected first entry directory, got %v", files[0].FileType)
	}
	if files[1].RemotePath != "/remote/tree/leaf.txt" {
		t.Fatalf("expected nested remote path, got %q", files[1].RemotePath)
	}
}

func TestBuildRejectsTooFewArgs(t *testing.T) {
	p := Planner{}
	if _, err := p.Build(Normal, []string{"only-one"}); err == nil {
		t.Fatalf("expected error for missing remote destination")
	}
}
