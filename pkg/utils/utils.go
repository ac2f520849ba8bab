// Package utils holds small path and formatting helpers shared across the
// sender packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HumanBytes returns a human-readable representation of a byte count.
func HumanBytes(n int64) string {
	const (
		_          = iota
		KB float64 = 1 << (10 * iota)
		MB
		GB
		TB
	)

	f := float64(n)
	switch {
	case f >= TB:
		return fmt.Sprintf("%.2fTB", f/TB)
	case f >= GB:
		return fmt.Sprintf("%.2fGB", f/GB)
	case f >= MB:
		return fmt.Sprintf("%.2fMB", f/MB)
	case f >= KB:
		return fmt.Sprintf("%.2fKB", f/KB)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// ExpandHome rewrites a leading "~" (or "~/...") to the current user's home
// directory, for disk I/O. Paths that don't start with ~ are returned as-is.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// HomeRelative rewrites an absolute path under the user's home directory to
// a "~"-relative path. If path is not under home, it is returned unchanged.
func HomeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	home = strings.TrimRight(home, string(filepath.Separator))
	prefix := home + string(filepath.Separator)
	if path == home {
		return "~"
	}
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rel := strings.TrimPrefix(path, prefix)
	return filepath.Join("~", rel)
}

// SanitizeControlCodes strips ASCII control characters (every one except
// tab, including newline and carriage return) and DEL from a string before
// it is shown to a human, so a maliciously
// named file cannot smuggle terminal escape sequences into the progress
// display.
func SanitizeControlCodes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' {
			continue
		}
		if r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToSlash converts OS path separators to forward slashes, the wire format
// required for remote paths.
func ToSlash(path string) string {
	return filepath.ToSlash(path)
}
