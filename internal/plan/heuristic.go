package plan

import "strings"

// alreadyCompressedExt lists filename extensions whose content is already
// compressed (archives, media, fonts), so deflating them again is wasted
// CPU for little or no size reduction.
var alreadyCompressedExt = map[string]bool{
	".zip": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true,
	".zst": true, ".7z": true, ".rar": true, ".lz4": true, ".lzma": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp3": true, ".mp4": true, ".mkv": true, ".mov": true, ".avi": true,
	".flac": true, ".ogg": true, ".opus": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
	".docx": true, ".xlsx": true, ".pptx": true, ".pdf": true,
	".jar": true, ".apk": true, ".deb": true, ".rpm": true,
}

// shouldBeCompressed decides whether a regular file is worth deflating,
// based on its name. This is the heuristic spec.md §4.2 describes as
// "apparent": the original source computes it and then immediately
// overrides the result with zlib unconditionally on the next line. Whether
// that override is intentional or dead code left over from an earlier
// policy is unclear (spec.md §9), so this port follows the heuristic.
func shouldBeCompressed(path string) bool {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot == len(path)-1 {
		return true
	}
	ext := strings.ToLower(path[dot:])
	return !alreadyCompressedExt[ext]
}
