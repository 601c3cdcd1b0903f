package domain

import (
	"path/filepath"
	"strings"
)

// mediaExtensions are the container formats recognized during transfer
// reconciliation and direct URL classification.
var mediaExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".avi":  {},
	".m4v":  {},
	".ts":   {},
	".flv":  {},
}

// IsMediaFile reports whether the filename carries a recognized media
// extension.
func IsMediaFile(name string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
