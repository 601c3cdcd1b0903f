// Package ffmpeg shells out to ffmpeg for post-transfer metadata tagging.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// Tagger writes title/author/comment metadata into finished artifacts by
// stream-copy remux, so tagging never re-encodes.
type Tagger struct {
	ffmpegPath string
}

// NewTagger creates a tagger. An empty path falls back to looking up
// ffmpeg in PATH; when neither resolves, the tagger reports unavailable
// and callers skip tagging.
func NewTagger(path string) *Tagger {
	if path == "" {
		path, _ = exec.LookPath("ffmpeg")
	} else if _, err := os.Stat(path); err != nil {
		path = ""
	}
	return &Tagger{ffmpegPath: path}
}

// Available reports whether an ffmpeg binary was found.
func (t *Tagger) Available() bool {
	return t.ffmpegPath != ""
}

// WriteTags remuxes the file in place with metadata attached. The remux
// goes to a sibling temp file first and replaces the original only on
// success, so a failed ffmpeg run leaves the artifact untouched.
func (t *Tagger) WriteTags(ctx context.Context, path string, meta domain.CanonicalMetadata) error {
	if !t.Available() {
		return fmt.Errorf("ffmpeg not available")
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".tag-"+filepath.Base(path))

	args := []string{
		"-y",
		"-i", path,
		"-c", "copy",
		"-metadata", "title=" + meta.Title,
	}
	if meta.Author != "" {
		args = append(args, "-metadata", "artist="+meta.Author)
	}
	if len(meta.Tags) > 0 {
		args = append(args, "-metadata", "comment="+strings.Join(meta.Tags, ", "))
	}
	if meta.PublishDate != "" && meta.PublishDate != "N/A" {
		args = append(args, "-metadata", "date="+meta.PublishDate)
	}
	args = append(args, "-f", formatFor(path), tmp)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ffmpeg remux: %w: %s", err, tail(string(out)))
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// formatFor names the output muxer explicitly: the temp file's .tag-
// prefix hides the extension ffmpeg would otherwise infer from.
func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "matroska"
	case ".webm":
		return "webm"
	case ".ts":
		return "mpegts"
	case ".avi":
		return "avi"
	case ".mov", ".m4v", ".mp4":
		return "mp4"
	default:
		return "mp4"
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		s = s[len(s)-400:]
	}
	return s
}
