package transfer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// reconcile settles the on-disk outcome of one provider transfer call.
// Adapters are black boxes: some honor the requested filename, some write
// into the directory under a name of their own, some leave partial debris
// next to the real artifact. workDir is the isolated directory the transfer
// ran in and wantName the intended final filename; reconcile promotes
// exactly one file out of workDir to destDir and returns its final path.
func reconcile(workDir, destDir, wantName string, kind domain.ProviderKind, logger *slog.Logger) (string, error) {
	// Happy path: the adapter honored the requested name.
	wanted := filepath.Join(workDir, wantName)
	if info, err := os.Stat(wanted); err == nil && !info.IsDir() && info.Size() > 0 {
		return promote(wanted, destDir, wantName)
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return "", fmt.Errorf("read transfer dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, e.Name())
	}

	switch {
	case len(files) == 0:
		return "", domain.NewProviderError(kind, "transfer", domain.ErrNoOutputFile)

	case len(files) == 1:
		// One unexpected file: the adapter picked its own name. Claim it
		// under ours, keeping the adapter's container extension.
		return promote(filepath.Join(workDir, files[0]), destDir, withExtOf(wantName, files[0]))
	}

	// Several files appeared. Keep the single recognized media file and
	// discard the rest; anything else is unresolvable.
	var media []string
	for _, name := range files {
		if domain.IsMediaFile(name) {
			media = append(media, name)
		}
	}
	if len(media) != 1 {
		return "", domain.NewProviderError(kind, "transfer",
			fmt.Errorf("%w: %d files, %d recognized media", domain.ErrNoOutputFile, len(files), len(media)))
	}

	for _, name := range files {
		if name == media[0] {
			continue
		}
		logger.Debug("discarding transfer residue", "provider", kind, "file", name)
		if err := os.Remove(filepath.Join(workDir, name)); err != nil {
			logger.Warn("could not remove transfer residue", "file", name, "error", err)
		}
	}
	return promote(filepath.Join(workDir, media[0]), destDir, withExtOf(wantName, media[0]))
}

// promote moves a settled artifact from the work directory to its final
// home. Rename first; fall back to copy for the cross-device case.
func promote(src, destDir, name string) (string, error) {
	final := filepath.Join(destDir, name)
	if err := os.Rename(src, final); err == nil {
		return final, nil
	}
	if err := copyFile(src, final); err != nil {
		return "", fmt.Errorf("promote artifact: %w", err)
	}
	os.Remove(src)
	return final, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// withExtOf swaps name's extension for the one actually produced, so a
// transport-stream artifact is not mislabeled as mp4.
func withExtOf(name, produced string) string {
	pext := filepath.Ext(produced)
	if pext == "" || pext == filepath.Ext(name) {
		return name
	}
	return name[:len(name)-len(filepath.Ext(name))] + pext
}
