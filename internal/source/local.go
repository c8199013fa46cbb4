// Package source discovers the repositories a batch should clone.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reclone/internal/git"
	"reclone/internal/repo"

	"github.com/chainguard-dev/clog"
)

// VCSMarker is the subdirectory that marks a checkout.
const VCSMarker = ".git"

// ListRepositories inspects the immediate children of baseDir and returns a
// Ref for every git checkout with a readable remote URL. Entries whose remote
// cannot be read are logged and omitted. Order follows directory iteration.
func ListRepositories(ctx context.Context, q git.RemoteQuerier, baseDir, remote string) ([]repo.Ref, error) {
	if q == nil {
		return nil, fmt.Errorf("remote querier is nil")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: plugin directory %q: %w", ErrInvalidInput, baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: plugin directory %q is not a directory", ErrInvalidInput, baseDir)
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("read plugin directory: %w", err)
	}

	log := clog.FromContext(ctx)
	var refs []repo.Ref
	for _, entry := range entries {
		dir := filepath.Join(baseDir, entry.Name())
		// Stat follows symlinks, so linked checkouts count.
		if !isDir(dir) {
			continue
		}
		if !isDir(filepath.Join(dir, VCSMarker)) {
			log.Debugf("Skipping %s: not a git checkout", entry.Name())
			continue
		}

		url, err := q.RemoteURL(ctx, dir, remote)
		if err != nil {
			log.Warnf("Skipping %s: failed to read remote url: %v", entry.Name(), err)
			continue
		}
		ref, err := repo.NewRef(entry.Name(), url)
		if err != nil {
			log.Warnf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
