package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// ErrOutsideRoot is returned for asset paths that do not resolve inside
// the source directory.
var ErrOutsideRoot = errors.New("path outside media root")

// LocalSource reads assets from a directory. Used by the CLI, where media
// lives next to the profile file, and by the server when object storage is
// disabled.
type LocalSource struct {
	Root string
}

func NewLocalSource(root string) LocalSource {
	return LocalSource{Root: root}
}

// Open implements media.Source. URIs are paths relative to Root, optionally
// prefixed with file://. Absolute paths, ".." and symlinks leaving Root are
// refused.
func (s LocalSource) Open(_ context.Context, _ string, asset store.MediaAsset) (io.ReadCloser, error) {
	p, err := localPath(asset.URI)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
	}
	// OpenInRoot also refuses symlinks that point out of Root
	f, err := os.OpenInRoot(s.Root, p)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
	}
	return f, nil
}

// localPath turns an asset URI into a relative path that stays inside the
// root.
func localPath(uri string) (string, error) {
	p := strings.TrimSpace(uri)
	if rest, ok := strings.CutPrefix(p, "file://"); ok {
		p = rest
	}
	if p == "" {
		return "", errors.New("empty uri")
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || strings.HasPrefix(p, string(filepath.Separator)) || !filepath.IsLocal(p) {
		return "", ErrOutsideRoot
	}
	return p, nil
}
