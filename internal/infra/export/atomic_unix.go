//go:build !windows

package export

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, perm)
}
