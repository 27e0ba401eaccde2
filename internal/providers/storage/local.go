package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSArchive writes documents below a base directory of an afero filesystem.
type FSArchive struct {
	fs      afero.Fs
	baseDir string
}

func NewFSArchive(fs afero.Fs, baseDir string) *FSArchive {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSArchive{fs: fs, baseDir: baseDir}
}

func (a *FSArchive) Enabled() bool { return true }

func (a *FSArchive) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	target := filepath.Join(a.baseDir, filepath.FromSlash(key))
	if err := a.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create archive dir: %w", err)
	}
	if err := afero.WriteFile(a.fs, target, data, os.FileMode(0o644)); err != nil {
		return Object{}, fmt.Errorf("write archive file: %w", err)
	}

	return Object{Key: key, Location: target, Size: len(data)}, nil
}
