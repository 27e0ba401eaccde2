package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)

	key := ObjectKey("invoices", "7284 - Acme Corp", now)
	assert.True(t, strings.HasPrefix(key, "invoices/2026/03/7284-acme-corp-"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	other := ObjectKey("invoices", "7284 - Acme Corp", now)
	assert.NotEqual(t, key, other)

	empty := ObjectKey("", "", now)
	assert.True(t, strings.HasPrefix(empty, "2026/03/invoice-"), empty)
}

func TestFSArchivePut(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := NewFSArchive(fs, "/exports")

	obj, err := archive.Put(context.Background(), "invoices/2026/03/a.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/exports", "invoices", "2026", "03", "a.pdf"), obj.Location)
	assert.Equal(t, 8, obj.Size)

	data, err := afero.ReadFile(fs, obj.Location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))
}

func TestFSArchiveHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFSArchive(afero.NewMemMapFs(), "/").Put(ctx, "a.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoopArchive(t *testing.T) {
	var archive Archive = NoopArchive{}
	assert.False(t, archive.Enabled())

	_, err := archive.Put(context.Background(), "k", "application/pdf", nil)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestNewFromConfig(t *testing.T) {
	archive, err := NewFromConfig(config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendNone}}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, archive.Enabled())

	archive, err = NewFromConfig(config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendLocal, LocalDir: t.TempDir()}}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, archive.Enabled())

	_, err = NewFromConfig(config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendS3}}, zap.NewNop())
	assert.Error(t, err)
}
