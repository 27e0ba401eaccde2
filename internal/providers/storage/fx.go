package storage

import (
	"context"

	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Archive, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		return NewFSArchive(afero.NewOsFs(), cfg.Storage.LocalDir), nil
	case config.StorageBackendS3:
		archive, err := NewS3Archive(context.Background(), S3Config{
			Bucket:       cfg.Storage.S3Bucket,
			Region:       cfg.Storage.S3Region,
			Endpoint:     cfg.Storage.S3Endpoint,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			UsePathStyle: cfg.Storage.S3UsePathStyle,
		}, log)
		if err != nil {
			return nil, err
		}
		return archive, nil
	default:
		return NoopArchive{}, nil
	}
}
