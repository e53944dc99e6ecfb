package config

import (
	"context"
	"fmt"

	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/pkg/metrics"
	"github.com/marmos91/gopherd/pkg/store"
	storebadger "github.com/marmos91/gopherd/pkg/store/badger"
	storefs "github.com/marmos91/gopherd/pkg/store/fs"
	stores3 "github.com/marmos91/gopherd/pkg/store/s3"
	"github.com/mitchellh/mapstructure"
)

// CreateStore opens the store backing a mount.
//
// The Store field selects the implementation; the matching option section
// is decoded into that store's own Config type. The result is wrapped with
// store.Instrument when storeMetrics is non-nil.
//
// Supported types:
//   - "filesystem": pkg/store/fs (a local directory)
//   - "badger": pkg/store/badger (a BadgerDB database, see `gopherd import`)
//   - "s3": pkg/store/s3 (Amazon S3 or compatible storage)
func CreateStore(ctx context.Context, cfg MountConfig, storeMetrics metrics.StoreMetrics) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.Store {
	case "filesystem":
		st, err = createFilesystemStore(ctx, cfg.Filesystem)
	case "badger":
		st, err = createBadgerStore(ctx, cfg.Badger)
	case "s3":
		st, err = createS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}

	return store.Instrument(st, cfg.Store, storeMetrics), nil
}

func decodeOptions(kind string, options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("invalid %s store config: %w", kind, err)
	}
	return nil
}

func createFilesystemStore(ctx context.Context, options map[string]any) (store.Store, error) {
	var storeCfg storefs.Config
	if err := decodeOptions("filesystem", options, &storeCfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(storeCfg); err != nil {
		return nil, fmt.Errorf("filesystem store: %w", formatValidationError(err))
	}

	st, err := storefs.New(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem store: %w", err)
	}

	logger.Debug("Filesystem store opened at %s", storeCfg.Path)
	return st, nil
}

func createBadgerStore(ctx context.Context, options map[string]any) (store.Store, error) {
	var storeCfg storebadger.Config
	if err := decodeOptions("badger", options, &storeCfg); err != nil {
		return nil, err
	}
	if storeCfg.Path == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger store: path is required")
	}

	st, err := storebadger.New(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug("Badger store opened at %s (prefix %q)", storeCfg.Path, storeCfg.Prefix)
	return st, nil
}

func createS3Store(ctx context.Context, options map[string]any) (store.Store, error) {
	var storeCfg stores3.ClientConfig
	if err := decodeOptions("s3", options, &storeCfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(storeCfg); err != nil {
		return nil, fmt.Errorf("S3 store: %w", formatValidationError(err))
	}

	st, err := stores3.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	logger.Debug("S3 store configured for bucket %s (prefix %q)", storeCfg.Bucket, storeCfg.KeyPrefix)
	return st, nil
}
