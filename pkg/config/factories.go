package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/catalog"
	"github.com/marmos91/dittosync/pkg/content"
	contentfs "github.com/marmos91/dittosync/pkg/content/fs"
	contentmemory "github.com/marmos91/dittosync/pkg/content/memory"
	contents3 "github.com/marmos91/dittosync/pkg/content/s3"
	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/marmos91/dittosync/pkg/storage/cas"
	"github.com/marmos91/dittosync/pkg/storage/contentsource"
	"github.com/marmos91/dittosync/pkg/storage/contenttarget"
	"github.com/mitchellh/mapstructure"
)

// Source is a source backend that can also stream the content of the
// containers it loads.
type Source interface {
	storage.SyncStorage
	extractor.DataStreamer
}

// s3YAMLConfig represents S3 configuration loaded from YAML files.
type s3YAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// CreateContentStore creates a content store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "filesystem": Uses pkg/content/fs (local filesystem storage)
//   - "memory": Uses pkg/content/memory (ephemeral, for tests and dry runs)
//   - "s3": Uses pkg/content/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//
// Returns:
//   - content.WritableContentStore: Initialized content store
//   - error: Configuration or initialization error
func CreateContentStore(ctx context.Context, cfg *StoreConfig) (content.WritableContentStore, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		return contentmemory.NewMemoryContentStore(ctx)
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

// createFilesystemContentStore creates a filesystem-based content store.
func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.WritableContentStore, error) {
	type FilesystemContentStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentfs.NewFSContentStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

// createS3ContentStore creates an S3-based content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.WritableContentStore, error) {
	var storeCfg s3YAMLConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	client, err := contents3.NewS3Client(ctx, contents3.ClientConfig{
		Endpoint:        storeCfg.Endpoint,
		Region:          storeCfg.Region,
		AccessKeyID:     storeCfg.AccessKeyID,
		SecretAccessKey: storeCfg.SecretAccessKey,
		ForcePathStyle:  storeCfg.ForcePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	store, err := contents3.NewS3ContentStore(ctx, contents3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateSource creates the source backend based on configuration.
//
// Supported types:
//   - "filesystem", "memory", "s3": a content store read by identifier
//   - "cas": a BadgerDB clip archive
func CreateSource(ctx context.Context, cfg *SourceConfig) (Source, error) {
	switch cfg.Type {
	case "cas":
		return CreateArchive(ctx, cfg.CAS)
	case "filesystem", "memory", "s3":
		store, err := CreateContentStore(ctx, cfg.storeConfig())
		if err != nil {
			return nil, err
		}
		return contentsource.New(cfg.Type, store), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", cfg.Type)
	}
}

// CreateArchive opens the clip archive described by options.
func CreateArchive(ctx context.Context, options map[string]any) (*cas.Archive, error) {
	var archiveCfg cas.Config
	if err := mapstructure.Decode(options, &archiveCfg); err != nil {
		return nil, fmt.Errorf("failed to decode cas config: %w", err)
	}

	if err := validate.Struct(archiveCfg); err != nil {
		return nil, fmt.Errorf("cas source: %w", formatValidationError(err))
	}

	archive, err := cas.Open(ctx, archiveCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open cas archive: %w", err)
	}

	return archive, nil
}

// CreateTarget creates the target backend based on configuration.
//
// Supported types:
//   - "catalog": an XDR manifest of the extracted metadata
//   - "content": a content store receiving regular file payloads
func CreateTarget(ctx context.Context, cfg *TargetConfig) (storage.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "catalog":
		var catalogCfg catalog.Config
		if err := mapstructure.Decode(cfg.Catalog, &catalogCfg); err != nil {
			return nil, fmt.Errorf("failed to decode catalog config: %w", err)
		}
		if err := validate.Struct(catalogCfg); err != nil {
			return nil, fmt.Errorf("catalog target: %w", formatValidationError(err))
		}
		return catalog.Create(catalogCfg)

	case "content":
		store, err := CreateContentStore(ctx, &cfg.Content)
		if err != nil {
			return nil, err
		}
		return contenttarget.New(cfg.Content.Type, store), nil

	default:
		return nil, fmt.Errorf("unknown target type: %q", cfg.Type)
	}
}
