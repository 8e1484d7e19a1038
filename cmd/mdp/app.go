package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/blobstore"
	"github.com/hupe1980/metricdp/blobstore/minio"
	"github.com/hupe1980/metricdp/blobstore/s3"
	"github.com/hupe1980/metricdp/cmd/mdp/config"
	"github.com/hupe1980/metricdp/codec"
	"github.com/hupe1980/metricdp/embedding"
	"github.com/hupe1980/metricdp/persistence"
	"github.com/hupe1980/metricdp/resource"
)

func openBlobStore(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	if cfg.Backend == config.BackendLocal {
		return blobstore.NewLocalStore(cfg.Root), nil
	}

	remote, err := openRemoteStore(ctx, cfg)
	if err != nil || cfg.CacheBlocks == 0 {
		return remote, err
	}
	return blobstore.NewCachingStore(remote, cfg.CacheBlocks, blobstore.DefaultBlockSize)
}

func openRemoteStore(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		return minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
	case config.BackendS3:
		return s3.New(ctx, cfg.Bucket, cfg.Prefix, cfg.Region)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func loadStore(cfg *config.Config) (*embedding.Store, error) {
	if cfg.Vocab == "" || cfg.Vectors == "" {
		return nil, errors.New("vocab and vectors are required")
	}

	vocab, err := embedding.LoadVocab(cfg.Vocab)
	if err != nil {
		return nil, err
	}
	matrix, err := embedding.LoadFvecs(cfg.Vectors)
	if err != nil {
		return nil, err
	}
	return metricdp.NewStoreFromVocabulary(vocab, matrix)
}

// newPrivatizer loads the embedding store and configures a privatizer for it.
func newPrivatizer(cfg *config.Config, logger *metricdp.Logger, mc metricdp.MetricsCollector) (*metricdp.Privatizer, error) {
	store, err := loadStore(cfg)
	if err != nil {
		return nil, err
	}

	c, _ := codec.ByName(cfg.Index.Codec)
	comp, err := persistence.ParseCompression(cfg.Index.Compression)
	if err != nil {
		return nil, err
	}

	opts := []metricdp.Option{
		metricdp.WithLogger(logger),
		metricdp.WithMinCandidateID(cfg.Index.MinCandidateID),
		metricdp.WithCodec(c),
		metricdp.WithCompression(comp),
		metricdp.WithResourceController(resource.NewController(resource.Config{
			MaxWorkers:         cfg.Resources.MaxWorkers,
			MemoryLimitBytes:   cfg.Resources.MemoryLimitBytes,
			SequencesPerSec:    cfg.Resources.SequencesPerSec,
			IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec,
		})),
	}
	if mc != nil {
		opts = append(opts, metricdp.WithMetricsCollector(mc))
	}
	if cfg.Privacy.ExactL1 {
		opts = append(opts, metricdp.WithExactL1Noise())
	}

	return metricdp.New(store, opts...)
}
