// Package open builds the configured store.FAQStore backend.
package open

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/internal/store/file"
	"github.com/nextlevelbuilder/faqclaw/internal/store/pg"
	"github.com/nextlevelbuilder/faqclaw/internal/store/redis"
	"github.com/nextlevelbuilder/faqclaw/internal/store/s3"
	"github.com/nextlevelbuilder/faqclaw/internal/store/sqlite"
)

// Store opens the backend named by cfg.Source. Postgres schemas are
// migrated before the store is returned.
func Store(ctx context.Context, cfg store.StoreConfig) (store.FAQStore, error) {
	switch cfg.Source {
	case "", store.SourceFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("knowledge.path is required for the file source")
		}
		return file.NewFAQFileStore(cfg.Path), nil

	case store.SourceSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("knowledge.path is required for the sqlite source")
		}
		return sqlite.NewFAQStore(cfg.Path)

	case store.SourcePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("knowledge.postgresDsn is required for the postgres source")
		}
		if err := pg.Migrate(cfg.PostgresDSN); err != nil {
			return nil, err
		}
		db, err := pg.OpenDB(ctx, cfg.PostgresDSN, pg.PoolOptions{
			MaxOpenConns:    cfg.PostgresMaxOpenConns,
			MaxIdleConns:    cfg.PostgresMaxIdleConns,
			ConnMaxIdleTime: cfg.PostgresConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return pg.NewPGFAQStore(db), nil

	case store.SourceRedis:
		return redis.NewFAQStore(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})

	case store.SourceS3:
		return s3.NewFAQStore(ctx, s3.Options{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return nil, fmt.Errorf("unknown knowledge source %q", cfg.Source)
}
