// Package redis keeps the knowledge base as a Redis list of JSON documents.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// DefaultKey is the list key used when none is configured.
const DefaultKey = "faqclaw:faq"

// maxTxRetries bounds optimistic-lock retries when concurrent writers race.
const maxTxRetries = 10

// FAQStore implements store.FAQStore. List order is RPUSH order.
type FAQStore struct {
	client *goredis.Client
	key    string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewFAQStore connects and pings the server.
func NewFAQStore(ctx context.Context, opts Options) (*FAQStore, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	slog.Info("faq redis store connected", "addr", opts.Addr, "key", opts.Key)
	return &FAQStore{client: client, key: opts.Key}, nil
}

func (s *FAQStore) List(ctx context.Context) ([]store.FAQEntry, error) {
	return readList(ctx, s.client, s.key)
}

func (s *FAQStore) Get(ctx context.Context, id uuid.UUID) (*store.FAQEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := store.FindEntry(entries, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (s *FAQStore) Put(ctx context.Context, e *store.FAQEntry) error {
	if err := store.PrepareForPut(e, store.Now()); err != nil {
		return err
	}
	entry := *e
	return s.update(ctx, func(entries []store.FAQEntry) ([]store.FAQEntry, error) {
		return store.UpsertEntry(entries, entry), nil
	})
}

func (s *FAQStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, func(entries []store.FAQEntry) ([]store.FAQEntry, error) {
		out, ok := store.RemoveEntry(entries, id)
		if !ok {
			return nil, store.ErrNotFound
		}
		return out, nil
	})
}

func (s *FAQStore) Close() error {
	return s.client.Close()
}

// update reads the list under WATCH, applies fn and rewrites the list in a
// MULTI/EXEC pipeline. Retries when another writer touched the key.
func (s *FAQStore) update(ctx context.Context, fn func([]store.FAQEntry) ([]store.FAQEntry, error)) error {
	txf := func(tx *goredis.Tx) error {
		entries, err := readList(ctx, tx, s.key)
		if err != nil {
			return err
		}
		entries, err = fn(entries)
		if err != nil {
			return err
		}
		values := make([]any, len(entries))
		for i := range entries {
			data, err := json.Marshal(entries[i])
			if err != nil {
				return fmt.Errorf("marshal faq entry: %w", err)
			}
			values[i] = data
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, s.key)
			if len(values) > 0 {
				pipe.RPush(ctx, s.key, values...)
			}
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: too many concurrent writers", s.key)
}

func readList(ctx context.Context, c goredis.Cmdable, key string) ([]store.FAQEntry, error) {
	vals, err := c.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	out := make([]store.FAQEntry, 0, len(vals))
	for i, v := range vals {
		var e store.FAQEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", key, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
