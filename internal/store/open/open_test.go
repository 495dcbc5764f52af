package open

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/internal/store/file"
	"github.com/nextlevelbuilder/faqclaw/internal/store/sqlite"
)

func TestStoreLocalBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := Store(ctx, store.StoreConfig{Path: filepath.Join(dir, "faq.json5")})
	if err != nil {
		t.Fatalf("file source: %v", err)
	}
	if _, ok := fs.(*file.FAQFileStore); !ok {
		t.Errorf("default source returned %T, want *file.FAQFileStore", fs)
	}

	ss, err := Store(ctx, store.StoreConfig{Source: store.SourceSQLite, Path: filepath.Join(dir, "faq.db")})
	if err != nil {
		t.Fatalf("sqlite source: %v", err)
	}
	defer ss.Close()
	if _, ok := ss.(*sqlite.FAQStore); !ok {
		t.Errorf("sqlite source returned %T", ss)
	}
}

func TestStoreErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  store.StoreConfig
	}{
		{"unknown", store.StoreConfig{Source: "mongo"}},
		{"file_without_path", store.StoreConfig{Source: store.SourceFile}},
		{"sqlite_without_path", store.StoreConfig{Source: store.SourceSQLite}},
		{"postgres_without_dsn", store.StoreConfig{Source: store.SourcePostgres}},
		{"s3_without_bucket", store.StoreConfig{Source: store.SourceS3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Store(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
