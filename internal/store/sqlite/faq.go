// Package sqlite stores the knowledge base in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// FAQStore implements store.FAQStore on SQLite. Entries keep their insertion
// order through the position column.
type FAQStore struct {
	db *sql.DB
}

// NewFAQStore opens (or creates) the database at dbPath and applies the schema.
func NewFAQStore(dbPath string) (*FAQStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer keeps position assignment race-free.
	db.SetMaxOpenConns(1)

	s := &FAQStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("faq sqlite store opened", "path", dbPath)
	return s, nil
}

func (s *FAQStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS faq (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_faq_position ON faq(position)`,
		`CREATE INDEX IF NOT EXISTS idx_faq_category ON faq(category)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return nil
}

const selectCols = `id, question, answer, category, tags, created_at, updated_at`

func (s *FAQStore) List(ctx context.Context) ([]store.FAQEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM faq ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list faq: %w", err)
	}
	defer rows.Close()

	var out []store.FAQEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *FAQStore) Get(ctx context.Context, id uuid.UUID) (*store.FAQEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM faq WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

func (s *FAQStore) Put(ctx context.Context, e *store.FAQEntry) error {
	if err := store.PrepareForPut(e, store.Now()); err != nil {
		return err
	}
	tags, err := json.Marshal(nonNilTags(e.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO faq (id, position, question, answer, category, tags, created_at, updated_at)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM faq), ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			category = excluded.category,
			tags = excluded.tags,
			updated_at = excluded.updated_at`,
		e.ID.String(), e.Question, e.Answer, e.Category, string(tags),
		e.CreatedAt.UnixMicro(), e.UpdatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("upsert faq: %w", err)
	}
	return nil
}

func (s *FAQStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faq WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *FAQStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*store.FAQEntry, error) {
	var (
		e                store.FAQEntry
		id, tags         string
		created, updated int64
	)
	if err := row.Scan(&id, &e.Question, &e.Answer, &e.Category, &tags, &created, &updated); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("faq id %q: %w", id, err)
	}
	e.ID = parsed
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("faq tags: %w", err)
	}
	if len(e.Tags) == 0 {
		e.Tags = nil
	}
	e.CreatedAt = time.UnixMicro(created).UTC()
	e.UpdatedAt = time.UnixMicro(updated).UTC()
	return &e, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
