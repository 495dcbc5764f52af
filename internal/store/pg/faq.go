package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// PGFAQStore implements store.FAQStore backed by Postgres.
type PGFAQStore struct {
	db *sqlx.DB
}

func NewPGFAQStore(db *sql.DB) *PGFAQStore {
	return &PGFAQStore{db: sqlx.NewDb(db, "pgx")}
}

// faqRow maps a faq_entries row.
type faqRow struct {
	ID        uuid.UUID      `db:"id"`
	Question  string         `db:"question"`
	Answer    string         `db:"answer"`
	Category  string         `db:"category"`
	Tags      pq.StringArray `db:"tags"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r faqRow) entry() store.FAQEntry {
	e := store.FAQEntry{
		BaseModel: store.BaseModel{ID: r.ID, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()},
		Question:  r.Question,
		Answer:    r.Answer,
		Category:  r.Category,
	}
	if len(r.Tags) > 0 {
		e.Tags = []string(r.Tags)
	}
	return e
}

const faqSelectCols = `id, question, answer, category, tags, created_at, updated_at`

func (s *PGFAQStore) List(ctx context.Context) ([]store.FAQEntry, error) {
	var rows []faqRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+faqSelectCols+` FROM faq_entries ORDER BY position`); err != nil {
		return nil, fmt.Errorf("list faq: %w", err)
	}
	out := make([]store.FAQEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

func (s *PGFAQStore) Get(ctx context.Context, id uuid.UUID) (*store.FAQEntry, error) {
	var row faqRow
	err := s.db.GetContext(ctx, &row, `SELECT `+faqSelectCols+` FROM faq_entries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get faq: %w", err)
	}
	e := row.entry()
	return &e, nil
}

func (s *PGFAQStore) Put(ctx context.Context, e *store.FAQEntry) error {
	if err := store.PrepareForPut(e, store.Now()); err != nil {
		return err
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	row := faqRow{
		ID:        e.ID,
		Question:  e.Question,
		Answer:    e.Answer,
		Category:  e.Category,
		Tags:      pq.StringArray(tags),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO faq_entries (id, question, answer, category, tags, created_at, updated_at)
		 VALUES (:id, :question, :answer, :category, :tags, :created_at, :updated_at)
		 ON CONFLICT (id) DO UPDATE SET
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at`, row)
	if err != nil {
		return fmt.Errorf("upsert faq: %w", err)
	}
	return nil
}

func (s *PGFAQStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faq_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SearchByCategory returns entries in one category, in position order.
// Tags filter with array overlap when non-empty.
func (s *PGFAQStore) SearchByCategory(ctx context.Context, category string, tags []string) ([]store.FAQEntry, error) {
	q := `SELECT ` + faqSelectCols + ` FROM faq_entries WHERE category = $1`
	args := []any{category}
	if len(tags) > 0 {
		q += ` AND tags && $2`
		args = append(args, pq.Array(tags))
	}
	q += ` ORDER BY position`

	var rows []faqRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("search faq: %w", err)
	}
	out := make([]store.FAQEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

func (s *PGFAQStore) Close() error {
	return s.db.Close()
}
