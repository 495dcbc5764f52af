package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// FAQFileStore keeps the knowledge base in a single JSON5 or YAML file.
// Writes go to a temp file and are renamed into place so readers (and the
// watcher) never see a partial document.
type FAQFileStore struct {
	path   string
	format Format
	mu     sync.Mutex
}

func NewFAQFileStore(path string) *FAQFileStore {
	return &FAQFileStore{path: path, format: FormatFromPath(path)}
}

// Path returns the backing file path.
func (s *FAQFileStore) Path() string { return s.path }

func (s *FAQFileStore) List(ctx context.Context) ([]store.FAQEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FAQFileStore) Get(ctx context.Context, id uuid.UUID) (*store.FAQEntry, error) {
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

func (s *FAQFileStore) Put(ctx context.Context, e *store.FAQEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.PrepareForPut(e, store.Now()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	return s.save(store.UpsertEntry(entries, *e))
}

func (s *FAQFileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries, ok := store.RemoveEntry(entries, id)
	if !ok {
		return store.ErrNotFound
	}
	return s.save(entries)
}

// ReplaceAll overwrites the whole document (used by import).
func (s *FAQFileStore) ReplaceAll(ctx context.Context, entries []store.FAQEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := store.Now()
	for i := range entries {
		if err := store.PrepareForPut(&entries[i], now); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(entries)
}

func (s *FAQFileStore) Close() error { return nil }

// load reads the document. A missing file is an empty knowledge base.
// Entries without IDs get one; the file is rewritten on the next save.
func (s *FAQFileStore) load() ([]store.FAQEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	entries, err := Decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	store.EnsureIDs(entries)
	return entries, nil
}

func (s *FAQFileStore) save(entries []store.FAQEntry) error {
	data, err := Encode(entries, s.format)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.path, data, 0644)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Watch calls onChange (debounced 300ms) whenever the FAQ file is written,
// created or renamed into place. The parent directory is watched because
// atomic saves replace the file inode. Blocks until ctx is done.
func (s *FAQFileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	slog.Info("faq file watcher started", "path", s.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("faq file watcher stopped", "path", s.path)
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, onChange)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("faq file watcher error", "error", err)
		}
	}
}

const watchDebounce = 300 * time.Millisecond
