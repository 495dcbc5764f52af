package store

import (
	"time"

	"github.com/google/uuid"
)

// PrepareForPut validates e and fills in ID and timestamps.
func PrepareForPut(e *FAQEntry, now time.Time) error {
	if err := ValidateEntry(e); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = GenNewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return nil
}

// UpsertEntry replaces the entry with e.ID in place, or appends e.
// The original creation time is kept on replace.
func UpsertEntry(entries []FAQEntry, e FAQEntry) []FAQEntry {
	for i := range entries {
		if entries[i].ID == e.ID {
			if !entries[i].CreatedAt.IsZero() {
				e.CreatedAt = entries[i].CreatedAt
			}
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// RemoveEntry deletes the entry with id, preserving order.
func RemoveEntry(entries []FAQEntry, id uuid.UUID) ([]FAQEntry, bool) {
	for i := range entries {
		if entries[i].ID == id {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

// FindEntry returns a copy of the entry with id.
func FindEntry(entries []FAQEntry, id uuid.UUID) (*FAQEntry, bool) {
	for i := range entries {
		if entries[i].ID == id {
			e := entries[i]
			return &e, true
		}
	}
	return nil, false
}

// EnsureIDs assigns IDs to entries loaded without one (hand-written files).
// Returns true if any entry changed.
func EnsureIDs(entries []FAQEntry) bool {
	changed := false
	for i := range entries {
		if entries[i].ID == uuid.Nil {
			entries[i].ID = GenNewID()
			changed = true
		}
	}
	return changed
}

// Now returns the current time in UTC, truncated to microseconds so that
// values survive a round trip through Postgres and SQLite unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
