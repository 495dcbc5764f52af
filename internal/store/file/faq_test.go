package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

func questions(entries []store.FAQEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Question
	}
	return out
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		want   []string
	}{
		{
			name:   "json5_document",
			format: FormatJSON,
			data: `{
				// comments and trailing commas are fine
				entries: [
					{question: "What are the school hours?", answer: "8 to 3"},
					{question: "How do I pay fees?", answer: "Online",},
				],
			}`,
			want: []string{"What are the school hours?", "How do I pay fees?"},
		},
		{
			name:   "json_bare_list",
			format: FormatJSON,
			data:   `[{"question": "Is there a uniform?", "answer": "Yes"}]`,
			want:   []string{"Is there a uniform?"},
		},
		{
			name:   "yaml_document",
			format: FormatYAML,
			data:   "---\nentries:\n  - question: What is the refund policy?\n    answer: Within 30 days\n    tags: [fees]\n",
			want:   []string{"What is the refund policy?"},
		},
		{
			name:   "yaml_bare_list",
			format: FormatYAML,
			data:   "- question: A?\n  answer: a\n- question: B?\n  answer: b\n",
			want:   []string{"A?", "B?"},
		},
		{
			name:   "empty",
			format: FormatJSON,
			data:   "  \n",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, questions(entries)); diff != "" {
				t.Errorf("questions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("{entries: [}"), FormatJSON); err == nil {
		t.Error("expected error for malformed json5")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"faq.yaml":  FormatYAML,
		"FAQ.YML":   FormatYAML,
		"faq.json5": FormatJSON,
		"faq.json":  FormatJSON,
		"faq":       FormatJSON,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFAQFileStoreCRUD(t *testing.T) {
	for _, name := range []string{"faq.json5", "faq.yaml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewFAQFileStore(filepath.Join(t.TempDir(), "kb", name))

			entries, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List on missing file: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("expected empty list, got %d", len(entries))
			}

			a := &store.FAQEntry{Question: "What are the school hours?", Answer: "8 to 3", Tags: []string{"schedule"}}
			b := &store.FAQEntry{Question: "How do I pay fees?", Answer: "Online", Category: "fees"}
			for _, e := range []*store.FAQEntry{a, b} {
				if err := s.Put(ctx, e); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}

			a.Answer = "8:00 to 15:00"
			if err := s.Put(ctx, a); err != nil {
				t.Fatalf("Put update: %v", err)
			}

			reopened := NewFAQFileStore(s.Path())
			entries, err = reopened.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if diff := cmp.Diff([]string{a.Question, b.Question}, questions(entries)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			got, err := reopened.Get(ctx, a.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Answer != "8:00 to 15:00" {
				t.Errorf("Answer = %q, want updated value", got.Answer)
			}
			if diff := cmp.Diff([]string{"schedule"}, got.Tags); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}

			if err := reopened.Delete(ctx, a.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := reopened.Delete(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("second Delete error = %v, want ErrNotFound", err)
			}
			if _, err := reopened.Get(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Get after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFAQFileStoreAssignsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json5")
	if err := os.WriteFile(path, []byte(`{entries: [{question: "Q1", answer: "A1"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := NewFAQFileStore(path).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected one entry with an assigned ID, got %+v", entries)
	}
}

func TestWriteFileAtomicLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq.json")
	if err := WriteFileAtomic(path, []byte("[]"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 1 || files[0].Name() != "faq.json" {
		t.Errorf("unexpected directory contents: %v", files)
	}
}

func TestFAQFileStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json5")
	s := NewFAQFileStore(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := s.Put(context.Background(), &store.FAQEntry{Question: "Q?", Answer: "A"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watch callback not invoked")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
