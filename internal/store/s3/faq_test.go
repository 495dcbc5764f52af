package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/smithy-go"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no_such_key", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"not_found", fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{"access_denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewFAQStoreRequiresBucket(t *testing.T) {
	if _, err := NewFAQStore(context.Background(), Options{}); err == nil {
		t.Error("expected error without bucket")
	}
}

// Runs against a real bucket (or MinIO via FAQCLAW_TEST_S3_ENDPOINT).
func TestS3FAQStoreCRUD(t *testing.T) {
	bucket := os.Getenv("FAQCLAW_TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("FAQCLAW_TEST_S3_BUCKET not set")
	}
	ctx := context.Background()
	s, err := NewFAQStore(ctx, Options{
		Bucket:   bucket,
		Key:      fmt.Sprintf("faqclaw-test/%d.json", time.Now().UnixNano()),
		Region:   os.Getenv("FAQCLAW_TEST_S3_REGION"),
		Endpoint: os.Getenv("FAQCLAW_TEST_S3_ENDPOINT"),
	})
	if err != nil {
		t.Fatalf("NewFAQStore: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on missing object: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	e := &store.FAQEntry{Question: "Where is the library?", Answer: "Building B"}
	if err := s.Put(ctx, e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Answer != "Building B" {
		t.Errorf("Answer = %q", got.Answer)
	}
	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, e.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete missing error = %v, want ErrNotFound", err)
	}
}
