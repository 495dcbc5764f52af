// Package s3 reads and writes the knowledge base as a single object in an
// S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/internal/store/file"
)

// DefaultKey is the object key used when none is configured.
const DefaultKey = "faqclaw/faq.json"

// Options configures the bucket and credentials. Static keys are optional;
// the default AWS credential chain is used when they are empty.
type Options struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// FAQStore implements store.FAQStore over one object. The object format
// follows the key extension (.yaml/.yml or JSON5).
type FAQStore struct {
	client *awss3.Client
	bucket string
	key    string
	format file.Format
	mu     sync.Mutex
}

// NewFAQStore loads AWS configuration and builds the client.
func NewFAQStore(ctx context.Context, opts Options) (*FAQStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	slog.Info("faq s3 store configured", "bucket", opts.Bucket, "key", opts.Key)
	return &FAQStore{
		client: client,
		bucket: opts.Bucket,
		key:    opts.Key,
		format: file.FormatFromPath(opts.Key),
	}, nil
}

func (s *FAQStore) List(ctx context.Context) ([]store.FAQEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
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

// Put rewrites the whole object. Concurrent writers from other processes
// are not coordinated; last upload wins.
func (s *FAQStore) Put(ctx context.Context, e *store.FAQEntry) error {
	if err := store.PrepareForPut(e, store.Now()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, store.UpsertEntry(entries, *e))
}

func (s *FAQStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return err
	}
	entries, ok := store.RemoveEntry(entries, id)
	if !ok {
		return store.ErrNotFound
	}
	return s.save(ctx, entries)
}

func (s *FAQStore) Close() error { return nil }

func (s *FAQStore) load(ctx context.Context) ([]store.FAQEntry, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := manager.NewDownloader(s.client).Download(ctx, buf, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", s.bucket, s.key, err)
	}
	entries, err := file.Decode(buf.Bytes(), s.format)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, err)
	}
	store.EnsureIDs(entries)
	return entries, nil
}

func (s *FAQStore) save(ctx context.Context, entries []store.FAQEntry) error {
	data, err := file.Encode(entries, s.format)
	if err != nil {
		return err
	}
	contentType := "application/json"
	if s.format == file.FormatYAML {
		contentType = "application/yaml"
	}
	_, err = manager.NewUploader(s.client).Upload(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
