package store

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common fields for all stored records.
type BaseModel struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// GenNewID generates a new UUID v7 (time-ordered).
func GenNewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// FAQEntry is a stored question/answer pair. Category and Tags are metadata
// for pre-filtering and display; matching only looks at Question.
type FAQEntry struct {
	BaseModel `yaml:",inline"`
	Question  string   `json:"question" yaml:"question"`
	Answer    string   `json:"answer" yaml:"answer"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Source names a knowledge-base backend.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
	SourceS3       = "s3"
)

// KnownSources lists every backend accepted by StoreConfig.Source.
var KnownSources = []string{SourceFile, SourceSQLite, SourcePostgres, SourceRedis, SourceS3}

// StoreConfig configures the knowledge-base store.
type StoreConfig struct {
	// Source selects the backend (see KnownSources). Default: "file".
	Source string

	// Path is the FAQ document for the file source (.json, .json5, .yaml, .yml)
	// or the database file for the sqlite source.
	Path string

	// PostgresDSN is the Postgres connection string.
	PostgresDSN string

	// Pool sizing for the postgres source; zero takes the store defaults.
	PostgresMaxOpenConns    int
	PostgresMaxIdleConns    int
	PostgresConnMaxIdleTime time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	S3Bucket    string
	S3Key       string
	S3Region    string
	S3Endpoint  string // custom endpoint (MinIO, R2); implies path-style addressing
	S3AccessKey string
	S3SecretKey string
}
