package backend

import (
	"context"
	"time"

	"budget/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the assembled store and the function releasing
// everything behind it.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory specific; an empty directory starts with no stored ledger
	DataDirectory string
	StorageKey    string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Read cache; CacheSize 0 disables it
	CacheSize int
	CacheTTL  time.Duration

	// Save notifications
	Notify       NotifyType
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	KafkaBrokers []string
	KafkaTopic   string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// NotifyType selects where save notifications go.
type NotifyType string

const (
	NotifyNone  NotifyType = "none"
	NotifyAMQP  NotifyType = "amqp"
	NotifyKafka NotifyType = "kafka"
)

func (nt NotifyType) IsValid() bool {
	switch nt {
	case NotifyNone, NotifyAMQP, NotifyKafka:
		return true
	default:
		return false
	}
}
