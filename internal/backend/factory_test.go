package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store/memory"
	"budget/internal/store/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{StoreBackend: "redis", NotifyBackend: "none"}
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for unknown store backend")
	}

	app = &config.Config{
		StoreBackend: "sqlite",
		SQLiteDBPath: "budget.db",
		StorageKey:   "k",
		CacheSize:    8,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Notify != NotifyNone || cfg.CacheSize != 8 || cfg.StorageKey != "k" {
		t.Fatalf("unexpected backend config: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp incomplete", Config{Type: MemoryBackend, Notify: NotifyAMQP, AMQPURL: "amqp://x"}, true},
		{"kafka without brokers", Config{Type: MemoryBackend, Notify: NotifyKafka}, true},
		{"kafka", Config{Type: MemoryBackend, Notify: NotifyKafka, KafkaBrokers: []string{"k:9092"}}, false},
		{"bad notify", Config{Type: MemoryBackend, Notify: "nats"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "k.json"), []byte(`[{"amount":"5"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir, StorageKey: "k"})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", res.Store)
	}
	v, ok, err := res.Store.Get(ctx, "k")
	if err != nil || !ok || v != `[{"amount":"5"}]` {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
}

func TestCreateBackend_SQLiteWithCache(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "budget.db")

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: dbPath,
		CacheSize:    4,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Store.(*cache.Store); !ok {
		t.Fatalf("expected *cache.Store, got %T", res.Store)
	}

	if err := res.Store.Set(ctx, "k", "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	// the write went through to disk
	repo, err := sqlite.NewRepository(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	v, ok, err := repo.Get(ctx, "k")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
}

func TestCreateBackend_KafkaWrapsNotifier(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{
		Type:         MemoryBackend,
		Notify:       NotifyKafka,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "ledger_saved",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*services.NotifyingStore); !ok {
		t.Fatalf("expected *services.NotifyingStore, got %T", res.Store)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" {
		t.Fatalf("GetBackendTypeStrings() = %v", got)
	}
}
