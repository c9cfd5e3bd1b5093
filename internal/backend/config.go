package backend

import (
	"fmt"

	"budget/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.StoreBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}
	notify := NotifyType(appConfig.NotifyBackend)
	if notify == "" {
		notify = NotifyNone
	}
	if !notify.IsValid() {
		return Config{}, fmt.Errorf("invalid notify backend in config: %s", appConfig.NotifyBackend)
	}

	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDirectory,
		StorageKey:    appConfig.StorageKey,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		PostgresURL:   appConfig.PostgresURL,
		CacheSize:     appConfig.CacheSize,
		CacheTTL:      appConfig.CacheTTL,

		Notify:       notify,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		KafkaBrokers: appConfig.KafkaBrokers,
		KafkaTopic:   appConfig.KafkaTopic,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	case MemoryBackend:
		// nothing to check; DataDirectory is optional
	}

	if c.Notify != "" && !c.Notify.IsValid() {
		return fmt.Errorf("invalid notify type: %s", c.Notify)
	}
	switch c.Notify {
	case NotifyAMQP:
		if c.AMQPURL == "" || c.AMQPExchange == "" || c.AMQPQueue == "" {
			return fmt.Errorf("AMQP URL, exchange and queue are required for amqp notifications")
		}
	case NotifyKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("at least one Kafka broker is required for kafka notifications")
		}
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
