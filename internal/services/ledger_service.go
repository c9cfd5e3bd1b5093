package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	"budget/internal/events"
	"budget/internal/log"
	"budget/internal/store"
)

// Publisher delivers ledger saved notifications to a broker.
type Publisher interface {
	PublishLedgerSaved(ctx context.Context, msg *events.LedgerSavedMessage) error
}

// NotifyingStore is a Store that announces every successful write. The
// write always lands first; a publish failure is logged and never fails
// the save.
type NotifyingStore struct {
	next           store.Store
	publisher      Publisher
	logger         *log.Logger
	publishTimeout time.Duration
}

// DefaultPublishTimeout bounds each publish. Set runs inside the ledger's
// lock, so a stalled broker must not hold up every mutation.
const DefaultPublishTimeout = 2 * time.Second

func NewNotifyingStore(next store.Store, publisher Publisher) *NotifyingStore {
	return &NotifyingStore{
		next:      next,
		publisher:      publisher,
		logger:         log.Default(log.ComponentLedger),
		publishTimeout: DefaultPublishTimeout,
	}
}

func (s *NotifyingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.next.Get(ctx, key)
}

func (s *NotifyingStore) Set(ctx context.Context, key, value string) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		return err
	}

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Publisher not available, skipping ledger saved message")
		return nil
	}

	if err := s.publish(ctx, key, value); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger saved message",
			log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
	return nil
}

func (s *NotifyingStore) publish(ctx context.Context, key, value string) error {
	entries, err := core.DecodeEntries(value)
	if err != nil {
		return fmt.Errorf("decode saved ledger: %w", err)
	}
	sum := core.Summarize(entries)
	msg := events.NewLedgerSavedMessage(key, len(entries), sum.Total, value)

	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	return s.publisher.PublishLedgerSaved(ctx, msg)
}

// Close closes the wrapped store and the publisher when they hold
// resources.
func (s *NotifyingStore) Close() error {
	var errs []error
	if c, ok := s.next.(store.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.publisher.(store.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
