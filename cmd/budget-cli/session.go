package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/term"
)

// session is one opened ledger plus what is needed to print and close it.
type session struct {
	ledger   *ledger.Ledger
	renderer *term.Renderer
	out      io.Writer
	cleanup  func() error
}

// openSession is replaced in tests.
var openSession = func(ctx context.Context) (*session, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// stdout carries the ledger; logs go to stderr
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: log.ParseLevel(cfg.LogLevel)}),
	})

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	r := term.NewRenderer()
	// every command exits right after, so an add that waited for a later
	// edit would be lost
	l := ledger.New(res.Store, r,
		ledger.WithStorageKey(cfg.StorageKey),
		ledger.WithPersistOnAdd(true),
		ledger.WithLogger(logger),
	)
	if err := l.Initialize(ctx, cfg.RenderStyle); err != nil {
		res.Cleanup()
		return nil, err
	}
	return &session{ledger: l, renderer: r, out: os.Stdout, cleanup: res.Cleanup}, nil
}

func (s *session) Close() error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup()
}

func (s *session) print() error {
	return s.renderer.Flush(s.out)
}

// rowAt maps a 1-based display position to its row handle.
func (s *session) rowAt(pos string) (ledger.RowRef, error) {
	n, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("row %q: not a number", pos)
	}
	rows := s.ledger.Rows()
	if n < 1 || n > len(rows) {
		return 0, fmt.Errorf("row %d: %w (ledger has %d rows)", n, ledger.ErrRowNotFound, len(rows))
	}
	return rows[n-1].Ref, nil
}
