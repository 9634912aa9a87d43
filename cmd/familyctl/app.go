package main

import (
	"context"
	"errors"
	"familycore/internal/blob"
	"familycore/internal/config"
	"familycore/internal/core"
	"familycore/internal/platform/logger"
	"familycore/internal/seed"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// app carries the resources shared by the subcommands. Stateless commands
// only need the config and logger; the store is opened on demand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configFile string
	quiet      bool

	cfg   config.Config
	log   *logger.Logger
	reg   *prometheus.Registry
	blobs blob.Store
	store *core.FamilyStore
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	if a.quiet {
		a.log = logger.NewNop()
		return nil
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// openStore wires the blob store, the storage backend and the family store
// and loads the seeds.
func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Blob.Enabled() {
		blobs, err := blob.Open(ctx, a.cfg.Blob)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		a.blobs = blobs
	}
	backend, err := core.OpenBackend(ctx, a.cfg.Storage, a.blobs)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.reg = prometheus.NewRegistry()
	store, err := core.NewFamilyStore(core.StoreOptions{
		Backend:    backend,
		Blobs:      a.blobs,
		Logger:     a.log,
		Metrics:    core.NewMetrics(a.reg),
		Debounce:   a.cfg.Debounce,
		MaxRetries: a.cfg.MaxRetries,
	})
	if err != nil {
		_ = backend.Close()
		return err
	}
	seeds, err := seed.Families()
	if err != nil {
		_ = backend.Close()
		return err
	}
	if err := store.Init(ctx, seeds); err != nil {
		_ = backend.Close()
		return err
	}
	a.store = store
	return nil
}

// closeStore flushes pending writes and releases the backend.
func (a *app) closeStore(ctx context.Context) error {
	var err error
	if a.store != nil {
		err = a.store.Shutdown(ctx)
		a.store = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
	return err
}

// withStore runs fn against an opened store and always closes it.
func (a *app) withStore(ctx context.Context, fn func(*core.FamilyStore) error) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	runErr := fn(a.store)
	return errors.Join(runErr, a.closeStore(ctx))
}
