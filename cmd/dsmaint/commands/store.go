package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dsmaint/pkg/config"
	"github.com/Sumatoshi-tech/dsmaint/pkg/persist"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record/pebblestore"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record/sqlstore"
)

// Store flag names.
const (
	flagStoreBackend = "store-backend"
	flagStorePath    = "store-path"
	flagFixture      = "fixture"
)

// ErrEphemeralStore is returned when a command needs a persistent store.
var ErrEphemeralStore = errors.New("command needs a persistent store backend (pebble or sqlite)")

type storeFlags struct {
	backend string
	path    string
	fixture string
}

func (sf *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.backend, flagStoreBackend, "",
		"Record store backend: memory, pebble, sqlite (overrides store.backend)")
	cmd.Flags().StringVar(&sf.path, flagStorePath, "", "Record store location (overrides store.path)")
	cmd.Flags().StringVar(&sf.fixture, flagFixture, "",
		"Seed the store from a fixture file (.json, .yaml, optionally .lz4)")
}

// apply copies explicitly set flags over cfg and revalidates it.
func (sf *storeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed(flagStoreBackend) {
		cfg.Store.Backend = sf.backend
	}

	if cmd.Flags().Changed(flagStorePath) {
		cfg.Store.Path = sf.path
	}

	if cmd.Flags().Changed(flagFixture) {
		cfg.Store.Fixture = sf.fixture
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// openStore opens the configured backend and seeds it from the configured
// fixture, if any.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (record.Store, error) {
	var (
		store record.Store
		err   error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		store = record.NewMemoryStore()
	case config.BackendPebble:
		store, err = pebblestore.Open(cfg.Path, pebblestore.Options{})
	case config.BackendSQLite:
		store, err = sqlstore.Open(cfg.Path)
	default:
		err = fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}

	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "store opened", "backend", cfg.Backend, "path", cfg.Path)

	if cfg.Fixture == "" {
		return store, nil
	}

	seedErr := seedStore(ctx, store, cfg.Fixture, logger)
	if seedErr != nil {
		return nil, errors.Join(seedErr, store.Close())
	}

	return store, nil
}

func seedStore(ctx context.Context, store record.Store, fixture string, logger *slog.Logger) error {
	records, err := persist.LoadRecords(fixture)
	if err != nil {
		return err
	}

	putErr := store.Put(ctx, records...)
	if putErr != nil {
		return fmt.Errorf("seed store from %s: %w", fixture, putErr)
	}

	logger.InfoContext(ctx, "store seeded", "fixture", fixture, "records", len(records))

	return nil
}

func requirePersistent(cfg config.StoreConfig) error {
	if cfg.Backend == config.BackendMemory {
		return ErrEphemeralStore
	}

	return nil
}
