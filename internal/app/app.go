// Package app wires configuration, logging, the record store and the
// domain services of one workspace.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/admin"
	"github.com/cleared-dev/microerp/internal/auditlog"
	"github.com/cleared-dev/microerp/internal/config"
	"github.com/cleared-dev/microerp/internal/finance"
	"github.com/cleared-dev/microerp/internal/journal"
	"github.com/cleared-dev/microerp/internal/store"
	"github.com/cleared-dev/microerp/internal/structure"
)

// App is an open workspace. It owns the store; services are rebuilt
// whenever the store is switched or reset.
type App struct {
	Root   string
	Config *config.Config
	Log    zerolog.Logger
	RunID  string

	Store     *store.Store
	Accounts  *accounts.Service
	Journal   *journal.Service
	Structure *structure.Service
	Finance   *finance.Service
	Admin     *admin.Service

	audit *auditlog.Recorder
}

// LoadConfig reads <root>/microerp.yaml and applies environment overrides.
func LoadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open opens the store selected by cfg, seeding it when it is new.
func Open(ctx context.Context, root string, cfg *config.Config, log zerolog.Logger) (*App, error) {
	runID := uuid.NewString()
	a := &App{
		Root:   root,
		Config: cfg,
		Log:    log.With().Str("run_id", runID).Logger(),
		RunID:  runID,
	}
	if err := a.open(ctx, cfg.Store.Name); err != nil {
		return nil, err
	}
	return a, nil
}

// StorePath returns the database file of store name.
func (a *App) StorePath(name string) (string, error) {
	dir := a.Config.Store.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.Root, dir)
	}
	return store.PathFor(dir, name)
}

func (a *App) open(ctx context.Context, name string) error {
	path, err := a.StorePath(name)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	st, err := store.Open(ctx, path, a.Log)
	if err != nil {
		return fmt.Errorf("opening store %s: %w", name, err)
	}
	a.bind(st)

	if fresh {
		if err := Seed(ctx, st, a.Accounts); err != nil {
			_ = a.close()
			return fmt.Errorf("seeding store %s: %w", name, err)
		}
		a.Log.Info().Str("store", name).Msg("new store created")
	}
	return nil
}

func (a *App) bind(st *store.Store) {
	a.Store = st
	a.Accounts = accounts.NewService(st, a.Log)
	a.Journal = journal.NewService(st, a.Log)
	a.Structure = structure.NewService(st, a.Log)
	a.Finance = finance.NewService(st, a.Log)
	a.Admin = admin.NewService(st, a.Log)
	a.audit = auditlog.Start(st, a.Root, a.RunID)
}

// Switch closes the current store and opens store name, remembering the
// choice in the workspace config.
func (a *App) Switch(ctx context.Context, name string) error {
	if _, err := a.StorePath(name); err != nil {
		return err
	}
	if err := a.close(); err != nil {
		return err
	}
	if err := a.open(ctx, name); err != nil {
		return err
	}
	a.Config.Store.Name = name
	if err := config.Save(filepath.Join(a.Root, config.FileName), a.Config); err != nil {
		return err
	}
	a.Log.Info().Str("store", name).Msg("store switched")
	return nil
}

// Reset deletes the current store file and reopens it freshly seeded.
func (a *App) Reset(ctx context.Context) error {
	path := a.Store.Path()
	if err := a.close(); err != nil {
		return err
	}
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	if err := a.open(ctx, a.Config.Store.Name); err != nil {
		return err
	}
	a.Log.Info().Str("store", a.Config.Store.Name).Msg("store reset")
	return nil
}

// Info describes the open store.
type Info struct {
	Name          string
	Path          string
	SchemaVersion int
	Counts        map[store.Collection]int
}

// Info reports the store name, schema version and record counts.
func (a *App) Info(ctx context.Context) (Info, error) {
	version, err := a.Store.SchemaVersion(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Name:          a.Config.Store.Name,
		Path:          a.Store.Path(),
		SchemaVersion: version,
		Counts:        make(map[store.Collection]int, len(store.Collections)),
	}
	for _, c := range store.Collections {
		n, err := a.Store.Count(ctx, c)
		if err != nil {
			return Info{}, err
		}
		info.Counts[c] = n
	}
	return info, nil
}

// Close flushes the audit log and closes the store.
func (a *App) Close() error {
	return a.close()
}

func (a *App) close() error {
	var errs []error
	if a.audit != nil {
		n, err := a.audit.Stop()
		if err != nil {
			errs = append(errs, fmt.Errorf("writing audit log: %w", err))
		} else if n > 0 {
			a.Log.Debug().Int("entries", n).Msg("audit log written")
		}
		a.audit = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
		a.Store = nil
	}
	return errors.Join(errs...)
}
