package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/auditlog"
	"github.com/cleared-dev/microerp/internal/config"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

func openTestApp(t *testing.T) *App {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default("Test SL")
	require.NoError(t, config.Save(filepath.Join(root, config.FileName), cfg))

	a, err := Open(context.Background(), root, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpenSeedsNewStore(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)

	info, err := a.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MicroERP_DB", info.Name)
	assert.Equal(t, 1, info.SchemaVersion)
	assert.Equal(t, 3, info.Counts[store.Accounts])
	assert.Equal(t, 1, info.Counts[store.Suppliers])
	assert.Equal(t, 1, info.Counts[store.Roles])
	assert.Equal(t, 1, info.Counts[store.Centers])
	assert.Zero(t, info.Counts[store.JournalEntries])

	idx, err := a.Accounts.Index(ctx)
	require.NoError(t, err)
	cash, ok := idx.ByCode("5700-0001")
	require.True(t, ok)
	assert.Equal(t, "Caja General", cash.Description)

	sups, err := a.Finance.Suppliers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Proveedor Tech SL", sups[0].Name)
	assert.Equal(t, model.SupplierMaterials, sups[0].Classification)
}

func TestSeedValidatesChart(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "seed.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	svc := accounts.NewService(st, zerolog.Nop())

	_, err = svc.Save(ctx, model.Account{Number: "5700", Subaccount: "0001", Description: "Caja previa"})
	require.NoError(t, err)

	err = Seed(ctx, st, svc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalid), "duplicate code must fail validation: %v", err)

	for _, c := range []store.Collection{store.Suppliers, store.Roles, store.Centers} {
		n, err := st.Count(ctx, c)
		require.NoError(t, err)
		assert.Zero(t, n, "%s must roll back with the chart", c)
	}
	n, err := st.Count(ctx, store.Accounts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeedStampsChart(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)

	accts, err := a.Accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 3)
	for _, acct := range accts {
		assert.False(t, acct.Timestamp.IsZero(), acct.Code())
		assert.True(t, acct.Classification.Valid(), acct.Code())
	}
}

func TestReopenDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)
	root, cfg := a.Root, a.Config
	require.NoError(t, a.Close())

	b, err := Open(ctx, root, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	n, err := b.Store.Count(ctx, store.Accounts)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSwitchPersistsChoice(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)

	require.NoError(t, a.Switch(ctx, "Empresa2"))
	info, err := a.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Empresa2", info.Name)
	assert.Equal(t, filepath.Join(a.Root, "data", "Empresa2.db"), info.Path)

	cfg, err := LoadConfig(a.Root)
	require.NoError(t, err)
	assert.Equal(t, "Empresa2", cfg.Store.Name)

	assert.Error(t, a.Switch(ctx, "../escape"))
	assert.NotNil(t, a.Store, "a rejected name keeps the current store open")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)

	_, err := a.Finance.SaveSupplier(ctx, model.Supplier{Number: "2000", Name: "Otro"})
	require.NoError(t, err)

	require.NoError(t, a.Reset(ctx))
	sups, err := a.Finance.Suppliers(ctx)
	require.NoError(t, err)
	require.Len(t, sups, 1)
	assert.Equal(t, "1000", sups[0].Number)
}

func TestCloseWritesAuditLog(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t)

	role, err := a.Admin.SaveRole(ctx, model.Role{Name: "Contable", Permissions: []string{"Contabilidad"}})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	entries, err := auditlog.Read(a.Root)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	found := false
	for _, e := range entries {
		assert.Equal(t, a.RunID, e.RunID)
		if e.Collection == store.Roles && e.RecordID == role.ID {
			found = true
			assert.Equal(t, store.OpInsert, e.Op)
		}
	}
	assert.True(t, found, "role insert should be audited")
}

func TestLoadConfigAppliesEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, config.Save(filepath.Join(root, config.FileName), config.Default("Env SL")))
	t.Setenv("MICROERP_STORE_NAME", "FromEnv")

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.Store.Name)

	_, err = LoadConfig(filepath.Join(root, "missing"))
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "missing"))
	assert.True(t, os.IsNotExist(statErr))
}
