package structure

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "structure.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, zerolog.Nop()), st
}

func TestService_OtherCenterUnderDelegation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	hq, err := svc.Save(ctx, model.Center{Name: "Sede Central", Type: model.CenterCentral})
	require.NoError(t, err)
	north, err := svc.Save(ctx, model.Center{Name: "Norte", Type: model.CenterDelegation, ParentID: hq.ID})
	require.NoError(t, err)
	shop, err := svc.Save(ctx, model.Center{Name: "Taller", Type: model.CenterOther, ParentID: north.ID})
	require.NoError(t, err)
	assert.NotZero(t, shop.ID)
	assert.False(t, shop.Timestamp.IsZero())

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "Taller", tree[0].Children[0].Children[0].Center.Name)
}

func TestService_RejectsLatticeViolation(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, err := svc.Save(ctx, model.Center{Name: "Norte", Type: model.CenterDelegation})
	assert.True(t, errors.Is(err, ErrParentRequired))

	hq, err := svc.Save(ctx, model.Center{Name: "Sede Central", Type: model.CenterCentral})
	require.NoError(t, err)
	_, err = svc.Save(ctx, model.Center{Name: "Bilbao", Type: model.CenterAssociated, ParentID: hq.ID})
	assert.True(t, errors.Is(err, ErrInvalidParentType))

	n, err := st.Count(ctx, store.Centers)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_UpdateAndUpsert(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	hq, err := svc.Save(ctx, model.Center{Name: "Sede", Type: model.CenterCentral})
	require.NoError(t, err)

	hq.Name = "  Sede Central  "
	updated, err := svc.Save(ctx, hq)
	require.NoError(t, err)
	assert.Equal(t, hq.ID, updated.ID)

	got, err := svc.Get(ctx, hq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sede Central", got.Name)

	// An unknown id is treated as a new record.
	fresh, err := svc.Save(ctx, model.Center{ID: 77, Name: "Almacén", Type: model.CenterOther})
	require.NoError(t, err)
	assert.NotEqual(t, int64(77), fresh.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	hq, err := svc.Save(ctx, model.Center{Name: "Sede Central", Type: model.CenterCentral})
	require.NoError(t, err)
	north, err := svc.Save(ctx, model.Center{Name: "Norte", Type: model.CenterDelegation, ParentID: hq.ID})
	require.NoError(t, err)

	err = svc.Delete(ctx, hq.ID)
	assert.True(t, errors.Is(err, ErrHasChildren))

	require.NoError(t, svc.Delete(ctx, north.ID))
	require.NoError(t, svc.Delete(ctx, hq.ID))

	err = svc.Delete(ctx, hq.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestService_Options(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	hq, err := svc.Save(ctx, model.Center{Name: "Sede Central", Type: model.CenterCentral})
	require.NoError(t, err)
	_, err = svc.Save(ctx, model.Center{Name: "Norte", Type: model.CenterDelegation, ParentID: hq.ID})
	require.NoError(t, err)

	opts, err := svc.Options(ctx, model.CenterAssociated)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Norte", opts[0].Name)

	_, err = svc.Options(ctx, "Sucursal")
	assert.True(t, errors.Is(err, ErrInvalidType))
}
