package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type center struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID int64  `json:"parentId,omitempty"`
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "", zerolog.Nop())
	require.Error(t, err)
}

func TestOpenTwiceKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "reopen.db")

	st, err := Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	_, err = st.Insert(ctx, Roles, map[string]any{"name": "Administrador"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Count(ctx, Roles)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	version, err := st.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	id, err := st.Insert(ctx, Centers, center{ID: 99, Name: "Sede Central", Type: "Central"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "insert ignores the id carried by the document")

	got, err := Fetch[center](ctx, st, Centers, id)
	require.NoError(t, err)
	assert.Equal(t, center{ID: 1, Name: "Sede Central", Type: "Central"}, got)
}

func TestGetNotFound(t *testing.T) {
	st := openTempStore(t)
	_, err := st.Get(context.Background(), Accounts, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	id, err := st.Insert(ctx, Centers, center{Name: "Norte", Type: "Delegacion"})
	require.NoError(t, err)

	require.NoError(t, st.Update(ctx, Centers, id, center{Name: "Norte II", Type: "Delegacion"}))
	got, err := Fetch[center](ctx, st, Centers, id)
	require.NoError(t, err)
	assert.Equal(t, "Norte II", got.Name)

	err = st.Update(ctx, Centers, id+1, center{Name: "ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, st.Delete(ctx, Centers, id))
	err = st.Delete(ctx, Centers, id)
	assert.True(t, errors.Is(err, ErrNotFound))

	n, err := st.Count(ctx, Centers)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPutUpserts(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	id, err := st.Put(ctx, Centers, center{ID: 10, Name: "Ten", Type: "Central"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	_, err = st.Put(ctx, Centers, center{ID: 10, Name: "Ten bis", Type: "Central"})
	require.NoError(t, err)

	newID, err := st.Put(ctx, Centers, center{Name: "Generated", Type: "Central"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), newID, "generated ids continue after explicit ones")

	all, err := List[center](ctx, st, Centers)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ten bis", all[0].Name)
	assert.Equal(t, "Generated", all[1].Name)
}

func TestBulkPut(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	docs := []json.RawMessage{
		json.RawMessage(`{"id":3,"name":"Tres","type":"Central"}`),
		json.RawMessage(`{"name":"Sin id","type":"Central"}`),
	}
	require.NoError(t, st.BulkPut(ctx, Centers, docs))

	all, err := List[center](ctx, st, Centers)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(4), all[1].ID)

	err = st.BulkPut(ctx, Centers, []json.RawMessage{json.RawMessage(`{"id":"x"}`)})
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	root, err := st.Insert(ctx, Centers, center{Name: "Central", Type: "Central"})
	require.NoError(t, err)
	_, err = st.Insert(ctx, Centers, center{Name: "Norte", Type: "Delegacion", ParentID: root})
	require.NoError(t, err)
	_, err = st.Insert(ctx, Centers, center{Name: "Sur", Type: "Delegacion", ParentID: root})
	require.NoError(t, err)

	children, err := Where[center](ctx, st, Centers, "parentId", root)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Norte", children[0].Name)

	_, err = st.Find(ctx, Centers, "parentId') OR 1=1 --", root)
	require.Error(t, err)
}

func TestUnknownCollection(t *testing.T) {
	st := openTempStore(t)
	_, err := st.All(context.Background(), Collection("sqlite_master"))
	require.Error(t, err)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)
	boom := errors.New("boom")

	err := st.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.Insert(ctx, Roles, map[string]any{"name": "A"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := st.Count(ctx, Roles)
	require.NoError(t, err)
	assert.Zero(t, n, "rolled back insert must not persist")
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	err := st.InTx(ctx, func(tx *Tx) error {
		for _, name := range []string{"A", "B"} {
			if _, err := tx.Insert(ctx, Roles, map[string]any{"name": name}); err != nil {
				return err
			}
		}
		n, err := tx.Count(ctx, Roles)
		require.NoError(t, err)
		assert.Equal(t, 2, n, "reads inside the transaction see its writes")
		return nil
	})
	require.NoError(t, err)

	n, err := st.Count(ctx, Roles)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSubscribeAfterCommit(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	changes, cancel := st.Subscribe(Roles, 8)
	defer cancel()

	id, err := st.Insert(ctx, Roles, map[string]any{"name": "A"})
	require.NoError(t, err)
	assert.Equal(t, Change{Collection: Roles, Op: OpInsert, ID: id}, <-changes)

	_ = st.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Insert(ctx, Roles, map[string]any{"name": "B"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	select {
	case c := <-changes:
		t.Fatalf("unexpected change from rolled back transaction: %+v", c)
	default:
	}

	err = st.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Put(ctx, Roles, map[string]any{"id": 5, "name": "C"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, Change{Collection: Roles, Op: OpPut, ID: 5}, <-changes)
}

func TestSubscribeOtherCollectionsIgnored(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	changes, cancel := st.Subscribe(Users, 1)
	defer cancel()

	_, err := st.Insert(ctx, Roles, map[string]any{"name": "A"})
	require.NoError(t, err)

	select {
	case c := <-changes:
		t.Fatalf("unexpected change: %+v", c)
	default:
	}
}

func TestSubscribeFullBufferDrops(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	changes, cancel := st.Subscribe(Roles, 1)
	defer cancel()

	for _, name := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, Roles, map[string]any{"name": name})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), (<-changes).ID)
	select {
	case c := <-changes:
		t.Fatalf("expected dropped changes, got %+v", c)
	default:
	}
}

func TestWatchSeesEveryCommittedChange(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t)

	var seen []Change
	stop := st.Watch(func(c Change) { seen = append(seen, c) })

	err := st.InTx(ctx, func(tx *Tx) error {
		for _, name := range []string{"A", "B", "C"} {
			if _, err := tx.Insert(ctx, Roles, map[string]any{"name": name}); err != nil {
				return err
			}
		}
		_, err := tx.Insert(ctx, Centers, map[string]any{"name": "HQ"})
		return err
	})
	require.NoError(t, err)
	_ = st.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Insert(ctx, Roles, map[string]any{"name": "D"})
		require.NoError(t, err)
		return errors.New("abort")
	})

	assert.Equal(t, []Change{
		{Collection: Roles, Op: OpInsert, ID: 1},
		{Collection: Roles, Op: OpInsert, ID: 2},
		{Collection: Roles, Op: OpInsert, ID: 3},
		{Collection: Centers, Op: OpInsert, ID: 1},
	}, seen)

	stop()
	_, err = st.Insert(ctx, Roles, map[string]any{"name": "E"})
	require.NoError(t, err)
	assert.Len(t, seen, 4)
}

func TestCancelAndCloseCloseChannels(t *testing.T) {
	st := openTempStore(t)

	first, cancel := st.Subscribe(Accounts, 1)
	cancel()
	cancel()
	_, open := <-first
	assert.False(t, open)

	second, _ := st.Subscribe(Accounts, 1)
	require.NoError(t, st.Close())
	_, open = <-second
	assert.False(t, open)
}

func TestDocID(t *testing.T) {
	tests := []struct {
		doc     string
		want    int64
		wantErr bool
	}{
		{`{"id":4,"name":"x"}`, 4, false},
		{`{"name":"x"}`, 0, false},
		{`{"id":null}`, 0, false},
		{`{"id":0}`, 0, true},
		{`{"id":-1}`, 0, true},
		{`{"id":1.5}`, 0, true},
		{`{"id":"4"}`, 0, true},
		{`[1,2]`, 0, true},
		{`{"id":`, 0, true},
	}
	for _, tt := range tests {
		got, err := DocID([]byte(tt.doc))
		if tt.wantErr {
			assert.Error(t, err, "DocID(%s)", tt.doc)
			continue
		}
		require.NoError(t, err, "DocID(%s)", tt.doc)
		assert.Equal(t, tt.want, got)
	}
}

func TestPathFor(t *testing.T) {
	path, err := PathFor("data", "MicroERP_DB")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "MicroERP_DB.db"), path)

	for _, bad := range []string{"", "  ", "../x", `a\b`, ".."} {
		_, err := PathFor("data", bad)
		assert.Error(t, err, "PathFor(%q)", bad)
	}
}
