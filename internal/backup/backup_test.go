package backup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
	"github.com/cleared-dev/microerp/internal/structure"
)

func openStore(t *testing.T, name string) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), name+".db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	cash, err := st.Insert(ctx, store.Accounts, model.Account{Number: "5700", Subaccount: "0001", Description: "Caja General", Classification: model.ClassificationAsset, Timestamp: ts})
	require.NoError(t, err)
	sales, err := st.Insert(ctx, store.Accounts, model.Account{Number: "7000", Subaccount: "0000", Description: "Ventas", Classification: model.ClassificationIncome, Timestamp: ts})
	require.NoError(t, err)
	_, err = st.Insert(ctx, store.JournalEntries, model.JournalEntry{
		Timestamp: ts,
		Lines: []model.JournalLine{
			{AccountID: cash, AccountLabel: "5700-0001 Caja General", Amount: decimal.RequireFromString("100.00")},
			{AccountID: sales, AccountLabel: "7000-0000 Ventas", Amount: decimal.RequireFromString("-100.00")},
		},
		TotalDebit:  decimal.RequireFromString("100.00"),
		TotalCredit: decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	sup, err := st.Insert(ctx, store.Suppliers, model.Supplier{Number: "1000", Name: "Proveedor Tech SL", Classification: model.SupplierMaterials, Timestamp: ts})
	require.NoError(t, err)
	_, err = st.Insert(ctx, store.Invoices, model.Invoice{SupplierID: sup, SupplierName: "Proveedor Tech SL", Number: "F-1", Date: "2025-01-02", Amount: decimal.RequireFromString("50.5"), Timestamp: ts})
	require.NoError(t, err)
	hq, err := st.Insert(ctx, store.Centers, model.Center{Name: "Sede Central", Type: model.CenterCentral, Timestamp: ts})
	require.NoError(t, err)
	_, err = st.Insert(ctx, store.Centers, model.Center{Name: "Norte", Type: model.CenterDelegation, ParentID: hq, Timestamp: ts})
	require.NoError(t, err)
	role, err := st.Insert(ctx, store.Roles, model.Role{Name: "Administrador", Permissions: []string{"*"}, Timestamp: ts})
	require.NoError(t, err)
	_, err = st.Insert(ctx, store.Users, model.User{Username: "ana", Email: "ana@example.com", RoleID: role, Timestamp: ts})
	require.NoError(t, err)

	// Leave a gap in the account ids so the round trip must preserve them.
	require.NoError(t, st.Delete(ctx, store.Accounts, cash))
}

func TestExportShape(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "src")
	seed(t, st)

	var buf bytes.Buffer
	counts, err := Export(ctx, st, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.Accounts])
	assert.Equal(t, 2, counts[store.Centers])
	assert.Equal(t, 8, counts.Total())

	doc := gjson.ParseBytes(buf.Bytes())
	var keys []string
	doc.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, []string{"accounts", "journalEntries", "suppliers", "invoices", "centers", "users", "roles"}, keys)
	assert.Equal(t, int64(2), doc.Get("accounts.0.id").Int())
	assert.Equal(t, "100", doc.Get("journalEntries.0.totalDebit").String())
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"accounts\": ["))
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(context.Background(), openStore(t, "empty"), &buf)
	require.NoError(t, err)
	for _, c := range store.Collections {
		v := gjson.GetBytes(buf.Bytes(), string(c))
		assert.True(t, v.IsArray(), c)
		assert.Empty(t, v.Array(), c)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, "src")
	seed(t, src)

	var first bytes.Buffer
	_, err := Export(ctx, src, &first)
	require.NoError(t, err)

	dst := openStore(t, "dst")
	counts, err := Import(ctx, dst, bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, counts.Total())

	var second bytes.Buffer
	_, err = Export(ctx, dst, &second)
	require.NoError(t, err)
	assert.JSONEq(t, first.String(), second.String())

	for _, c := range store.Collections {
		want, err := src.All(ctx, c)
		require.NoError(t, err)
		got, err := dst.All(ctx, c)
		require.NoError(t, err)
		require.Len(t, got, len(want), c)
		for i := range want {
			assert.JSONEq(t, string(want[i]), string(got[i]))
		}
	}
}

func TestImportUpsertsOverExisting(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "st")
	id, err := st.Insert(ctx, store.Roles, model.Role{Name: "Viejo", Permissions: []string{}})
	require.NoError(t, err)

	doc := `{"roles":[{"id":1,"name":"Nuevo","permissions":["*"]},{"name":"Sin id","permissions":[]}],"extra":{"ignored":true}}`
	counts, err := Import(ctx, st, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[store.Roles])

	role, err := store.Fetch[model.Role](ctx, st, store.Roles, id)
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", role.Name)

	n, err := st.Count(ctx, store.Roles)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportAcceptsNumericAmounts(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "st")

	doc := `{"invoices":[{"id":3,"supplierId":1,"supplierName":"X","numeroFactura":"F","fechaFactura":"2025-01-01","valor":12.5}]}`
	_, err := Import(ctx, st, strings.NewReader(doc))
	require.NoError(t, err)

	inv, err := store.Fetch[model.Invoice](ctx, st, store.Invoices, 3)
	require.NoError(t, err)
	assert.True(t, inv.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestImportMalformedLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"accounts": [`},
		{"top-level array", `[]`},
		{"collection not array", `{"accounts": {"id": 1}}`},
		{"record not object", `{"roles": [1, 2]}`},
		{"bad id", `{"roles": [{"id": -4, "name": "x"}]}`},
		{"fractional id", `{"roles": [{"id": 1.5, "name": "x"}]}`},
		{"schema mismatch", `{"roles": [{"name": "ok", "permissions": []}], "centers": [{"name": 7}]}`},
		{"bad decimal", `{"invoices": [{"valor": "doce"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := openStore(t, "st")
			seed(t, st)

			var before bytes.Buffer
			_, err := Export(ctx, st, &before)
			require.NoError(t, err)

			_, err = Import(ctx, st, strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)

			var after bytes.Buffer
			_, err = Export(ctx, st, &after)
			require.NoError(t, err)
			assert.JSONEq(t, before.String(), after.String())
		})
	}
}

func TestImportRollsBackWrittenCollections(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "st")
	seed(t, st)

	var before bytes.Buffer
	_, err := Export(ctx, st, &before)
	require.NoError(t, err)

	// Accounts and suppliers are written before the centers fail the
	// hierarchy check; the whole transaction must roll back.
	doc := `{
		"accounts": [{"id": 50, "cuenta": "6000", "subcuenta": "0000", "descripcion": "Compras", "clasificacion": "Costes"}],
		"suppliers": [{"id": 1, "numeroProveedor": "1000", "nombreProveedor": "Renombrado", "clasificacion": "Otro"}],
		"centers": [{"id": 7, "name": "Asociado", "type": "Centro_Asociado", "parentId": 1}]
	}`
	_, err = Import(ctx, st, strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
	assert.True(t, errors.Is(err, structure.ErrInvalidParentType), "got %v", err)

	var after bytes.Buffer
	_, err = Export(ctx, st, &after)
	require.NoError(t, err)
	assert.JSONEq(t, before.String(), after.String())

	_, err = store.Fetch[model.Account](ctx, st, store.Accounts, 50)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestImportCentersJoinExistingHierarchy(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "st")
	seed(t, st)

	// Delegacion 2 already exists, so the associated center may hang from it.
	doc := `{"centers": [{"id": 9, "name": "Asociado", "type": "Centro_Asociado", "parentId": 2}]}`
	_, err := Import(ctx, st, strings.NewReader(doc))
	require.NoError(t, err)

	c, err := store.Fetch[model.Center](ctx, st, store.Centers, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ParentID)

	orphan := `{"centers": [{"id": 10, "name": "Sin padre", "type": "Delegacion"}]}`
	_, err = Import(ctx, st, strings.NewReader(orphan))
	assert.True(t, errors.Is(err, structure.ErrParentRequired), "got %v", err)
}

func TestDefaultFileName(t *testing.T) {
	assert.Equal(t, "MicroERP_Backup_2025-03-09.json", DefaultFileName(time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)))
}
