package app

import (
	"context"
	"time"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// Seed writes the starter records of a new store in one transaction. The
// default chart goes through the same validation as any account save.
func Seed(ctx context.Context, st *store.Store, accts *accounts.Service) error {
	now := time.Now().UTC()
	return st.InTx(ctx, func(tx *store.Tx) error {
		if _, err := accts.SaveAll(ctx, tx, accounts.DefaultChart()); err != nil {
			return err
		}
		seeds := []struct {
			c   store.Collection
			doc any
		}{
			{store.Suppliers, model.Supplier{
				Number:         "1000",
				Name:           "Proveedor Tech SL",
				Address:        "Calle Falsa 123",
				Classification: model.SupplierMaterials,
				Timestamp:      now,
			}},
			{store.Roles, model.Role{Name: "Administrador", Permissions: []string{model.PermissionAll}, Timestamp: now}},
			{store.Centers, model.Center{Name: "Sede Central", Type: model.CenterCentral, Timestamp: now}},
		}
		for _, s := range seeds {
			if _, err := tx.Insert(ctx, s.c, s.doc); err != nil {
				return err
			}
		}
		return nil
	})
}
