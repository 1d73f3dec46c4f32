// Package finance manages suppliers and their invoices.
package finance

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// Service manages suppliers and invoices in the record store.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a finance Service.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// Suppliers returns every supplier in id order.
func (s *Service) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	return store.List[model.Supplier](ctx, s.store, store.Suppliers)
}

// Supplier returns one supplier.
func (s *Service) Supplier(ctx context.Context, supplierID int64) (model.Supplier, error) {
	return store.Fetch[model.Supplier](ctx, s.store, store.Suppliers, supplierID)
}

// SaveSupplier validates and upserts a supplier.
func (s *Service) SaveSupplier(ctx context.Context, sup model.Supplier) (model.Supplier, error) {
	sup = normalizeSupplier(sup)
	if err := ValidateSupplier(sup); err != nil {
		return model.Supplier{}, err
	}
	sup.Timestamp = s.now().UTC()

	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		dupes, err := store.Where[model.Supplier](ctx, tx, store.Suppliers, "numeroProveedor", sup.Number)
		if err != nil {
			return err
		}
		for _, d := range dupes {
			if d.ID != sup.ID {
				return model.Invalid("numeroProveedor", "supplier %s already exists", sup.Number)
			}
		}
		if sup.ID != 0 {
			return tx.Update(ctx, store.Suppliers, sup.ID, sup)
		}
		newID, err := tx.Insert(ctx, store.Suppliers, sup)
		if err != nil {
			return err
		}
		sup.ID = newID
		return nil
	})
	if err != nil {
		return model.Supplier{}, err
	}
	s.log.Debug().Int64("supplier_id", sup.ID).Str("number", sup.Number).Msg("supplier saved")
	return sup, nil
}

// DeleteSupplier removes a supplier. Invoices keep their name snapshot.
func (s *Service) DeleteSupplier(ctx context.Context, supplierID int64) error {
	return s.store.Delete(ctx, store.Suppliers, supplierID)
}

// ValidateSupplier checks the required fields of a supplier.
func ValidateSupplier(sup model.Supplier) error {
	if !id.IsCode(sup.Number) {
		return model.Invalid("numeroProveedor", "must be 4 digits, got %q", sup.Number)
	}
	if sup.Name == "" {
		return model.Invalid("nombreProveedor", "is required")
	}
	if !sup.Classification.Valid() {
		return model.Invalid("clasificacion", "unknown classification %q", sup.Classification)
	}
	return nil
}

func normalizeSupplier(sup model.Supplier) model.Supplier {
	sup.Number = strings.TrimSpace(sup.Number)
	sup.Name = strings.TrimSpace(sup.Name)
	sup.Address = strings.TrimSpace(sup.Address)
	sup.ExternalCode = strings.TrimSpace(sup.ExternalCode)
	if sup.Classification == "" {
		sup.Classification = model.SupplierOther
	}
	return sup
}
