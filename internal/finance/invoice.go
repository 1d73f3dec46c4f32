package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// ErrUnknownSupplier is returned when an invoice names a supplier that does
// not exist.
var ErrUnknownSupplier = errors.New("unknown supplier")

// Invoices returns every invoice in id order.
func (s *Service) Invoices(ctx context.Context) ([]model.Invoice, error) {
	return store.List[model.Invoice](ctx, s.store, store.Invoices)
}

// InvoicesFor returns the invoices of one supplier.
func (s *Service) InvoicesFor(ctx context.Context, supplierID int64) ([]model.Invoice, error) {
	return store.Where[model.Invoice](ctx, s.store, store.Invoices, "supplierId", supplierID)
}

// RecordInvoice validates inv and stores it, copying the supplier's current
// name into the invoice.
func (s *Service) RecordInvoice(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	inv.Number = strings.TrimSpace(inv.Number)
	inv.Date = strings.TrimSpace(inv.Date)
	inv.Description = strings.TrimSpace(inv.Description)
	if err := ValidateInvoice(inv); err != nil {
		return model.Invoice{}, err
	}

	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		sup, err := store.Fetch[model.Supplier](ctx, tx, store.Suppliers, inv.SupplierID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("supplier %d: %w", inv.SupplierID, ErrUnknownSupplier)
		}
		if err != nil {
			return err
		}
		inv.SupplierName = sup.Name
		inv.Timestamp = s.now().UTC()
		newID, err := tx.Insert(ctx, store.Invoices, inv)
		if err != nil {
			return err
		}
		inv.ID = newID
		return nil
	})
	if err != nil {
		return model.Invoice{}, err
	}
	s.log.Debug().
		Int64("invoice_id", inv.ID).
		Int64("supplier_id", inv.SupplierID).
		Str("valor", inv.Amount.StringFixed(2)).
		Msg("invoice recorded")
	return inv, nil
}

// ValidateInvoice checks the required fields of an invoice.
func ValidateInvoice(inv model.Invoice) error {
	if inv.SupplierID <= 0 {
		return model.Invalid("supplierId", "is required")
	}
	if inv.Number == "" {
		return model.Invalid("numeroFactura", "is required")
	}
	if inv.Date == "" {
		return model.Invalid("fechaFactura", "is required")
	}
	if _, err := time.Parse(model.InvoiceDateLayout, inv.Date); err != nil {
		return model.Invalid("fechaFactura", "must be YYYY-MM-DD, got %q", inv.Date)
	}
	return nil
}
