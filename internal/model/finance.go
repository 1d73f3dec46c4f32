package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierClassification categorizes suppliers.
type SupplierClassification string

const (
	SupplierSubcontractor SupplierClassification = "Subcontratista"
	SupplierMaterials     SupplierClassification = "Materiales"
	SupplierServices      SupplierClassification = "Servicios Generales"
	SupplierEngineering   SupplierClassification = "Ingenieria"
	SupplierOther         SupplierClassification = "Otro"
)

// SupplierClassifications lists every supplier classification.
var SupplierClassifications = []SupplierClassification{
	SupplierSubcontractor,
	SupplierMaterials,
	SupplierServices,
	SupplierEngineering,
	SupplierOther,
}

// Valid reports whether c is a known supplier classification.
func (c SupplierClassification) Valid() bool {
	for _, known := range SupplierClassifications {
		if c == known {
			return true
		}
	}
	return false
}

// Supplier is a master record for invoice issuers.
type Supplier struct {
	ID             int64                  `json:"id,omitempty"`
	Number         string                 `json:"numeroProveedor"` // 4 digits
	Name           string                 `json:"nombreProveedor"`
	Address        string                 `json:"direccionProveedor,omitempty"`
	ExternalCode   string                 `json:"codigoExterno,omitempty"`
	Classification SupplierClassification `json:"clasificacion"`
	Timestamp      time.Time              `json:"timestamp"`
}

// InvoiceDateLayout is the layout of Invoice.Date.
const InvoiceDateLayout = "2006-01-02"

// Invoice is a supplier invoice.
type Invoice struct {
	ID           int64           `json:"id,omitempty"`
	SupplierID   int64           `json:"supplierId"`
	SupplierName string          `json:"supplierName"` // snapshot taken when the invoice was recorded
	Number       string          `json:"numeroFactura"`
	Date         string          `json:"fechaFactura"`
	Description  string          `json:"descripcion,omitempty"`
	Amount       decimal.Decimal `json:"valor"`
	Timestamp    time.Time       `json:"timestamp"`
}
