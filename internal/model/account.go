package model

import (
	"time"

	"github.com/cleared-dev/microerp/internal/id"
)

// Classification groups accounts in the accounting plan.
type Classification string

const (
	ClassificationAsset     Classification = "Activo"
	ClassificationLiability Classification = "Pasivo"
	ClassificationEquity    Classification = "Capital"
	ClassificationIncome    Classification = "Ingresos"
	ClassificationExpense   Classification = "Costes"
)

// Classifications lists every account classification in plan order.
var Classifications = []Classification{
	ClassificationAsset,
	ClassificationLiability,
	ClassificationEquity,
	ClassificationIncome,
	ClassificationExpense,
}

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	for _, known := range Classifications {
		if c == known {
			return true
		}
	}
	return false
}

// Account is one row of the accounting plan.
type Account struct {
	ID             int64          `json:"id,omitempty"`
	Number         string         `json:"cuenta"`    // 4 digits
	Subaccount     string         `json:"subcuenta"` // 4 digits, "0000" when unused
	Description    string         `json:"descripcion"`
	ExternalCode   string         `json:"codigoExterno,omitempty"`
	Classification Classification `json:"clasificacion"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Code returns the account code, e.g. "5700-0001".
func (a Account) Code() string {
	return id.FormatAccountCode(a.Number, a.Subaccount)
}

// Label returns the display label captured into journal lines.
// "5700-0001 Caja General"
func (a Account) Label() string {
	return a.Code() + " " + a.Description
}
