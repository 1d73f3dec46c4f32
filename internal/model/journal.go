package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLine is one side of a journal entry. Positive amounts are debits,
// negative amounts are credits.
type JournalLine struct {
	AccountID    int64           `json:"accountId"`
	AccountLabel string          `json:"accountLabel"` // snapshot taken when the entry was posted
	Description  string          `json:"descripcion"`
	Amount       decimal.Decimal `json:"valor"`
}

// JournalEntry is a balanced set of lines recorded as one transaction.
// Entries are immutable once stored.
type JournalEntry struct {
	ID          int64           `json:"id,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Lines       []JournalLine   `json:"lines"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
}
