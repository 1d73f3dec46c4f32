// Package report builds bookkeeping reports and renders them as markdown.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/microerp/internal/journal"
	"github.com/cleared-dev/microerp/internal/model"
)

// Row is one account of a trial balance.
type Row struct {
	AccountID int64
	Label     string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Balance returns debit minus credit.
func (r Row) Balance() decimal.Decimal {
	return r.Debit.Sub(r.Credit)
}

// TrialBalance is the per-account sum of every journal line.
type TrialBalance struct {
	Rows        []Row
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// NewTrialBalance sums entries per account. Accounts without lines are
// left out. Lines whose account no longer exists are listed under their
// snapshot label. Rows are sorted by label, which starts with the code.
func NewTrialBalance(accounts []model.Account, entries []model.JournalEntry) TrialBalance {
	labels := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		labels[a.ID] = a.Label()
	}

	rows := make(map[int64]*Row)
	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, e := range entries {
		debit, credit := journal.Totals(e.Lines)
		tb.TotalDebit = tb.TotalDebit.Add(debit)
		tb.TotalCredit = tb.TotalCredit.Add(credit)
		for _, l := range e.Lines {
			r, ok := rows[l.AccountID]
			if !ok {
				label, known := labels[l.AccountID]
				if !known {
					label = l.AccountLabel
				}
				r = &Row{AccountID: l.AccountID, Label: label, Debit: decimal.Zero, Credit: decimal.Zero}
				rows[l.AccountID] = r
			}
			if l.Amount.IsPositive() {
				r.Debit = r.Debit.Add(l.Amount)
			} else {
				r.Credit = r.Credit.Sub(l.Amount)
			}
		}
	}

	for _, r := range rows {
		tb.Rows = append(tb.Rows, *r)
	}
	sort.Slice(tb.Rows, func(i, j int) bool {
		if tb.Rows[i].Label == tb.Rows[j].Label {
			return tb.Rows[i].AccountID < tb.Rows[j].AccountID
		}
		return tb.Rows[i].Label < tb.Rows[j].Label
	})
	return tb
}

// Check nets every row the way a journal entry is checked, so a ledger
// that drifted out of balance is reported with the same tolerance.
func (tb TrialBalance) Check() journal.Balance {
	lines := make([]journal.Line, len(tb.Rows))
	for i, r := range tb.Rows {
		lines[i] = journal.Line{AccountID: r.AccountID, Amount: decimal.NewNullDecimal(r.Balance())}
	}
	return journal.ComputeBalance(lines)
}

// Markdown renders the trial balance as a markdown table.
func (tb TrialBalance) Markdown(title, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(tb.Rows) == 0 {
		b.WriteString("_No journal entries._\n")
		return b.String()
	}
	b.WriteString("| Account | Debit | Credit | Balance |\n")
	b.WriteString("|---|--:|--:|--:|\n")
	for _, r := range tb.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(r.Label),
			FormatMoney(r.Debit, currency),
			FormatMoney(r.Credit, currency),
			FormatMoney(r.Balance(), currency))
	}
	fmt.Fprintf(&b, "| **Total** | **%s** | **%s** | **%s** |\n",
		FormatMoney(tb.TotalDebit, currency),
		FormatMoney(tb.TotalCredit, currency),
		FormatMoney(tb.TotalDebit.Sub(tb.TotalCredit), currency))
	if bal := tb.Check(); !bal.Balanced() {
		fmt.Fprintf(&b, "\n**Out of balance: %s (%s)**\n", FormatMoney(bal.Total, currency), bal.Side)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
