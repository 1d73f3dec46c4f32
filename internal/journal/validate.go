package journal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/microerp/internal/model"
)

// Tolerance is the largest absolute sum an entry may carry and still count
// as balanced (strictly less than). Amounts are limited to two decimals, so
// in practice this means an exact zero sum.
var Tolerance = decimal.New(1, -2)

// MinLines is the minimum number of lines in an entry.
const MinLines = 2

var hundred = decimal.NewFromInt(100)

var (
	ErrTooFewLines    = errors.New("too few lines")
	ErrMissingFields  = errors.New("missing fields")
	ErrPrecision      = errors.New("too many decimal places")
	ErrUnknownAccount = errors.New("unknown account")
	ErrNotBalanced    = errors.New("not balanced")
)

// Line is a journal line draft. A zero AccountID or an invalid Amount means
// the field has not been filled in yet.
type Line struct {
	AccountID int64
	Memo      string
	Amount    decimal.NullDecimal
}

// Side tells which way an entry leans.
type Side string

const (
	SideBalanced Side = "balanced"
	SideDebit    Side = "debit"
	SideCredit   Side = "credit"
)

// Balance is the running total of a set of lines.
type Balance struct {
	Total decimal.Decimal
	Side  Side
}

// Balanced reports whether the total is within Tolerance of zero.
func (b Balance) Balanced() bool {
	return b.Side == SideBalanced
}

func (b Balance) String() string {
	if b.Balanced() {
		return b.Total.StringFixed(2) + " (balanced)"
	}
	return fmt.Sprintf("%s (%s)", b.Total.StringFixed(2), b.Side)
}

// ComputeBalance sums the set amounts. Unset amounts count as zero.
func ComputeBalance(lines []Line) Balance {
	total := decimal.Zero
	for _, l := range lines {
		if l.Amount.Valid {
			total = total.Add(l.Amount.Decimal)
		}
	}
	side := SideBalanced
	switch {
	case total.Abs().LessThan(Tolerance):
	case total.IsPositive():
		side = SideDebit
	default:
		side = SideCredit
	}
	return Balance{Total: total, Side: side}
}

// ValidationError describes the first rule a set of lines violates.
type ValidationError struct {
	Err         error // one of the Err* sentinels
	Line        int   // 1-based; 0 when the rule applies to the whole entry
	Description string
	Balance     Balance
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Description)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Description)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// AccountChecker tests whether an account ID exists in the accounting plan.
type AccountChecker interface {
	Exists(id int64) bool
}

// Validate decides whether lines may become a journal entry. It checks line
// count, completeness, precision, account references and balance, in that
// order, and reports the first violation.
func Validate(lines []Line, accounts AccountChecker) error {
	bal := ComputeBalance(lines)

	if len(lines) < MinLines {
		return ValidationError{
			Err:         ErrTooFewLines,
			Description: fmt.Sprintf("entry needs at least %d lines, got %d", MinLines, len(lines)),
			Balance:     bal,
		}
	}

	for i, l := range lines {
		if l.AccountID == 0 {
			return ValidationError{Err: ErrMissingFields, Line: i + 1, Description: "account is required", Balance: bal}
		}
		if !l.Amount.Valid || l.Amount.Decimal.IsZero() {
			return ValidationError{Err: ErrMissingFields, Line: i + 1, Description: "amount is required", Balance: bal}
		}
	}

	for i, l := range lines {
		scaled := l.Amount.Decimal.Mul(hundred)
		if !scaled.Equal(scaled.Truncate(0)) {
			return ValidationError{
				Err:         ErrPrecision,
				Line:        i + 1,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", l.Amount.Decimal),
				Balance:     bal,
			}
		}
	}

	for i, l := range lines {
		if !accounts.Exists(l.AccountID) {
			return ValidationError{
				Err:         ErrUnknownAccount,
				Line:        i + 1,
				Description: fmt.Sprintf("account %d does not exist", l.AccountID),
				Balance:     bal,
			}
		}
	}

	if !bal.Balanced() {
		return ValidationError{
			Err:         ErrNotBalanced,
			Description: fmt.Sprintf("lines sum to %s", bal),
			Balance:     bal,
		}
	}
	return nil
}

// Totals returns the sum of positive amounts and the absolute sum of
// negative amounts.
func Totals(lines []model.JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		switch {
		case l.Amount.IsPositive():
			debit = debit.Add(l.Amount)
		case l.Amount.IsNegative():
			credit = credit.Add(l.Amount.Neg())
		}
	}
	return debit, credit
}
