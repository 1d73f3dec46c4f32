package journal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Draft is an entry being edited. Every edit returns the recomputed
// balance so callers can show live feedback.
type Draft struct {
	lines []Line
}

// NewDraft returns a draft with two empty lines.
func NewDraft() *Draft {
	return &Draft{lines: make([]Line, MinLines)}
}

// Lines returns a copy of the draft lines.
func (d *Draft) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// Balance returns the current running balance.
func (d *Draft) Balance() Balance {
	return ComputeBalance(d.lines)
}

// AddLine appends an empty line.
func (d *Draft) AddLine() Balance {
	d.lines = append(d.lines, Line{})
	return d.Balance()
}

// RemoveLine deletes line i (0-based).
func (d *Draft) RemoveLine(i int) (Balance, error) {
	if err := d.check(i); err != nil {
		return d.Balance(), err
	}
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	return d.Balance(), nil
}

// SetAccount sets the account of line i.
func (d *Draft) SetAccount(i int, accountID int64) (Balance, error) {
	if err := d.check(i); err != nil {
		return d.Balance(), err
	}
	d.lines[i].AccountID = accountID
	return d.Balance(), nil
}

// SetAmount sets the amount of line i.
func (d *Draft) SetAmount(i int, amount decimal.Decimal) (Balance, error) {
	if err := d.check(i); err != nil {
		return d.Balance(), err
	}
	d.lines[i].Amount = decimal.NewNullDecimal(amount)
	return d.Balance(), nil
}

// SetMemo sets the memo of line i.
func (d *Draft) SetMemo(i int, memo string) (Balance, error) {
	if err := d.check(i); err != nil {
		return d.Balance(), err
	}
	d.lines[i].Memo = memo
	return d.Balance(), nil
}

func (d *Draft) check(i int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("line %d out of range (draft has %d lines)", i+1, len(d.lines))
	}
	return nil
}
