package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cleared-dev/microerp/internal/model"
)

// Header is the CSV header of a journal listing.
var Header = []string{"entry_id", "timestamp", "line", "account_id", "account_label", "descripcion", "valor"}

// WriteLines writes one CSV row per journal line, entries in the given order.
func WriteLines(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		for i, l := range e.Lines {
			row := []string{
				strconv.FormatInt(e.ID, 10),
				e.Timestamp.Format(time.RFC3339),
				strconv.Itoa(i + 1),
				strconv.FormatInt(l.AccountID, 10),
				l.AccountLabel,
				l.Description,
				l.Amount.StringFixed(2),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing entry %d line %d: %w", e.ID, i+1, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
