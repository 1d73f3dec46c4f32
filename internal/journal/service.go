package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// Service records journal entries.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a journal Service.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// Post validates lines against the current accounting plan and appends
// them as one entry. Account labels are copied into the lines at this point
// and never refreshed. On any validation error nothing is written.
func (s *Service) Post(ctx context.Context, lines []Line) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		accts, err := store.List[model.Account](ctx, tx, store.Accounts)
		if err != nil {
			return fmt.Errorf("loading accounts: %w", err)
		}
		idx := accounts.NewIndex(accts)

		if err := Validate(lines, idx); err != nil {
			return err
		}

		entry = model.JournalEntry{
			Timestamp: s.now().UTC(),
			Lines:     make([]model.JournalLine, len(lines)),
		}
		for i, l := range lines {
			acct, _ := idx.Get(l.AccountID)
			entry.Lines[i] = model.JournalLine{
				AccountID:    l.AccountID,
				AccountLabel: acct.Label(),
				Description:  l.Memo,
				Amount:       l.Amount.Decimal,
			}
		}
		entry.TotalDebit, entry.TotalCredit = Totals(entry.Lines)

		newID, err := tx.Insert(ctx, store.JournalEntries, entry)
		if err != nil {
			return err
		}
		entry.ID = newID
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Int("lines", len(lines)).Msg("journal entry rejected")
		return model.JournalEntry{}, err
	}
	s.log.Debug().
		Int64("entry_id", entry.ID).
		Str("total_debit", entry.TotalDebit.StringFixed(2)).
		Msg("journal entry posted")
	return entry, nil
}

// List returns every entry in posting order.
func (s *Service) List(ctx context.Context) ([]model.JournalEntry, error) {
	return store.List[model.JournalEntry](ctx, s.store, store.JournalEntries)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, entryID int64) (model.JournalEntry, error) {
	return store.Fetch[model.JournalEntry](ctx, s.store, store.JournalEntries, entryID)
}
