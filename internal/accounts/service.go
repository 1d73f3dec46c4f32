package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// Service manages the accounting plan in the record store.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates an accounts Service.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// List returns the accounting plan in id order.
func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	return store.List[model.Account](ctx, s.store, store.Accounts)
}

// Index returns an in-memory snapshot of the plan.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	accts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(accts), nil
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, accountID int64) (model.Account, error) {
	return store.Fetch[model.Account](ctx, s.store, store.Accounts, accountID)
}

// Save validates and upserts an account: update when ID is set, insert
// otherwise. The timestamp is stamped on every save.
func (s *Service) Save(ctx context.Context, acct model.Account) (model.Account, error) {
	var saved model.Account
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		var err error
		saved, err = s.save(ctx, tx, acct)
		return err
	})
	return saved, err
}

// SaveAll saves every account inside tx; one invalid row fails the batch,
// and the caller's transaction rolls all of it back.
func (s *Service) SaveAll(ctx context.Context, tx *store.Tx, accts []model.Account) (int, error) {
	for i, acct := range accts {
		if _, err := s.save(ctx, tx, acct); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return len(accts), nil
}

// Merge saves accts in one transaction, matching rows to existing accounts
// by code: a known code updates that account, an unknown one is inserted.
func (s *Service) Merge(ctx context.Context, accts []model.Account) (inserted, updated int, err error) {
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		existing, err := store.List[model.Account](ctx, tx, store.Accounts)
		if err != nil {
			return err
		}
		idx := NewIndex(existing)
		for i, acct := range accts {
			acct = normalize(acct)
			acct.ID = 0
			if known, ok := idx.ByCode(acct.Code()); ok {
				acct.ID = known.ID
			}
			if _, err := s.save(ctx, tx, acct); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if acct.ID != 0 {
				updated++
			} else {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (s *Service) save(ctx context.Context, tx *store.Tx, acct model.Account) (model.Account, error) {
	acct = normalize(acct)
	if err := Validate(acct); err != nil {
		return model.Account{}, err
	}

	existing, err := store.List[model.Account](ctx, tx, store.Accounts)
	if err != nil {
		return model.Account{}, err
	}
	for _, other := range existing {
		if other.ID != acct.ID && other.Code() == acct.Code() {
			return model.Account{}, model.Invalid("cuenta", "account %s already exists", acct.Code())
		}
	}

	acct.Timestamp = s.now().UTC()
	if acct.ID != 0 {
		if err := tx.Update(ctx, store.Accounts, acct.ID, acct); err != nil {
			return model.Account{}, err
		}
	} else {
		newID, err := tx.Insert(ctx, store.Accounts, acct)
		if err != nil {
			return model.Account{}, err
		}
		acct.ID = newID
	}
	s.log.Debug().Int64("account_id", acct.ID).Str("code", acct.Code()).Msg("account saved")
	return acct, nil
}

// Delete removes an account. Journal lines keep their label snapshot.
func (s *Service) Delete(ctx context.Context, accountID int64) error {
	return s.store.Delete(ctx, store.Accounts, accountID)
}

// Validate checks the required fields of an account.
func Validate(acct model.Account) error {
	if !id.IsCode(acct.Number) {
		return model.Invalid("cuenta", "must be 4 digits, got %q", acct.Number)
	}
	if !id.IsCode(acct.Subaccount) {
		return model.Invalid("subcuenta", "must be 4 digits, got %q", acct.Subaccount)
	}
	if acct.Description == "" {
		return model.Invalid("descripcion", "is required")
	}
	if !acct.Classification.Valid() {
		return model.Invalid("clasificacion", "unknown classification %q", acct.Classification)
	}
	return nil
}

func normalize(acct model.Account) model.Account {
	acct.Number = strings.TrimSpace(acct.Number)
	acct.Subaccount = strings.TrimSpace(acct.Subaccount)
	if acct.Subaccount == "" {
		acct.Subaccount = id.DefaultSubaccount
	}
	acct.Description = strings.TrimSpace(acct.Description)
	acct.ExternalCode = strings.TrimSpace(acct.ExternalCode)
	if acct.Classification == "" {
		acct.Classification = model.ClassificationAsset
	}
	return acct
}
