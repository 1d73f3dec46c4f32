package structure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// Service manages company centers in the record store.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a structure Service.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// List returns every center in id order.
func (s *Service) List(ctx context.Context) ([]model.Center, error) {
	return store.List[model.Center](ctx, s.store, store.Centers)
}

// Get returns one center.
func (s *Service) Get(ctx context.Context, centerID int64) (model.Center, error) {
	return store.Fetch[model.Center](ctx, s.store, store.Centers, centerID)
}

// Save validates c against the lattice and upserts it: update when the ID
// is set and exists, insert otherwise.
func (s *Service) Save(ctx context.Context, c model.Center) (model.Center, error) {
	c.Name = strings.TrimSpace(c.Name)
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		existing, err := store.List[model.Center](ctx, tx, store.Centers)
		if err != nil {
			return err
		}
		if c.ID != 0 {
			if _, ok := find(existing, c.ID); !ok {
				c.ID = 0
			}
		}
		if err := Validate(c, existing); err != nil {
			return err
		}

		c.Timestamp = s.now().UTC()
		if c.ID != 0 {
			return tx.Update(ctx, store.Centers, c.ID, c)
		}
		newID, err := tx.Insert(ctx, store.Centers, c)
		if err != nil {
			return err
		}
		c.ID = newID
		return nil
	})
	if err != nil {
		return model.Center{}, err
	}
	s.log.Debug().Int64("center_id", c.ID).Str("type", string(c.Type)).Msg("center saved")
	return c, nil
}

// Delete removes a center that has no children.
func (s *Service) Delete(ctx context.Context, centerID int64) error {
	return s.store.InTx(ctx, func(tx *store.Tx) error {
		c, err := store.Fetch[model.Center](ctx, tx, store.Centers, centerID)
		if err != nil {
			return err
		}
		children, err := store.Where[model.Center](ctx, tx, store.Centers, "parentId", centerID)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return ValidationError{
				Err:    ErrHasChildren,
				Center: c.Name,
				Detail: fmt.Sprintf("%d child center(s)", len(children)),
			}
		}
		return tx.Delete(ctx, store.Centers, centerID)
	})
}

// Tree returns the forest of centers.
func (s *Service) Tree(ctx context.Context) ([]*Node, error) {
	centers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(centers), nil
}

// Options returns the selectable parents for a center of type t.
func (s *Service) Options(ctx context.Context, t model.CenterType) ([]model.Center, error) {
	if !t.Valid() {
		return nil, ValidationError{Err: ErrInvalidType, Detail: fmt.Sprintf("%q", t)}
	}
	centers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ParentOptions(t, centers), nil
}
