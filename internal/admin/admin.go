// Package admin manages users and roles.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
)

// ErrUnknownRole is returned when a user names a role that does not exist.
var ErrUnknownRole = errors.New("unknown role")

// Service manages users and roles in the record store.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates an admin Service.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

func (s *Service) Users(ctx context.Context) ([]model.User, error) {
	return store.List[model.User](ctx, s.store, store.Users)
}

func (s *Service) User(ctx context.Context, userID int64) (model.User, error) {
	return store.Fetch[model.User](ctx, s.store, store.Users, userID)
}

func (s *Service) Roles(ctx context.Context) ([]model.Role, error) {
	return store.List[model.Role](ctx, s.store, store.Roles)
}

func (s *Service) Role(ctx context.Context, roleID int64) (model.Role, error) {
	return store.Fetch[model.Role](ctx, s.store, store.Roles, roleID)
}

// SaveUser validates and upserts a user. A set RoleID must name an
// existing role.
func (s *Service) SaveUser(ctx context.Context, u model.User) (model.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if err := ValidateUser(u); err != nil {
		return model.User{}, err
	}
	u.Timestamp = s.now().UTC()

	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if u.RoleID != 0 {
			_, err := tx.Get(ctx, store.Roles, u.RoleID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("role %d: %w", u.RoleID, ErrUnknownRole)
			}
			if err != nil {
				return err
			}
		}
		taken, err := store.Where[model.User](ctx, tx, store.Users, "username", u.Username)
		if err != nil {
			return err
		}
		for _, other := range taken {
			if other.ID != u.ID {
				return model.Invalid("username", "%q is taken", u.Username)
			}
		}
		return upsert(ctx, tx, store.Users, &u.ID, u)
	})
	if err != nil {
		return model.User{}, err
	}
	s.log.Debug().Int64("user_id", u.ID).Str("username", u.Username).Msg("user saved")
	return u, nil
}

// SaveRole validates and upserts a role.
func (s *Service) SaveRole(ctx context.Context, r model.Role) (model.Role, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	if err := ValidateRole(r); err != nil {
		return model.Role{}, err
	}
	r.Timestamp = s.now().UTC()

	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		return upsert(ctx, tx, store.Roles, &r.ID, r)
	})
	if err != nil {
		return model.Role{}, err
	}
	s.log.Debug().Int64("role_id", r.ID).Str("name", r.Name).Msg("role saved")
	return r, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	return s.store.Delete(ctx, store.Users, userID)
}

// DeleteRole removes a role no user is assigned to.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	return s.store.InTx(ctx, func(tx *store.Tx) error {
		users, err := store.Where[model.User](ctx, tx, store.Users, "roleId", roleID)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return model.Invalid("roleId", "role %d is assigned to %d user(s)", roleID, len(users))
		}
		return tx.Delete(ctx, store.Roles, roleID)
	})
}

// ValidateUser checks the required fields of a user.
func ValidateUser(u model.User) error {
	if u.Username == "" {
		return model.Invalid("username", "is required")
	}
	if u.Email == "" {
		return model.Invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return model.Invalid("email", "%q is not a valid address", u.Email)
	}
	return nil
}

// ValidateRole checks the name and permissions of a role.
func ValidateRole(r model.Role) error {
	if r.Name == "" {
		return model.Invalid("name", "is required")
	}
	for _, p := range r.Permissions {
		if p != model.PermissionAll && !isModule(p) {
			return model.Invalid("permissions", "unknown module %q", p)
		}
	}
	return nil
}

func isModule(name string) bool {
	for _, m := range model.Modules {
		if m == name {
			return true
		}
	}
	return false
}

func upsert(ctx context.Context, tx *store.Tx, c store.Collection, recordID *int64, doc any) error {
	if *recordID != 0 {
		return tx.Update(ctx, c, *recordID, doc)
	}
	newID, err := tx.Insert(ctx, c, doc)
	if err != nil {
		return err
	}
	*recordID = newID
	return nil
}
