// Package structure validates and stores the company-structure tree.
package structure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/microerp/internal/model"
)

var (
	ErrMissingName       = errors.New("name is required")
	ErrInvalidType       = errors.New("invalid center type")
	ErrParentNotAllowed  = errors.New("parent not allowed")
	ErrParentRequired    = errors.New("parent required")
	ErrParentNotFound    = errors.New("parent not found")
	ErrInvalidParentType = errors.New("invalid parent type")
	ErrOrphanedChildren  = errors.New("children would be orphaned")
	ErrHasChildren       = errors.New("center has children")
)

// ValidationError reports the first lattice rule a center violates.
type ValidationError struct {
	Err    error
	Center string
	Detail string
}

func (e ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("center %q: %v", e.Center, e.Err)
	}
	return fmt.Sprintf("center %q: %v: %s", e.Center, e.Err, e.Detail)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// allowedParents is the parent-type lattice.
var allowedParents = map[model.CenterType][]model.CenterType{
	model.CenterCentral:    nil,
	model.CenterDelegation: {model.CenterCentral},
	model.CenterAssociated: {model.CenterDelegation},
	model.CenterOther:      {model.CenterCentral, model.CenterDelegation},
}

// AllowedParents returns the parent types a center of type t may hang from.
func AllowedParents(t model.CenterType) []model.CenterType {
	return allowedParents[t]
}

// CanParent reports whether a center of type parent may be the parent of a
// center of type child.
func CanParent(parent, child model.CenterType) bool {
	for _, p := range allowedParents[child] {
		if p == parent {
			return true
		}
	}
	return false
}

// RequiresParent reports whether type t must have a parent.
func RequiresParent(t model.CenterType) bool {
	return t == model.CenterDelegation || t == model.CenterAssociated
}

// Validate checks c against the lattice and the existing centers. When c
// has an ID it is treated as an edit, and its current children must accept
// the new type.
func Validate(c model.Center, existing []model.Center) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ValidationError{Err: ErrMissingName}
	}
	fail := func(err error, format string, args ...any) error {
		return ValidationError{Err: err, Center: name, Detail: fmt.Sprintf(format, args...)}
	}

	if !c.Type.Valid() {
		return fail(ErrInvalidType, "%q", c.Type)
	}
	if c.Type == model.CenterCentral && c.ParentID != 0 {
		return fail(ErrParentNotAllowed, "a %s center is a root", c.Type)
	}
	if c.ParentID == 0 {
		if RequiresParent(c.Type) {
			return fail(ErrParentRequired, "a %s center needs a %s parent", c.Type, joinTypes(AllowedParents(c.Type)))
		}
	} else {
		if c.ID != 0 && c.ParentID == c.ID {
			return fail(ErrInvalidParentType, "a center cannot be its own parent")
		}
		parent, ok := find(existing, c.ParentID)
		if !ok {
			return fail(ErrParentNotFound, "parent %d", c.ParentID)
		}
		if !CanParent(parent.Type, c.Type) {
			return fail(ErrInvalidParentType, "a %s center cannot hang from %s %q", c.Type, parent.Type, parent.Name)
		}
	}

	if c.ID != 0 {
		for _, child := range existing {
			if child.ParentID == c.ID && child.ID != c.ID && !CanParent(c.Type, child.Type) {
				return fail(ErrOrphanedChildren, "child %s %q cannot hang from a %s center", child.Type, child.Name, c.Type)
			}
		}
	}
	return nil
}

// ParentOptions returns the existing centers selectable as parent for a new
// center of type t, in name order.
func ParentOptions(t model.CenterType, existing []model.Center) []model.Center {
	var out []model.Center
	for _, c := range existing {
		if CanParent(c.Type, t) {
			out = append(out, c)
		}
	}
	sortByName(out)
	return out
}

func find(centers []model.Center, centerID int64) (model.Center, bool) {
	for _, c := range centers {
		if c.ID == centerID {
			return c, true
		}
	}
	return model.Center{}, false
}

func joinTypes(types []model.CenterType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, " or ")
}
