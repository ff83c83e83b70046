package scoped

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
)

// Filter is the canonical criteria shape: logical attribute name to required
// value. Values are matched by equality; wrap a slice with AnyOf for
// any-of-these semantics, use nil to match NULL.
type Filter map[string]any

// Partial is a partial update payload: attribute name to new value.
type Partial map[string]any

// In matches rows whose attribute equals any of the listed values.
type In struct {
	Values []any
}

// AnyOf builds an In match from a list of values.
func AnyOf(values ...any) In {
	return In{Values: values}
}

// Criteria is the discriminated lookup input accepted by repository
// mutations: a structured filter, a single identifier, a list of identifiers,
// or a date. Normalize turns every variant into a Filter keyed by the
// entity's primary-key attribute.
type Criteria interface {
	normalize(pkAttribute string) Filter
}

type byID struct{ value any }
type byIDs struct{ values []any }
type byDate struct{ value time.Time }
type byFilter struct{ filter Filter }

// ByID matches the row whose primary key equals id.
func ByID(id any) Criteria { return byID{value: id} }

// ByIDs matches rows whose primary key equals any of ids.
func ByIDs(ids ...any) Criteria { return byIDs{values: ids} }

// ByDate matches the row whose primary key equals the given date. The date
// is treated as a scalar, not a range; this mirrors the platform's legacy
// behavior for date-keyed lookups.
func ByDate(t time.Time) Criteria { return byDate{value: t} }

// Where passes an already-structured filter through unchanged.
func Where(f Filter) Criteria { return byFilter{filter: f} }

func (c byID) normalize(pk string) Filter   { return Filter{pk: c.value} }
func (c byIDs) normalize(pk string) Filter  { return Filter{pk: AnyOf(c.values...)} }
func (c byDate) normalize(pk string) Filter { return Filter{pk: c.value} }
func (c byFilter) normalize(string) Filter  { return c.filter }

// Normalize converts any criteria variant into the canonical Filter form
// using the schema's primary-key attribute. Normalizing an already-structured
// filter returns it unchanged, so the operation is idempotent.
func Normalize(c Criteria, s *Schema) (Filter, error) {
	if c == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "criteria is required")
	}
	if ids, ok := c.(byIDs); ok && len(ids.values) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "criteria id list is empty")
	}
	return c.normalize(s.PrimaryKey.Attribute), nil
}

// WithOwner returns a copy of the filter with the owner attribute forced to
// the given user. The constraint is written last so a caller-supplied value
// for the same attribute can never widen the scope.
func (f Filter) WithOwner(attribute string, userID domain.UserID) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[attribute] = uuid.UUID(userID)
	return out
}

// ValidateOwnerUnchanged rejects a partial update that reassigns the owner
// attribute to anyone but the current user. An absent or nil owner value is
// a no-op.
func ValidateOwnerUnchanged(p Partial, attribute string, userID domain.UserID) error {
	v, ok := p[attribute]
	if !ok || v == nil {
		return nil
	}
	if !identityEqual(v, userID) {
		return dErrors.New(dErrors.CodeForbidden, "cannot change record ownership")
	}
	return nil
}

// identityEqual compares an attribute value against a user id across the
// representations owner values show up in (typed id, raw uuid, string).
func identityEqual(v any, userID domain.UserID) bool {
	switch val := v.(type) {
	case domain.UserID:
		return val == userID
	case uuid.UUID:
		return val == uuid.UUID(userID)
	case string:
		return val == userID.String()
	case fmt.Stringer:
		return val.String() == userID.String()
	default:
		return false
	}
}
