package scoped

import (
	"context"
	"time"
)

// Order is one ordering term over a logical attribute.
type Order struct {
	Attribute string
	Desc      bool
}

// SelectSpec is the store-agnostic description of a read: canonical filter,
// resolved joins, ordering and pagination. DenyAll short-circuits to an empty
// result; it is set when an unauthenticated caller reads an owned entity.
type SelectSpec struct {
	Alias          string
	Filter         Filter
	Joins          []JoinStep
	OrderBy        []Order
	Take           int
	Skip           int
	IncludeDeleted bool
	DenyAll        bool
}

// Store executes canonical operations against one entity's backing table.
// Implementations are dumb pipes: every ownership decision has already been
// folded into the filter by the repository. Soft-deleted rows are excluded
// from Select and Count unless the spec says otherwise.
type Store[T Entity] interface {
	Select(ctx context.Context, spec *SelectSpec) ([]T, error)
	SelectAndCount(ctx context.Context, spec *SelectSpec) ([]T, int, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Insert(ctx context.Context, entities []T) error
	Update(ctx context.Context, filter Filter, partial Partial) (int64, error)
	Delete(ctx context.Context, filter Filter) (int64, error)
	SoftDelete(ctx context.Context, filter Filter, at time.Time) (int64, error)
	Restore(ctx context.Context, filter Filter) (int64, error)
}
