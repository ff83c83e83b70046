package scoped

import (
	"context"
)

// Query is a lazily-built, ownership-aware read anchored at an alias. It is
// side-effect-free until executed; the owner predicate is folded in at
// execution time, after every caller-supplied predicate, so it always wins.
type Query[T Entity] struct {
	repo      *Repository[T]
	alias     string
	filter    Filter
	relations []string
	orderBy   []Order
	take      int
	skip      int
	deleted   bool
}

// Where merges caller predicates into the query. Later calls win on key
// collisions, except for the owner attribute which the repository re-applies
// on execution.
func (q *Query[T]) Where(f Filter) *Query[T] {
	if q.filter == nil {
		q.filter = make(Filter, len(f))
	}
	for k, v := range f {
		q.filter[k] = v
	}
	return q
}

// Relations requests eager joins for the given dotted relation paths.
func (q *Query[T]) Relations(paths ...string) *Query[T] {
	q.relations = append(q.relations, paths...)
	return q
}

// OrderBy appends an ordering term.
func (q *Query[T]) OrderBy(attribute string, desc bool) *Query[T] {
	q.orderBy = append(q.orderBy, Order{Attribute: attribute, Desc: desc})
	return q
}

// Take limits the number of rows returned.
func (q *Query[T]) Take(n int) *Query[T] {
	q.take = n
	return q
}

// Skip offsets into the result set.
func (q *Query[T]) Skip(n int) *Query[T] {
	q.skip = n
	return q
}

// IncludeDeleted includes soft-deleted rows in the result.
func (q *Query[T]) IncludeDeleted() *Query[T] {
	q.deleted = true
	return q
}

func (q *Query[T]) options() FindOptions {
	return FindOptions{
		Where:          q.filter,
		Relations:      q.relations,
		OrderBy:        q.orderBy,
		Take:           q.take,
		Skip:           q.skip,
		IncludeDeleted: q.deleted,
	}
}

// All executes the query and returns every matching row.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	return q.repo.findAt(ctx, q.alias, q.options())
}

// One executes the query and returns the first matching row, or
// sentinel.ErrNotFound.
func (q *Query[T]) One(ctx context.Context) (T, error) {
	return q.repo.findOneAt(ctx, q.alias, q.options())
}

// AllAndCount executes the query and additionally counts matches ignoring
// pagination.
func (q *Query[T]) AllAndCount(ctx context.Context) ([]T, int, error) {
	return q.repo.findAndCountAt(ctx, q.alias, q.options())
}
