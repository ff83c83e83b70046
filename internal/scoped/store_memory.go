package scoped

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store implementation used by unit tests and
// local development. Joins are accepted but not evaluated: filters address
// base-entity attributes only, which is all the repository emits for scoping.
type MemoryStore[T Entity] struct {
	mu      sync.RWMutex
	schema  *Schema
	apply   func(entity T, partial Partial)
	rows    map[uuid.UUID]T
	deleted map[uuid.UUID]time.Time
}

// NewMemoryStore builds an empty in-memory store. apply mutates one entity
// with a partial update and is required because entities are opaque to the
// store; pass nil only for entities that are never updated in place.
func NewMemoryStore[T Entity](schema *Schema, apply func(entity T, partial Partial)) *MemoryStore[T] {
	return &MemoryStore[T]{
		schema:  schema,
		apply:   apply,
		rows:    make(map[uuid.UUID]T),
		deleted: make(map[uuid.UUID]time.Time),
	}
}

func (s *MemoryStore[T]) Select(ctx context.Context, spec *SelectSpec) ([]T, error) {
	rows, _, err := s.SelectAndCount(ctx, spec)
	return rows, err
}

func (s *MemoryStore[T]) SelectAndCount(_ context.Context, spec *SelectSpec) ([]T, int, error) {
	if spec.DenyAll {
		return nil, 0, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []T
	for id, row := range s.rows {
		if _, gone := s.deleted[id]; gone && !spec.IncludeDeleted {
			continue
		}
		if s.matches(row, spec.Filter) {
			matched = append(matched, clone(row))
		}
	}

	s.order(matched, spec.OrderBy)
	total := len(matched)

	if spec.Skip > 0 {
		if spec.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[spec.Skip:]
		}
	}
	if spec.Take > 0 && spec.Take < len(matched) {
		matched = matched[:spec.Take]
	}
	return matched, total, nil
}

func (s *MemoryStore[T]) Count(_ context.Context, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for id, row := range s.rows {
		if _, gone := s.deleted[id]; gone {
			continue
		}
		if s.matches(row, filter) {
			n++
		}
	}
	return n, nil
}

// Insert stores copies, mirroring a database row: later mutation of the
// caller's entity must not leak into the store until an explicit write.
func (s *MemoryStore[T]) Insert(_ context.Context, entities []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		s.rows[e.EntityID()] = clone(e)
	}
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, filter Filter, partial Partial) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, row := range s.rows {
		if _, gone := s.deleted[id]; gone {
			continue
		}
		if !s.matches(row, filter) {
			continue
		}
		if s.apply != nil {
			s.apply(row, partial)
		}
		n++
	}
	return n, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, row := range s.rows {
		if s.matches(row, filter) {
			delete(s.rows, id)
			delete(s.deleted, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore[T]) SoftDelete(_ context.Context, filter Filter, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, row := range s.rows {
		if _, gone := s.deleted[id]; gone {
			continue
		}
		if s.matches(row, filter) {
			s.deleted[id] = at
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore[T]) Restore(_ context.Context, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, row := range s.rows {
		if _, gone := s.deleted[id]; !gone {
			continue
		}
		if s.matches(row, filter) {
			delete(s.deleted, id)
			n++
		}
	}
	return n, nil
}

// DeletedAt reports the soft-delete timestamp for an id, for test assertions.
func (s *MemoryStore[T]) DeletedAt(id uuid.UUID) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.deleted[id]
	return at, ok
}

// clone shallow-copies a pointer entity so stored rows and returned rows are
// detached from the caller's value.
func clone[T Entity](e T) T {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return e
	}
	c := reflect.New(v.Elem().Type())
	c.Elem().Set(v.Elem())
	return c.Interface().(T)
}

func (s *MemoryStore[T]) matches(row T, filter Filter) bool {
	for attr, want := range filter {
		got := s.attrValue(row, attr)
		if in, ok := want.(In); ok {
			found := false
			for _, v := range in.Values {
				if valuesEqual(got, v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func (s *MemoryStore[T]) attrValue(row T, attr string) any {
	if attr == s.schema.PrimaryKey.Attribute {
		return row.EntityID()
	}
	return row.AttributeValues()[attr]
}

func (s *MemoryStore[T]) order(rows []T, orderBy []Order) {
	if len(orderBy) == 0 {
		// deterministic output without an explicit ordering
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].EntityID().String() < rows[j].EntityID().String()
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			c := compareValues(s.attrValue(rows[i], o.Attribute), s.attrValue(rows[j], o.Attribute))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// valuesEqual compares a stored attribute against a filter value across the
// representations ids and timestamps show up in.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, aok := stringify(a)
	bs, bok := stringify(b)
	return aok && bok && as == bs
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			switch {
			case x.Before(y):
				return -1
			case x.After(y):
				return 1
			}
			return 0
		}
	}
	as, aok := stringify(a)
	bs, bok := stringify(b)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
	}
	return 0
}
