package scoped

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/requestcontext"
)

// Metrics receives repository-level counters. Implementations live in the
// platform metrics package; a nil Metrics disables recording.
type Metrics interface {
	QueryIssued(entity string)
	OwnershipDenied(entity, operation string)
}

// Auditor receives mutation and denial notifications for the audit trail.
// A nil Auditor disables auditing.
type Auditor interface {
	Mutation(ctx context.Context, entity, action string, ids []uuid.UUID)
	Denied(ctx context.Context, entity, action string)
}

// FindOptions carries the optional knobs for read operations.
type FindOptions struct {
	Where          Filter
	Relations      []string
	OrderBy        []Order
	Take           int
	Skip           int
	IncludeDeleted bool
}

// Repository combines a store, a schema, and the current request's scoping
// context into ownership-aware CRUD. One repository value is safe to share:
// the descriptor is immutable and the caller identity is re-read from the
// context on every call, so transaction binding happens through the context
// (pkg/platform/tx), not through repository state.
type Repository[T Entity] struct {
	store      Store[T]
	schema     *Schema
	owner      Ownership
	ownerField string
	log        *slog.Logger
	metrics    Metrics
	auditor    Auditor
	tracer     trace.Tracer
}

// Option customizes repository construction.
type Option[T Entity] func(*Repository[T])

// WithOwnerField overrides the logical attribute treated as the owner column.
func WithOwnerField[T Entity](name string) Option[T] {
	return func(r *Repository[T]) { r.ownerField = name }
}

// WithLogger sets the structured logger used for store failures.
func WithLogger[T Entity](log *slog.Logger) Option[T] {
	return func(r *Repository[T]) { r.log = log }
}

// WithMetrics wires repository counters.
func WithMetrics[T Entity](m Metrics) Option[T] {
	return func(r *Repository[T]) { r.metrics = m }
}

// WithAuditor wires mutation/denial auditing.
func WithAuditor[T Entity](a Auditor) Option[T] {
	return func(r *Repository[T]) { r.auditor = a }
}

// NewRepository builds an ownership-scoped repository for one entity type.
// The ownership descriptor is resolved here, exactly once; schemas are static
// for the process lifetime.
func NewRepository[T Entity](store Store[T], schema *Schema, opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		store:      store,
		schema:     schema,
		ownerField: DefaultOwnerField,
		log:        slog.Default(),
		tracer:     otel.Tracer("gather/internal/scoped"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.owner = DescribeOwnership(schema, r.ownerField)
	return r
}

// Schema exposes the repository's entity schema.
func (r *Repository[T]) Schema() *Schema { return r.schema }

// Owner exposes the resolved ownership descriptor.
func (r *Repository[T]) Owner() Ownership { return r.owner }

// WithScope returns a lazily-built query anchored at alias (the schema's
// default alias when empty). The owner predicate is applied on execution:
// skipped for super-admins and for entities without an owner attribute.
func (r *Repository[T]) WithScope(alias string) *Query[T] {
	if alias == "" {
		alias = r.schema.Alias
	}
	return &Query[T]{repo: r, alias: alias}
}

// Find returns every row matching the options, scoped to the caller.
func (r *Repository[T]) Find(ctx context.Context, opts FindOptions) ([]T, error) {
	return r.findAt(ctx, r.schema.Alias, opts)
}

// FindOne returns the first row matching the options, scoped to the caller,
// or sentinel.ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, opts FindOptions) (T, error) {
	return r.findOneAt(ctx, r.schema.Alias, opts)
}

// FindAndCount returns matching rows plus the total match count ignoring
// pagination. Unexpected store failures are logged with full context and
// re-thrown unchanged.
func (r *Repository[T]) FindAndCount(ctx context.Context, opts FindOptions) ([]T, int, error) {
	return r.findAndCountAt(ctx, r.schema.Alias, opts)
}

func (r *Repository[T]) findAt(ctx context.Context, alias string, opts FindOptions) ([]T, error) {
	ctx, span := r.span(ctx, "scoped.find")
	defer span.End()

	spec, err := r.selectSpec(ctx, alias, opts)
	if err != nil {
		return nil, err
	}
	return r.store.Select(ctx, spec)
}

func (r *Repository[T]) findOneAt(ctx context.Context, alias string, opts FindOptions) (T, error) {
	var zero T

	ctx, span := r.span(ctx, "scoped.find_one")
	defer span.End()

	opts.Take = 1
	spec, err := r.selectSpec(ctx, alias, opts)
	if err != nil {
		return zero, err
	}
	rows, err := r.store.Select(ctx, spec)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (r *Repository[T]) findAndCountAt(ctx context.Context, alias string, opts FindOptions) ([]T, int, error) {
	ctx, span := r.span(ctx, "scoped.find_and_count")
	defer span.End()

	spec, err := r.selectSpec(ctx, alias, opts)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := r.store.SelectAndCount(ctx, spec)
	if err != nil {
		r.log.ErrorContext(ctx, "scoped find-and-count failed",
			"entity", r.schema.Table,
			"error", err,
		)
		return nil, 0, err
	}
	return rows, total, nil
}

// selectSpec folds the caller's options and the scoping decision into one
// store-agnostic read description.
func (r *Repository[T]) selectSpec(ctx context.Context, alias string, opts FindOptions) (*SelectSpec, error) {
	joins, err := ResolveRelations(alias, r.schema, opts.Relations)
	if err != nil {
		return nil, err
	}

	filter, deny := r.readScope(ContextFrom(ctx), opts.Where)
	if r.metrics != nil {
		r.metrics.QueryIssued(r.schema.Table)
	}

	return &SelectSpec{
		Alias:          alias,
		Filter:         filter,
		Joins:          joins,
		OrderBy:        opts.OrderBy,
		Take:           opts.Take,
		Skip:           opts.Skip,
		IncludeDeleted: opts.IncludeDeleted,
		DenyAll:        deny,
	}, nil
}

// readScope decides the ownership predicate for a read. Any authenticated
// non-super-admin is scoped to their own rows; an unauthenticated read of an
// owned entity matches nothing. Admins keep an explicitly supplied owner
// filter, which lets them inspect a named user's rows without widening scope.
func (r *Repository[T]) readScope(sc Context, f Filter) (Filter, bool) {
	if !r.owner.Exists || sc.IsSuperAdmin {
		return f, false
	}
	if !sc.Authenticated {
		return f, true
	}
	if sc.IsAdmin {
		if _, ok := f[r.owner.Attribute]; ok {
			return f, false
		}
	}
	return f.WithOwner(r.owner.Attribute, sc.UserID), false
}

// Save persists entities, stamping the owner attribute on new records and
// verifying ownership on updates. Every per-item check passes before any row
// is written, so a bad item rejects the whole batch.
func (r *Repository[T]) Save(ctx context.Context, entities ...T) error {
	ctx, span := r.span(ctx, "scoped.save")
	defer span.End()

	sc := ContextFrom(ctx)

	var inserts []T
	type update struct {
		id      uuid.UUID
		partial Partial
	}
	var updates []update

	for _, e := range entities {
		if e.EntityID() == uuid.Nil {
			if r.owner.Exists {
				if err := r.stampOwner(e, sc); err != nil {
					r.denied(ctx, "save")
					return err
				}
			}
			e.SetEntityID(uuid.New())
			inserts = append(inserts, e)
			continue
		}

		if !sc.IsSuperAdmin {
			_, err := r.FindOne(ctx, FindOptions{Where: Filter{r.schema.PrimaryKey.Attribute: e.EntityID()}})
			if errors.Is(err, sentinel.ErrNotFound) {
				r.denied(ctx, "save")
				return errNotYours
			}
			if err != nil {
				return err
			}
			if r.owner.Exists {
				if err := r.checkOwnerUnchanged(e, sc); err != nil {
					r.denied(ctx, "save")
					return err
				}
			}
		}
		updates = append(updates, update{id: e.EntityID(), partial: Partial(e.AttributeValues())})
	}

	if len(inserts) > 0 {
		if err := r.store.Insert(ctx, inserts); err != nil {
			return err
		}
	}
	for _, u := range updates {
		pk := Filter{r.schema.PrimaryKey.Attribute: u.id}
		if _, err := r.store.Update(ctx, pk, u.partial); err != nil {
			return err
		}
	}

	r.audit(ctx, "save", entityIDs(entities))
	return nil
}

// stampOwner fills the owner attribute on a new record. An explicit owner is
// kept when it names the creator (idempotent) or when a super-admin set it;
// anything else is an impersonation attempt.
func (r *Repository[T]) stampOwner(e T, sc Context) error {
	owned, ok := any(e).(Owned)
	if !ok {
		return dErrors.Newf(dErrors.CodeInternal,
			"entity %s has owner column %s but does not implement scoped.Owned",
			r.schema.Table, r.owner.Column)
	}

	current := owned.CreatedByID()
	switch {
	case current == uuid.Nil:
		if sc.Authenticated {
			owned.SetCreatedByID(uuid.UUID(sc.UserID))
		}
	case sc.IsSuperAdmin:
		// explicit owner allowed
	case sc.Authenticated && current == uuid.UUID(sc.UserID):
		// explicit self-assignment is a no-op
	default:
		return dErrors.New(dErrors.CodeForbidden, "cannot create records on behalf of another user")
	}
	return nil
}

func (r *Repository[T]) checkOwnerUnchanged(e T, sc Context) error {
	owned, ok := any(e).(Owned)
	if !ok {
		return dErrors.Newf(dErrors.CodeInternal,
			"entity %s has owner column %s but does not implement scoped.Owned",
			r.schema.Table, r.owner.Column)
	}
	if id := owned.CreatedByID(); id != uuid.Nil && id != uuid.UUID(sc.UserID) {
		return dErrors.New(dErrors.CodeForbidden, "cannot change record ownership")
	}
	return nil
}

// Update applies a partial update to every row matching the criteria,
// appending the owner constraint for scoped callers.
func (r *Repository[T]) Update(ctx context.Context, c Criteria, p Partial) (int64, error) {
	ctx, span := r.span(ctx, "scoped.update")
	defer span.End()

	sc := ContextFrom(ctx)

	if r.bypass(sc) {
		filter, err := Normalize(c, r.schema)
		if err != nil {
			return 0, err
		}
		n, err := r.store.Update(ctx, filter, p)
		if err == nil {
			r.audit(ctx, "update", nil)
		}
		return n, err
	}

	if !sc.Authenticated {
		r.denied(ctx, "update")
		return 0, errNotAuthenticated
	}
	if err := ValidateOwnerUnchanged(p, r.owner.Attribute, sc.UserID); err != nil {
		r.denied(ctx, "update")
		return 0, err
	}

	filter, err := Normalize(c, r.schema)
	if err != nil {
		return 0, err
	}
	n, err := r.store.Update(ctx, filter.WithOwner(r.owner.Attribute, sc.UserID), p)
	if err == nil {
		r.audit(ctx, "update", nil)
	}
	return n, err
}

// Delete hard-deletes every row matching the criteria, scoped to the caller.
func (r *Repository[T]) Delete(ctx context.Context, c Criteria) (int64, error) {
	ctx, span := r.span(ctx, "scoped.delete")
	defer span.End()

	return r.scopedWrite(ctx, "delete", c, func(ctx context.Context, f Filter) (int64, error) {
		return r.store.Delete(ctx, f)
	})
}

// SoftDelete marks matching rows deleted without removing them.
func (r *Repository[T]) SoftDelete(ctx context.Context, c Criteria) (int64, error) {
	ctx, span := r.span(ctx, "scoped.soft_delete")
	defer span.End()

	return r.scopedWrite(ctx, "soft_delete", c, func(ctx context.Context, f Filter) (int64, error) {
		return r.store.SoftDelete(ctx, f, requestcontext.Now(ctx))
	})
}

// Restore clears the soft-delete mark on matching rows.
func (r *Repository[T]) Restore(ctx context.Context, c Criteria) (int64, error) {
	ctx, span := r.span(ctx, "scoped.restore")
	defer span.End()

	return r.scopedWrite(ctx, "restore", c, func(ctx context.Context, f Filter) (int64, error) {
		return r.store.Restore(ctx, f)
	})
}

func (r *Repository[T]) scopedWrite(ctx context.Context, action string, c Criteria,
	commit func(context.Context, Filter) (int64, error)) (int64, error) {

	sc := ContextFrom(ctx)

	filter, err := Normalize(c, r.schema)
	if err != nil {
		return 0, err
	}

	if r.bypass(sc) {
		n, err := commit(ctx, filter)
		if err == nil {
			r.audit(ctx, action, nil)
		}
		return n, err
	}

	if !sc.Authenticated {
		r.denied(ctx, action)
		return 0, errNotAuthenticated
	}

	n, err := commit(ctx, filter.WithOwner(r.owner.Attribute, sc.UserID))
	if err == nil {
		r.audit(ctx, action, nil)
	}
	return n, err
}

// Remove deletes the given entities by id. For scoped callers the batch is
// all-or-nothing: one count query verifies the caller owns every id, and any
// mismatch rejects the whole batch with no partial deletion.
func (r *Repository[T]) Remove(ctx context.Context, entities ...T) error {
	ctx, span := r.span(ctx, "scoped.remove")
	defer span.End()

	ids := entityIDs(entities)
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "no valid entities provided")
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	pkFilter := Filter{r.schema.PrimaryKey.Attribute: AnyOf(values...)}

	sc := ContextFrom(ctx)
	if !r.bypass(sc) {
		if !sc.Authenticated {
			r.denied(ctx, "remove")
			return errNotAuthenticated
		}
		owned, err := r.store.Count(ctx, pkFilter.WithOwner(r.owner.Attribute, sc.UserID))
		if err != nil {
			return err
		}
		if owned != len(ids) {
			r.denied(ctx, "remove")
			return errPartialOwnership
		}
	}

	if _, err := r.store.Delete(ctx, pkFilter); err != nil {
		return err
	}
	r.audit(ctx, "remove", ids)
	return nil
}

// bypass reports whether scoping is skipped entirely: the entity has no
// owner attribute, or the caller is a super-admin.
func (r *Repository[T]) bypass(sc Context) bool {
	return !r.owner.Exists || sc.IsSuperAdmin
}

func (r *Repository[T]) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("entity", r.schema.Table),
	))
}

func (r *Repository[T]) denied(ctx context.Context, action string) {
	if r.metrics != nil {
		r.metrics.OwnershipDenied(r.schema.Table, action)
	}
	if r.auditor != nil {
		r.auditor.Denied(ctx, r.schema.Table, action)
	}
}

func (r *Repository[T]) audit(ctx context.Context, action string, ids []uuid.UUID) {
	if r.auditor != nil {
		r.auditor.Mutation(ctx, r.schema.Table, action, ids)
	}
}

func entityIDs[T Entity](entities []T) []uuid.UUID {
	var ids []uuid.UUID
	for _, e := range entities {
		if id := e.EntityID(); id != uuid.Nil {
			ids = append(ids, id)
		}
	}
	return ids
}
