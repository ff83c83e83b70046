package scoped

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/platform/tx"
)

// PostgresStore is the Postgres Store implementation. It renders SelectSpecs
// into SQL with $n placeholders and participates in an ambient transaction
// when one is present on the context.
type PostgresStore[T Entity] struct {
	db     *sql.DB
	schema *Schema
	scan   func(rows *sql.Rows) (T, error)
}

// NewPostgresStore builds a store for one entity table. scan maps one result
// row, in schema column order (primary key first), to an entity.
func NewPostgresStore[T Entity](db *sql.DB, schema *Schema, scan func(rows *sql.Rows) (T, error)) *PostgresStore[T] {
	return &PostgresStore[T]{db: db, schema: schema, scan: scan}
}

func (s *PostgresStore[T]) Select(ctx context.Context, spec *SelectSpec) ([]T, error) {
	if spec.DenyAll {
		return nil, nil
	}

	query, args, err := s.selectSQL(spec, false)
	if err != nil {
		return nil, err
	}

	rows, err := tx.From(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.schema.Table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore[T]) SelectAndCount(ctx context.Context, spec *SelectSpec) ([]T, int, error) {
	if spec.DenyAll {
		return nil, 0, nil
	}

	out, err := s.Select(ctx, spec)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := s.selectSQL(spec, true)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := tx.From(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting %s: %w", s.schema.Table, err)
	}
	return out, total, nil
}

func (s *PostgresStore[T]) Count(ctx context.Context, filter Filter) (int, error) {
	where, args, err := s.whereSQL(s.schema.Alias, filter, 1)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT COUNT(*) FROM %s AS %s", s.schema.Table, s.schema.Alias)
	s.appendWhere(&b, where, s.schema.Alias, false)

	var total int
	if err := tx.From(ctx, s.db).QueryRowContext(ctx, b.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.schema.Table, err)
	}
	return total, nil
}

func (s *PostgresStore[T]) Insert(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}

	columns := []string{s.schema.PrimaryKey.Name}
	attrs := []string{s.schema.PrimaryKey.Attribute}
	for _, c := range s.schema.Columns {
		columns = append(columns, c.Name)
		attrs = append(attrs, c.Attribute)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", s.schema.Table, strings.Join(columns, ", "))

	args := make([]any, 0, len(entities)*len(columns))
	n := 1
	for i, e := range entities {
		if i > 0 {
			b.WriteString(", ")
		}
		values := e.AttributeValues()
		b.WriteByte('(')
		for j, attr := range attrs {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
			if attr == s.schema.PrimaryKey.Attribute {
				args = append(args, e.EntityID())
			} else {
				args = append(args, values[attr])
			}
		}
		b.WriteByte(')')
	}

	if _, err := tx.From(ctx, s.db).ExecContext(ctx, b.String(), args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("inserting %s: %w", s.schema.Table, sentinel.ErrConflict)
		}
		return fmt.Errorf("inserting %s: %w", s.schema.Table, err)
	}
	return nil
}

func (s *PostgresStore[T]) Update(ctx context.Context, filter Filter, partial Partial) (int64, error) {
	if len(partial) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "update payload is empty")
	}

	attrs := make([]string, 0, len(partial))
	for attr := range partial {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET ", s.schema.Table)

	args := make([]any, 0, len(partial)+len(filter))
	n := 1
	for i, attr := range attrs {
		col, ok := s.schema.ColumnFor(attr)
		if !ok {
			return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unknown attribute %q on %s", attr, s.schema.Table)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = $%d", col, n)
		args = append(args, partial[attr])
		n++
	}

	where, whereArgs, err := s.whereSQL("", filter, n)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	return s.exec(ctx, "updating", b.String(), args)
}

func (s *PostgresStore[T]) Delete(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := s.whereSQL("", filter, 1)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", s.schema.Table)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	return s.exec(ctx, "deleting", b.String(), args)
}

func (s *PostgresStore[T]) SoftDelete(ctx context.Context, filter Filter, at time.Time) (int64, error) {
	if s.schema.SoftDelete == "" {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "%s does not support soft deletes", s.schema.Table)
	}

	where, args, err := s.whereSQL("", filter, 2)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s = $1 WHERE %s IS NULL", s.schema.Table, s.schema.SoftDelete, s.schema.SoftDelete)
	if where != "" {
		b.WriteString(" AND ")
		b.WriteString(where)
	}
	return s.exec(ctx, "soft-deleting", b.String(), append([]any{at}, args...))
}

func (s *PostgresStore[T]) Restore(ctx context.Context, filter Filter) (int64, error) {
	if s.schema.SoftDelete == "" {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "%s does not support soft deletes", s.schema.Table)
	}

	where, args, err := s.whereSQL("", filter, 1)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s = NULL WHERE %s IS NOT NULL", s.schema.Table, s.schema.SoftDelete, s.schema.SoftDelete)
	if where != "" {
		b.WriteString(" AND ")
		b.WriteString(where)
	}
	return s.exec(ctx, "restoring", b.String(), args)
}

func (s *PostgresStore[T]) exec(ctx context.Context, verb, query string, args []any) (int64, error) {
	res, err := tx.From(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", verb, s.schema.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", verb, s.schema.Table, err)
	}
	return n, nil
}

// selectSQL renders a spec as either a row select or a count of distinct base
// rows. Joins can fan out, so the row form selects DISTINCT base columns and
// the count form counts DISTINCT primary keys.
func (s *PostgresStore[T]) selectSQL(spec *SelectSpec, count bool) (string, []any, error) {
	alias := spec.Alias
	if alias == "" {
		alias = s.schema.Alias
	}

	var b strings.Builder
	if count {
		fmt.Fprintf(&b, "SELECT COUNT(DISTINCT %s.%s)", alias, s.schema.PrimaryKey.Name)
	} else {
		cols := make([]string, 0, len(s.schema.Columns)+1)
		cols = append(cols, fmt.Sprintf("%s.%s", alias, s.schema.PrimaryKey.Name))
		for _, c := range s.schema.Columns {
			cols = append(cols, fmt.Sprintf("%s.%s", alias, c.Name))
		}
		distinct := ""
		if len(spec.Joins) > 0 {
			distinct = "DISTINCT "
		}
		fmt.Fprintf(&b, "SELECT %s%s", distinct, strings.Join(cols, ", "))
	}
	fmt.Fprintf(&b, " FROM %s AS %s", s.schema.Table, alias)

	// LEFT joins: relations widen the filterable surface without dropping
	// base rows that have no related row.
	for _, j := range spec.Joins {
		target := j.Relation.Target
		if j.Relation.LocalColumn != "" {
			fmt.Fprintf(&b, " LEFT JOIN %s AS %s ON %s.%s = %s.%s",
				target.Table, j.Alias, j.ParentAlias, j.Relation.LocalColumn, j.Alias, target.PrimaryKey.Name)
		} else {
			fmt.Fprintf(&b, " LEFT JOIN %s AS %s ON %s.%s = %s.%s",
				target.Table, j.Alias, j.Alias, j.Relation.ForeignColumn, j.ParentAlias, s.parentPK(j, alias))
		}
	}

	where, args, err := s.whereSQL(alias, spec.Filter, 1)
	if err != nil {
		return "", nil, err
	}
	s.appendWhere(&b, where, alias, spec.IncludeDeleted)

	if !count {
		if len(spec.OrderBy) > 0 {
			terms := make([]string, 0, len(spec.OrderBy))
			for _, o := range spec.OrderBy {
				col, ok := s.schema.ColumnFor(o.Attribute)
				if !ok {
					return "", nil, dErrors.Newf(dErrors.CodeInvalidInput,
						"unknown attribute %q on %s", o.Attribute, s.schema.Table)
				}
				dir := "ASC"
				if o.Desc {
					dir = "DESC"
				}
				terms = append(terms, fmt.Sprintf("%s.%s %s", alias, col, dir))
			}
			b.WriteString(" ORDER BY ")
			b.WriteString(strings.Join(terms, ", "))
		}
		if spec.Take > 0 {
			fmt.Fprintf(&b, " LIMIT %d", spec.Take)
		}
		if spec.Skip > 0 {
			fmt.Fprintf(&b, " OFFSET %d", spec.Skip)
		}
	}

	return b.String(), args, nil
}

// parentPK resolves the parent side of a one-to-many join. The base alias
// maps to this store's schema; any other parent is a prior join target.
func (s *PostgresStore[T]) parentPK(step JoinStep, baseAlias string) string {
	if step.ParentAlias == baseAlias {
		return s.schema.PrimaryKey.Name
	}
	// Walking join steps parent-first means a non-base parent was already
	// joined; its schema is not reachable from here, so relations declare
	// the join columns explicitly and this branch only needs the pk name
	// convention shared by every schema in the platform.
	return "id"
}

// whereSQL renders a filter with sorted keys so the same filter always
// produces the same SQL. qualify prefixes columns with an alias; pass ""
// for statements addressing the bare table.
func (s *PostgresStore[T]) whereSQL(qualify string, filter Filter, firstArg int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	attrs := make([]string, 0, len(filter))
	for attr := range filter {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	var terms []string
	var args []any
	n := firstArg

	for _, attr := range attrs {
		col, ok := s.schema.ColumnFor(attr)
		if !ok {
			return "", nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown attribute %q on %s", attr, s.schema.Table)
		}
		if qualify != "" {
			col = qualify + "." + col
		}

		switch v := filter[attr].(type) {
		case nil:
			terms = append(terms, col+" IS NULL")
		case In:
			terms = append(terms, fmt.Sprintf("%s = ANY($%d)", col, n))
			args = append(args, pq.Array(stringifyAll(v.Values)))
			n++
		default:
			terms = append(terms, fmt.Sprintf("%s = $%d", col, n))
			args = append(args, v)
			n++
		}
	}

	return strings.Join(terms, " AND "), args, nil
}

func (s *PostgresStore[T]) appendWhere(b *strings.Builder, where, alias string, includeDeleted bool) {
	var terms []string
	if where != "" {
		terms = append(terms, where)
	}
	if s.schema.SoftDelete != "" && !includeDeleted {
		col := s.schema.SoftDelete
		if alias != "" {
			col = alias + "." + col
		}
		terms = append(terms, col+" IS NULL")
	}
	if len(terms) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(terms, " AND "))
	}
}

// stringifyAll flattens heterogeneous id values into strings for pq.Array;
// Postgres casts text against uuid and timestamp columns on comparison.
func stringifyAll(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if s, ok := stringify(v); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
