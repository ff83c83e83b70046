package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"gather/contracts/connector"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
)

// PostgresStrategy treats an external Postgres database as a push target.
// Every table in the public schema is reported as a pushable schema.
type PostgresStrategy struct{}

func NewPostgresStrategy() *PostgresStrategy {
	return &PostgresStrategy{}
}

func (s *PostgresStrategy) Test(ctx context.Context, cfg connector.Config) error {
	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("pinging external database: %w", sentinel.ErrUnavailable)
	}
	return nil
}

func (s *PostgresStrategy) ListSchemas(ctx context.Context, cfg connector.Config, kind connector.SchemaKind) ([]connector.Schema, error) {
	if kind != connector.KindTable {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "postgres connections only expose tables, not %q", kind)
	}

	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var out []connector.Schema
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		out = append(out, connector.Schema{ID: name, Name: name, Kind: connector.KindTable})
	}
	return out, rows.Err()
}

func (s *PostgresStrategy) FetchSchema(ctx context.Context, cfg connector.Config, kind connector.SchemaKind, id string) (*connector.Schema, error) {
	if kind != connector.KindTable {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "postgres connections only expose tables, not %q", kind)
	}

	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, id)
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", id, err)
	}
	defer rows.Close()

	schema := &connector.Schema{ID: id, Name: id, Kind: connector.KindTable}
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		schema.Fields = append(schema.Fields, connector.SchemaField{
			Name:      name,
			ValueType: dataType,
			Required:  nullable == "NO",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Fields) == 0 {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "table %q does not exist", id)
	}
	return schema, nil
}

// Push inserts each record into the target table. Column names come from the
// record keys and are validated against the live table before any insert, so
// only known identifiers ever reach the statement.
func (s *PostgresStrategy) Push(ctx context.Context, cfg connector.Config, target string, records []connector.Record) (*connector.PushResult, error) {
	if len(records) == 0 {
		return &connector.PushResult{PushedAt: time.Now().UTC()}, nil
	}

	schema, err := s.FetchSchema(ctx, cfg, connector.KindTable, target)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		known[f.Name] = true
	}

	conn, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting push transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &connector.PushResult{PushedAt: time.Now().UTC()}
	for _, record := range records {
		columns := make([]string, 0, len(record))
		for col := range record {
			if !known[col] {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "table %q has no column %q", target, col)
			}
			columns = append(columns, col)
		}
		if len(columns) == 0 {
			result.Ignored++
			continue
		}
		sort.Strings(columns)

		placeholders := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, col := range columns {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = record[col]
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			pgx.Identifier{target}.Sanitize(),
			quoteAll(columns),
			strings.Join(placeholders, ", "),
		)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", target, err)
		}
		result.Imported++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing push: %w", err)
	}
	return result, nil
}

func (s *PostgresStrategy) connect(ctx context.Context, cfg connector.Config) (*pgx.Conn, error) {
	if cfg.DSN == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "connection has no dsn")
	}
	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to external database: %w", sentinel.ErrUnavailable)
	}
	return conn, nil
}

func quoteAll(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
