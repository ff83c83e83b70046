package integration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gather/contracts/connector"
	"gather/internal/scoped"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
	"gather/pkg/requestcontext"
)

// Counters is the slice of platform metrics this service feeds.
type Counters interface {
	RecordConnectorPush(connector, status string)
}

// Service manages external system connections and routes schema and push
// requests to the matching connector strategy.
type Service struct {
	connections *scoped.Repository[*ExternalConnection]
	strategies  map[connector.Type]connector.Strategy
	cache       *SchemaCache
	counters    Counters
	log         *slog.Logger
}

func NewService(
	connections *scoped.Repository[*ExternalConnection],
	strategies map[connector.Type]connector.Strategy,
	cache *SchemaCache,
	counters Counters,
	log *slog.Logger,
) *Service {
	return &Service{
		connections: connections,
		strategies:  strategies,
		cache:       cache,
		counters:    counters,
		log:         log,
	}
}

// CreateConnectionInput is the connection creation payload.
type CreateConnectionInput struct {
	Name     string
	Type     string
	BaseURL  string
	DSN      string
	Username string
	Password string
	Token    string
}

// CreateConnection registers a connection after verifying the credentials
// actually reach the external system.
func (s *Service) CreateConnection(ctx context.Context, in CreateConnectionInput) (*ExternalConnection, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "connection name is required")
	}

	kind := connector.Type(in.Type)
	strategy, err := s.strategy(kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case connector.TypeDHIS2:
		if in.BaseURL == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "dhis2 connections need a base url")
		}
	case connector.TypePostgres:
		if in.DSN == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "postgres connections need a dsn")
		}
	}

	now := requestcontext.Now(ctx)
	conn := &ExternalConnection{
		Name:      name,
		Type:      kind,
		BaseURL:   in.BaseURL,
		DSN:       in.DSN,
		Username:  in.Username,
		Password:  in.Password,
		Token:     in.Token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := strategy.Test(ctx, conn.Config()); err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "connection created", "connection_id", conn.ID, "type", kind)
	return conn, nil
}

// ListConnections returns the caller's connections with the total count.
func (s *Service) ListConnections(ctx context.Context, skip, take int) ([]*ExternalConnection, int, error) {
	return s.connections.FindAndCount(ctx, scoped.FindOptions{
		OrderBy: []scoped.Order{{Attribute: "createdAt", Desc: true}},
		Skip:    skip,
		Take:    take,
	})
}

// GetConnection returns one owned connection.
func (s *Service) GetConnection(ctx context.Context, id domain.ConnectionID) (*ExternalConnection, error) {
	conn, err := s.connections.FindOne(ctx, scoped.FindOptions{Where: scoped.Filter{"id": uuid.UUID(id)}})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "connection not found")
	}
	return conn, err
}

// DeleteConnection soft-deletes one owned connection and drops its cached
// schemas.
func (s *Service) DeleteConnection(ctx context.Context, id domain.ConnectionID) error {
	n, err := s.connections.SoftDelete(ctx, scoped.ByID(uuid.UUID(id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "connection not found")
	}
	s.cache.Invalidate(ctx, uuid.UUID(id))
	return nil
}

// TestConnection re-verifies stored credentials against the external system.
func (s *Service) TestConnection(ctx context.Context, id domain.ConnectionID) error {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	strategy, err := s.strategy(conn.Type)
	if err != nil {
		return err
	}
	return strategy.Test(ctx, conn.Config())
}

// FetchSchema returns one remote schema, served from cache when fresh.
func (s *Service) FetchSchema(ctx context.Context, id domain.ConnectionID, kind connector.SchemaKind, schemaID string) (*connector.Schema, error) {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	strategy, err := s.strategy(conn.Type)
	if err != nil {
		return nil, err
	}

	if schema, ok := s.cache.Get(ctx, conn.ID, kind, schemaID); ok {
		return schema, nil
	}

	schema, err := strategy.FetchSchema(ctx, conn.Config(), kind, schemaID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, conn.ID, schema)
	return schema, nil
}

// Overview summarises what one connection exposes. The schema kinds the
// connector supports are listed concurrently.
type Overview struct {
	Connection *ExternalConnection           `json:"connection"`
	Schemas    map[string][]connector.Schema `json:"schemas"`
}

func (s *Service) ConnectionOverview(ctx context.Context, id domain.ConnectionID) (*Overview, error) {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	strategy, err := s.strategy(conn.Type)
	if err != nil {
		return nil, err
	}

	kinds := schemaKinds(conn.Type)
	results := make([][]connector.Schema, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			schemas, err := strategy.ListSchemas(gctx, conn.Config(), kind)
			if err != nil {
				return err
			}
			results[i] = schemas
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview := &Overview{Connection: conn, Schemas: make(map[string][]connector.Schema, len(kinds))}
	for i, kind := range kinds {
		overview.Schemas[string(kind)] = results[i]
	}
	return overview, nil
}

// Push delivers a batch of records into a remote target through one owned
// connection.
func (s *Service) Push(ctx context.Context, id domain.ConnectionID, target string, records []connector.Record) (*connector.PushResult, error) {
	if target == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "push target is required")
	}

	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	strategy, err := s.strategy(conn.Type)
	if err != nil {
		return nil, err
	}

	result, err := strategy.Push(ctx, conn.Config(), target, records)
	if err != nil {
		s.recordPush(conn.Type, "failure")
		s.log.ErrorContext(ctx, "connector push failed", "connection_id", conn.ID, "target", target, "error", err)
		return nil, err
	}

	s.recordPush(conn.Type, "success")
	s.log.InfoContext(ctx, "connector push delivered",
		"connection_id", conn.ID, "target", target,
		"imported", result.Imported, "ignored", result.Ignored)
	return result, nil
}

func (s *Service) strategy(kind connector.Type) (connector.Strategy, error) {
	strategy, ok := s.strategies[kind]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unsupported connection type %q", kind)
	}
	return strategy, nil
}

func (s *Service) recordPush(kind connector.Type, status string) {
	if s.counters != nil {
		s.counters.RecordConnectorPush(string(kind), status)
	}
}

func schemaKinds(kind connector.Type) []connector.SchemaKind {
	if kind == connector.TypePostgres {
		return []connector.SchemaKind{connector.KindTable}
	}
	return []connector.SchemaKind{connector.KindProgram, connector.KindDataSet}
}
