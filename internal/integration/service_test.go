package integration

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gather/contracts/connector"
	"gather/internal/scoped"
	mockconnector "gather/mocks/connector"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/requestcontext"
)

type fixture struct {
	svc      *Service
	dhis2    *mockconnector.MockStrategy
	postgres *mockconnector.MockStrategy
	counters *countingCounters
}

type countingCounters struct {
	pushes map[string]int
}

func (c *countingCounters) RecordConnectorPush(connector, status string) {
	if c.pushes == nil {
		c.pushes = map[string]int{}
	}
	c.pushes[connector+"/"+status]++
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	dhis2 := mockconnector.NewMockStrategy(ctrl)
	postgres := mockconnector.NewMockStrategy(ctrl)
	counters := &countingCounters{}

	svc := NewService(
		scoped.NewRepository[*ExternalConnection](NewMemoryStore(), Schema()),
		map[connector.Type]connector.Strategy{
			connector.TypeDHIS2:    dhis2,
			connector.TypePostgres: postgres,
		},
		nil,
		counters,
		slog.Default(),
	)
	return &fixture{svc: svc, dhis2: dhis2, postgres: postgres, counters: counters}
}

func userCtx() context.Context {
	return requestcontext.WithUser(context.Background(), domain.NewUserID(), nil)
}

func dhis2Input() CreateConnectionInput {
	return CreateConnectionInput{
		Name:     "National HMIS",
		Type:     "dhis2",
		BaseURL:  "https://hmis.example.org",
		Username: "api",
		Password: "secret",
	}
}

func (f *fixture) seedConnection(t *testing.T, ctx context.Context) *ExternalConnection {
	t.Helper()
	f.dhis2.EXPECT().Test(gomock.Any(), gomock.Any()).Return(nil)
	conn, err := f.svc.CreateConnection(ctx, dhis2Input())
	require.NoError(t, err)
	return conn
}

func TestCreateConnection(t *testing.T) {
	t.Run("verifies credentials before saving", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()

		f.dhis2.EXPECT().
			Test(gomock.Any(), connector.Config{
				Type:     connector.TypeDHIS2,
				BaseURL:  "https://hmis.example.org",
				Username: "api",
				Password: "secret",
			}).
			Return(nil)

		conn, err := f.svc.CreateConnection(ctx, dhis2Input())
		require.NoError(t, err)
		assert.NotZero(t, conn.ID)
		assert.Equal(t, connector.TypeDHIS2, conn.Type)
	})

	t.Run("a failed credential check is not saved", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()

		f.dhis2.EXPECT().
			Test(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeUnauthorized, "dhis2 rejected the credentials"))

		_, err := f.svc.CreateConnection(ctx, dhis2Input())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		conns, _, err := f.svc.ListConnections(ctx, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, conns)
	})

	t.Run("rejects unknown types and missing endpoints", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()

		_, err := f.svc.CreateConnection(ctx, CreateConnectionInput{Name: "x", Type: "ftp"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = f.svc.CreateConnection(ctx, CreateConnectionInput{Name: "x", Type: "postgres"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestConnectionScoping(t *testing.T) {
	f := newFixture(t)
	ownerCtx := userCtx()
	conn := f.seedConnection(t, ownerCtx)

	t.Run("another user cannot see or test the connection", func(t *testing.T) {
		otherCtx := userCtx()

		_, err := f.svc.GetConnection(otherCtx, domain.ConnectionID(conn.ID))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		err = f.svc.TestConnection(otherCtx, domain.ConnectionID(conn.ID))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("the owner can", func(t *testing.T) {
		f.dhis2.EXPECT().Test(gomock.Any(), gomock.Any()).Return(nil)
		require.NoError(t, f.svc.TestConnection(ownerCtx, domain.ConnectionID(conn.ID)))
	})
}

func TestFetchSchema(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	conn := f.seedConnection(t, ctx)

	want := &connector.Schema{
		ID:   "abc123",
		Name: "Malaria Case Registration",
		Kind: connector.KindProgram,
		Fields: []connector.SchemaField{
			{Name: "Age", ValueType: "INTEGER", Required: true},
		},
	}
	f.dhis2.EXPECT().
		FetchSchema(gomock.Any(), conn.Config(), connector.KindProgram, "abc123").
		Return(want, nil)

	got, err := f.svc.FetchSchema(ctx, domain.ConnectionID(conn.ID), connector.KindProgram, "abc123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConnectionOverview(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	conn := f.seedConnection(t, ctx)

	f.dhis2.EXPECT().
		ListSchemas(gomock.Any(), gomock.Any(), connector.KindProgram).
		Return([]connector.Schema{{ID: "p1", Name: "Programs", Kind: connector.KindProgram}}, nil)
	f.dhis2.EXPECT().
		ListSchemas(gomock.Any(), gomock.Any(), connector.KindDataSet).
		Return([]connector.Schema{{ID: "d1", Name: "Monthly", Kind: connector.KindDataSet}}, nil)

	overview, err := f.svc.ConnectionOverview(ctx, domain.ConnectionID(conn.ID))
	require.NoError(t, err)
	assert.Len(t, overview.Schemas["program"], 1)
	assert.Len(t, overview.Schemas["dataset"], 1)
}

func TestPush(t *testing.T) {
	records := []connector.Record{{"dataElement": "de1", "value": "34"}}

	t.Run("records a success outcome", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()
		conn := f.seedConnection(t, ctx)

		f.dhis2.EXPECT().
			Push(gomock.Any(), conn.Config(), "ds1", records).
			Return(&connector.PushResult{Imported: 1}, nil)

		result, err := f.svc.Push(ctx, domain.ConnectionID(conn.ID), "ds1", records)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, f.counters.pushes["dhis2/success"])
	})

	t.Run("records a failure outcome", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()
		conn := f.seedConnection(t, ctx)

		f.dhis2.EXPECT().
			Push(gomock.Any(), gomock.Any(), "ds1", records).
			Return(nil, assert.AnError)

		_, err := f.svc.Push(ctx, domain.ConnectionID(conn.ID), "ds1", records)
		require.Error(t, err)
		assert.Equal(t, 1, f.counters.pushes["dhis2/failure"])
	})

	t.Run("requires a target", func(t *testing.T) {
		f := newFixture(t)
		ctx := userCtx()
		conn := f.seedConnection(t, ctx)

		_, err := f.svc.Push(ctx, domain.ConnectionID(conn.ID), "", records)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDeleteConnection(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	conn := f.seedConnection(t, ctx)

	require.NoError(t, f.svc.DeleteConnection(ctx, domain.ConnectionID(conn.ID)))

	_, err := f.svc.GetConnection(ctx, domain.ConnectionID(conn.ID))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = f.svc.DeleteConnection(ctx, domain.ConnectionID(conn.ID))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
