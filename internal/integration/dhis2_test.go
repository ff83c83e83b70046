package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/contracts/connector"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/sentinel"
)

func TestDHIS2Test(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "district" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"version": "2.40"})
	}))
	defer srv.Close()

	s := NewDHIS2Strategy()
	ctx := context.Background()

	err := s.Test(ctx, connector.Config{BaseURL: srv.URL, Username: "admin", Password: "district"})
	assert.NoError(t, err)

	err = s.Test(ctx, connector.Config{BaseURL: srv.URL, Username: "admin", Password: "wrong"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestDHIS2TokenAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ApiToken d2pat-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"version": "2.40"})
	}))
	defer srv.Close()

	s := NewDHIS2Strategy()
	err := s.Test(context.Background(), connector.Config{BaseURL: srv.URL, Token: "d2pat-secret"})
	assert.NoError(t, err)
}

func TestDHIS2ListSchemas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/programs", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"programs": []map[string]string{
				{"id": "p1", "displayName": "Immunization"},
				{"id": "p2", "displayName": "Malaria Case Registration"},
			},
		})
	}))
	defer srv.Close()

	s := NewDHIS2Strategy()
	schemas, err := s.ListSchemas(context.Background(), connector.Config{BaseURL: srv.URL, Token: "t"}, connector.KindProgram)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "Immunization", schemas[0].Name)
	assert.Equal(t, connector.KindProgram, schemas[0].Kind)

	_, err = s.ListSchemas(context.Background(), connector.Config{BaseURL: srv.URL, Token: "t"}, connector.KindTable)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDHIS2CircuitBreaker(t *testing.T) {
	var failing atomic.Bool
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/api/system/info":
			json.NewEncoder(w).Encode(map[string]string{"version": "2.40"})
		default:
			json.NewEncoder(w).Encode(map[string]any{"programs": []map[string]string{{"id": "p1", "displayName": "One"}}})
		}
	}))
	defer srv.Close()

	s := NewDHIS2Strategy()
	ctx := context.Background()
	cfg := connector.Config{BaseURL: srv.URL, Token: "t"}

	failing.Store(true)
	for i := 0; i < 5; i++ {
		_, err := s.ListSchemas(ctx, cfg, connector.KindProgram)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
	assert.EqualValues(t, 5, hits.Load())

	// Circuit is open: regular calls fail fast without touching the server.
	_, err := s.ListSchemas(ctx, cfg, connector.KindProgram)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.EqualValues(t, 5, hits.Load())

	// A connection test still probes. One success is not enough to close.
	failing.Store(false)
	require.NoError(t, s.Test(ctx, cfg))
	assert.EqualValues(t, 6, hits.Load())
	_, err = s.ListSchemas(ctx, cfg, connector.KindProgram)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.EqualValues(t, 6, hits.Load())

	// The second healthy probe closes the circuit.
	require.NoError(t, s.Test(ctx, cfg))
	schemas, err := s.ListSchemas(ctx, cfg, connector.KindProgram)
	require.NoError(t, err)
	assert.Len(t, schemas, 1)
}

func TestDHIS2Push(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dataValueSets", r.URL.Path)
		var payload struct {
			DataSet    string             `json:"dataSet"`
			DataValues []connector.Record `json:"dataValues"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "ds1", payload.DataSet)
		require.Len(t, payload.DataValues, 2)

		json.NewEncoder(w).Encode(map[string]any{
			"importCount": map[string]int{"imported": 1, "updated": 1},
			"conflicts":   []any{},
		})
	}))
	defer srv.Close()

	s := NewDHIS2Strategy()
	result, err := s.Push(context.Background(), connector.Config{BaseURL: srv.URL, Token: "t"}, "ds1", []connector.Record{
		{"dataElement": "de1", "value": "12"},
		{"dataElement": "de2", "value": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Conflict)
	assert.False(t, result.PushedAt.IsZero())
}
