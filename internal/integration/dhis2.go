package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"gather/contracts/connector"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/circuit"
	"gather/pkg/platform/sentinel"
)

// DHIS2Strategy talks to a DHIS2 instance over its REST API using basic auth
// or a personal access token. Each endpoint gets a circuit breaker: after
// repeated transport failures the strategy stops hammering the instance and
// fails fast, until a connection test probes it healthy again.
type DHIS2Strategy struct {
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

func NewDHIS2Strategy() *DHIS2Strategy {
	return &DHIS2Strategy{
		client:   &http.Client{Timeout: 15 * time.Second},
		breakers: make(map[string]*circuit.Breaker),
	}
}

// Test probes the instance even when its circuit is open, so a successful
// test can close the circuit again.
func (s *DHIS2Strategy) Test(ctx context.Context, cfg connector.Config) error {
	var info struct {
		Version string `json:"version"`
	}
	return s.do(ctx, cfg, http.MethodGet, "/api/system/info", nil, &info, true)
}

func (s *DHIS2Strategy) ListSchemas(ctx context.Context, cfg connector.Config, kind connector.SchemaKind) ([]connector.Schema, error) {
	path, wrapper, err := listPath(kind)
	if err != nil {
		return nil, err
	}

	var body map[string][]struct {
		ID   string `json:"id"`
		Name string `json:"displayName"`
	}
	if err := s.get(ctx, cfg, path, &body); err != nil {
		return nil, err
	}

	var out []connector.Schema
	for _, item := range body[wrapper] {
		out = append(out, connector.Schema{ID: item.ID, Name: item.Name, Kind: kind})
	}
	return out, nil
}

func (s *DHIS2Strategy) FetchSchema(ctx context.Context, cfg connector.Config, kind connector.SchemaKind, id string) (*connector.Schema, error) {
	switch kind {
	case connector.KindProgram:
		return s.fetchProgram(ctx, cfg, id)
	case connector.KindDataSet:
		return s.fetchDataSet(ctx, cfg, id)
	}
	return nil, dErrors.Newf(dErrors.CodeInvalidInput, "dhis2 cannot describe schema kind %q", kind)
}

func (s *DHIS2Strategy) Push(ctx context.Context, cfg connector.Config, target string, records []connector.Record) (*connector.PushResult, error) {
	payload := map[string]any{
		"dataSet":    target,
		"dataValues": records,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal data values: %w", err)
	}

	var response struct {
		ImportCount struct {
			Imported int `json:"imported"`
			Updated  int `json:"updated"`
			Ignored  int `json:"ignored"`
			Deleted  int `json:"deleted"`
		} `json:"importCount"`
		Conflicts []any `json:"conflicts"`
	}
	if err := s.post(ctx, cfg, "/api/dataValueSets", body, &response); err != nil {
		return nil, err
	}

	return &connector.PushResult{
		Imported: response.ImportCount.Imported,
		Updated:  response.ImportCount.Updated,
		Ignored:  response.ImportCount.Ignored,
		Conflict: len(response.Conflicts),
		PushedAt: time.Now().UTC(),
	}, nil
}

func (s *DHIS2Strategy) fetchProgram(ctx context.Context, cfg connector.Config, id string) (*connector.Schema, error) {
	var body struct {
		ID                string `json:"id"`
		Name              string `json:"displayName"`
		ProgramAttributes []struct {
			Mandatory              bool `json:"mandatory"`
			TrackedEntityAttribute struct {
				Name      string `json:"displayName"`
				ValueType string `json:"valueType"`
			} `json:"trackedEntityAttribute"`
		} `json:"programTrackedEntityAttributes"`
	}
	path := "/api/programs/" + id + "?fields=id,displayName,programTrackedEntityAttributes[mandatory,trackedEntityAttribute[displayName,valueType]]"
	if err := s.get(ctx, cfg, path, &body); err != nil {
		return nil, err
	}

	schema := &connector.Schema{ID: body.ID, Name: body.Name, Kind: connector.KindProgram}
	for _, attr := range body.ProgramAttributes {
		schema.Fields = append(schema.Fields, connector.SchemaField{
			Name:      attr.TrackedEntityAttribute.Name,
			ValueType: attr.TrackedEntityAttribute.ValueType,
			Required:  attr.Mandatory,
		})
	}
	return schema, nil
}

func (s *DHIS2Strategy) fetchDataSet(ctx context.Context, cfg connector.Config, id string) (*connector.Schema, error) {
	var body struct {
		ID       string `json:"id"`
		Name     string `json:"displayName"`
		Elements []struct {
			DataElement struct {
				Name      string `json:"displayName"`
				ValueType string `json:"valueType"`
			} `json:"dataElement"`
		} `json:"dataSetElements"`
	}
	path := "/api/dataSets/" + id + "?fields=id,displayName,dataSetElements[dataElement[displayName,valueType]]"
	if err := s.get(ctx, cfg, path, &body); err != nil {
		return nil, err
	}

	schema := &connector.Schema{ID: body.ID, Name: body.Name, Kind: connector.KindDataSet}
	for _, el := range body.Elements {
		schema.Fields = append(schema.Fields, connector.SchemaField{
			Name:      el.DataElement.Name,
			ValueType: el.DataElement.ValueType,
		})
	}
	return schema, nil
}

func listPath(kind connector.SchemaKind) (path, wrapper string, err error) {
	switch kind {
	case connector.KindProgram:
		return "/api/programs?fields=id,displayName&paging=false", "programs", nil
	case connector.KindDataSet:
		return "/api/dataSets?fields=id,displayName&paging=false", "dataSets", nil
	}
	return "", "", dErrors.Newf(dErrors.CodeInvalidInput, "dhis2 cannot list schema kind %q", kind)
}

func (s *DHIS2Strategy) get(ctx context.Context, cfg connector.Config, path string, out any) error {
	return s.do(ctx, cfg, http.MethodGet, path, nil, out, false)
}

func (s *DHIS2Strategy) post(ctx context.Context, cfg connector.Config, path string, body []byte, out any) error {
	return s.do(ctx, cfg, http.MethodPost, path, body, out, false)
}

func (s *DHIS2Strategy) breaker(endpoint string) *circuit.Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[endpoint]
	if !ok {
		b = circuit.New(endpoint)
		s.breakers[endpoint] = b
	}
	return b
}

func (s *DHIS2Strategy) do(ctx context.Context, cfg connector.Config, method, path string, body []byte, out any, probe bool) error {
	b := s.breaker(cfg.BaseURL)
	if !probe && b.IsOpen() {
		return fmt.Errorf("dhis2 circuit open for %s: %w", cfg.BaseURL, sentinel.ErrUnavailable)
	}

	url := strings.TrimSuffix(cfg.BaseURL, "/") + path

	var reader *strings.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build dhis2 request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "ApiToken "+cfg.Token)
	} else {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		b.RecordFailure()
		return fmt.Errorf("dhis2 request: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		b.RecordFailure()
		return fmt.Errorf("dhis2 responded %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	b.RecordSuccess()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnauthorized, "dhis2 rejected the credentials")
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "dhis2 resource not found")
	case resp.StatusCode >= 400:
		return fmt.Errorf("dhis2 responded %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode dhis2 response: %w", err)
	}
	return nil
}
