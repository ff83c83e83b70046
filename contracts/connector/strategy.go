package connector

import "context"

// Record is one row of collected data keyed by remote field name.
type Record map[string]any

// Strategy is the behavior every connector implements. Implementations live
// with the platform; this contract is what gets mocked in service tests.
type Strategy interface {
	// Test verifies the config can reach and authenticate against the
	// external system.
	Test(ctx context.Context, cfg Config) error
	// FetchSchema retrieves the remote schema identified by kind and id.
	FetchSchema(ctx context.Context, cfg Config, kind SchemaKind, id string) (*Schema, error)
	// ListSchemas enumerates the remote schemas of one kind.
	ListSchemas(ctx context.Context, cfg Config, kind SchemaKind) ([]Schema, error)
	// Push writes a batch of records into the remote target.
	Push(ctx context.Context, cfg Config, target string, records []Record) (*PushResult, error)
}
