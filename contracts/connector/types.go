// Package connector holds the wire-level types shared with external system
// connectors (DHIS2, generic Postgres). The platform consumes connectors
// through a test/fetch-schema/push contract; the payload shapes below are the
// only coupling between the two sides.
package connector

import "time"

// Type identifies the connector implementation behind a connection.
type Type string

const (
	TypeDHIS2    Type = "dhis2"
	TypePostgres Type = "postgres"
)

// Config carries everything a connector needs to reach the external system.
// Exactly one of BaseURL or DSN is set depending on the connector type.
type Config struct {
	Type     Type   `json:"type"`
	BaseURL  string `json:"baseUrl,omitempty"`
	DSN      string `json:"dsn,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// SchemaKind distinguishes the two DHIS2 schema families. Postgres connectors
// always report KindTable.
type SchemaKind string

const (
	KindProgram SchemaKind = "program"
	KindDataSet SchemaKind = "dataset"
	KindTable   SchemaKind = "table"
)

// SchemaField describes one attribute of a remote schema.
type SchemaField struct {
	Name      string `json:"name"`
	ValueType string `json:"valueType"`
	Required  bool   `json:"required"`
}

// Schema is a named collection of remote fields.
type Schema struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Kind   SchemaKind    `json:"kind"`
	Fields []SchemaField `json:"fields"`
}

// OrgUnit is a DHIS2 organisation unit summary.
type OrgUnit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// ProgramSummary is a DHIS2 program summary.
type ProgramSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PushResult reports the outcome of a data push.
type PushResult struct {
	Imported int       `json:"imported"`
	Updated  int       `json:"updated"`
	Ignored  int       `json:"ignored"`
	Conflict int       `json:"conflict"`
	PushedAt time.Time `json:"pushedAt"`
}
