// Package audit records who did what to which records. Events flow through a
// buffered worker into a Kafka topic; consumers are external.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one audit trail entry. EntityIDs may be empty for criteria-based
// mutations where the affected set is only known to the database.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityIDs []string  `json:"entity_ids,omitempty"`
	Denied    bool      `json:"denied,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	At        time.Time `json:"at"`
}
