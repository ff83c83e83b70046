package collector

import (
	"database/sql"

	"github.com/google/uuid"

	"gather/internal/scoped"
)

func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*Submission] {
	return scoped.NewPostgresStore(db, Schema(), scanSubmission)
}

func NewMemoryStore() *scoped.MemoryStore[*Submission] {
	return scoped.NewMemoryStore(Schema(), applySubmission)
}

func scanSubmission(rows *sql.Rows) (*Submission, error) {
	var s Submission
	var status string
	var payload []byte
	if err := rows.Scan(&s.ID, &s.WorkflowID, &payload, &s.Language, &s.Mode, &status, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Payload = payload
	s.Status = Status(status)
	return &s, nil
}

func applySubmission(s *Submission, p scoped.Partial) {
	if v, ok := p["status"].(string); ok {
		s.Status = Status(v)
	}
	if v, ok := p["payload"].([]byte); ok {
		s.Payload = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		s.CreatedBy = v
	}
}
