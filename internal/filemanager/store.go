package filemanager

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gather/internal/scoped"
)

func NewPostgresStore(db *sql.DB) *scoped.PostgresStore[*Upload] {
	return scoped.NewPostgresStore(db, Schema(), scanUpload)
}

func NewMemoryStore() *scoped.MemoryStore[*Upload] {
	return scoped.NewMemoryStore(Schema(), applyUpload)
}

func scanUpload(rows *sql.Rows) (*Upload, error) {
	var u Upload
	if err := rows.Scan(
		&u.ID, &u.FileName, &u.ContentType, &u.Size, &u.StorageKey,
		&u.CreatedBy, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func applyUpload(u *Upload, p scoped.Partial) {
	if v, ok := p["fileName"].(string); ok {
		u.FileName = v
	}
	if v, ok := p["contentType"].(string); ok {
		u.ContentType = v
	}
	if v, ok := p["size"].(int64); ok {
		u.Size = v
	}
	if v, ok := p["storageKey"].(string); ok {
		u.StorageKey = v
	}
	if v, ok := p["createdBy"].(uuid.UUID); ok {
		u.CreatedBy = v
	}
	if v, ok := p["createdAt"].(time.Time); ok {
		u.CreatedAt = v
	}
}
