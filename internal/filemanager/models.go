package filemanager

import (
	"time"

	"github.com/google/uuid"

	"gather/internal/scoped"
)

// Upload is the metadata row for one stored file. The bytes themselves live
// behind a Backend; StorageKey is the backend-side address.
type Upload struct {
	ID          uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

func (u *Upload) EntityID() uuid.UUID         { return u.ID }
func (u *Upload) SetEntityID(id uuid.UUID)    { u.ID = id }
func (u *Upload) CreatedByID() uuid.UUID      { return u.CreatedBy }
func (u *Upload) SetCreatedByID(id uuid.UUID) { u.CreatedBy = id }

func (u *Upload) AttributeValues() map[string]any {
	return map[string]any{
		"fileName":    u.FileName,
		"contentType": u.ContentType,
		"size":        u.Size,
		"storageKey":  u.StorageKey,
		"createdBy":   u.CreatedBy,
		"createdAt":   u.CreatedAt,
	}
}

func Schema() *scoped.Schema {
	return &scoped.Schema{
		Table:      "file_uploads",
		Alias:      "f",
		PrimaryKey: scoped.Column{Attribute: "id", Name: "id"},
		Columns: []scoped.Column{
			{Attribute: "fileName", Name: "file_name"},
			{Attribute: "contentType", Name: "content_type"},
			{Attribute: "size", Name: "size"},
			{Attribute: "storageKey", Name: "storage_key"},
			{Attribute: "createdBy", Name: "created_by"},
			{Attribute: "createdAt", Name: "created_at"},
		},
	}
}
