package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// The typed ids travel through database/sql as their canonical string form so
// hand-written queries can bind them directly.

func value(u uuid.UUID) (driver.Value, error) { return u.String(), nil }

func scan(dst *uuid.UUID, src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return err
	}
	*dst = u
	return nil
}

func (id UserID) Value() (driver.Value, error)       { return value(uuid.UUID(id)) }
func (id ProgramID) Value() (driver.Value, error)    { return value(uuid.UUID(id)) }
func (id WorkflowID) Value() (driver.Value, error)   { return value(uuid.UUID(id)) }
func (id SubmissionID) Value() (driver.Value, error) { return value(uuid.UUID(id)) }
func (id ConnectionID) Value() (driver.Value, error) { return value(uuid.UUID(id)) }
func (id UploadID) Value() (driver.Value, error)     { return value(uuid.UUID(id)) }

func (id *UserID) Scan(src any) error       { return scan((*uuid.UUID)(id), src) }
func (id *ProgramID) Scan(src any) error    { return scan((*uuid.UUID)(id), src) }
func (id *WorkflowID) Scan(src any) error   { return scan((*uuid.UUID)(id), src) }
func (id *SubmissionID) Scan(src any) error { return scan((*uuid.UUID)(id), src) }
func (id *ConnectionID) Scan(src any) error { return scan((*uuid.UUID)(id), src) }
func (id *UploadID) Scan(src any) error     { return scan((*uuid.UUID)(id), src) }
