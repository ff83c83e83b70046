package httpapi

import (
	"encoding/json"
	"time"

	"gather/internal/collector"
	"gather/internal/filemanager"
	"gather/internal/integration"
	"gather/internal/program"
	"gather/internal/user"
	"gather/internal/workflow"
)

// pageResponse is the shared list envelope.
type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func page[T any](items []T, total int) pageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{Items: items, Total: total}
}

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	EmailVerified bool      `json:"emailVerified"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toUser(u *user.User) userResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		EmailVerified: u.EmailVerified,
		Roles:         roles,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type programResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProgram(p *program.Program) programResponse {
	return programResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type assignmentResponse struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"programId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAssignment(a *program.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:        a.ID.String(),
		ProgramID: a.ProgramID.String(),
		UserID:    a.UserID.String(),
		CreatedAt: a.CreatedAt,
	}
}

type workflowResponse struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"programId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Languages []string  `json:"languages"`
	Modes     []string  `json:"modes"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toWorkflow(w *workflow.Workflow) workflowResponse {
	languages := w.Languages
	if languages == nil {
		languages = []string{}
	}
	modes := w.Modes
	if modes == nil {
		modes = []string{}
	}
	return workflowResponse{
		ID:        w.ID.String(),
		ProgramID: w.ProgramID.String(),
		Name:      w.Name,
		Status:    string(w.Status),
		Languages: languages,
		Modes:     modes,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

type fieldResponse struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
	Position int      `json:"position"`
}

type mappingResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type configurationResponse struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type workflowDetailResponse struct {
	workflowResponse
	Fields         []fieldResponse         `json:"fields"`
	Mappings       []mappingResponse       `json:"mappings"`
	Configurations []configurationResponse `json:"configurations"`
}

func toWorkflowDetail(d *workflow.Detail) workflowDetailResponse {
	out := workflowDetailResponse{
		workflowResponse: toWorkflow(d.Workflow),
		Fields:           []fieldResponse{},
		Mappings:         []mappingResponse{},
		Configurations:   []configurationResponse{},
	}
	for _, f := range d.Fields {
		options := f.Options
		if options == nil {
			options = []string{}
		}
		out.Fields = append(out.Fields, fieldResponse{
			ID:       f.ID.String(),
			Label:    f.Label,
			Type:     string(f.Type),
			Required: f.Required,
			Options:  options,
			Position: f.Position,
		})
	}
	for _, m := range d.Mappings {
		out.Mappings = append(out.Mappings, mappingResponse{
			ID:     m.ID.String(),
			Source: m.Source,
			Target: m.Target,
		})
	}
	for _, c := range d.Configurations {
		out.Configurations = append(out.Configurations, configurationResponse{
			ID:    c.ID.String(),
			Key:   c.Key,
			Value: c.Value,
		})
	}
	return out
}

type submissionResponse struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflowId"`
	Payload    json.RawMessage `json:"payload"`
	Language   string          `json:"language,omitempty"`
	Mode       string          `json:"mode,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func toSubmission(s *collector.Submission) submissionResponse {
	return submissionResponse{
		ID:         s.ID.String(),
		WorkflowID: s.WorkflowID.String(),
		Payload:    s.Payload,
		Language:   s.Language,
		Mode:       s.Mode,
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
	}
}

// connectionResponse deliberately omits password, token and dsn.
type connectionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	BaseURL   string    `json:"baseUrl,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toConnection(c *integration.ExternalConnection) connectionResponse {
	return connectionResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Type:      string(c.Type),
		BaseURL:   c.BaseURL,
		Username:  c.Username,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type uploadResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUpload(u *filemanager.Upload) uploadResponse {
	return uploadResponse{
		ID:          u.ID.String(),
		FileName:    u.FileName,
		ContentType: u.ContentType,
		Size:        u.Size,
		CreatedAt:   u.CreatedAt,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
