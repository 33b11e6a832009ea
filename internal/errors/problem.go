package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs for RFC 7807 responses
const (
	TypeValidation     = "/errors/validation"
	TypeNotFound       = "/errors/not-found"
	TypeInternal       = "/errors/internal"
	TypeTimeout        = "/errors/timeout"
	TypeRateLimit      = "/errors/rate-limit"
	TypeEmptySelection = "/errors/selection/empty"
	TypeUnknownRegion  = "/errors/selection/unknown-region"
	TypeDatasetMissing = "/errors/dataset/missing"
	TypeDatasetCorrupt = "/errors/dataset/corrupt"
	TypeExportFailed   = "/errors/export/failed"
)

// ProblemDetails implements RFC 7807 problem details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extensions holds additional members merged into the JSON object
	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails creates a new RFC 7807 problem details response
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension adds an extension member to the problem details
func (p *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if p.Extensions == nil {
		p.Extensions = make(map[string]interface{})
	}
	p.Extensions[key] = value
	return p
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return p.Title + ": " + p.Detail
}

// Render implements the render.Renderer interface
func (p *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, p.Status)
	return nil
}

// MarshalJSON merges extension members into the standard fields
func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		obj["detail"] = p.Detail
	}
	if p.Instance != "" {
		obj["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		obj[k] = v
	}
	return json.Marshal(obj)
}
