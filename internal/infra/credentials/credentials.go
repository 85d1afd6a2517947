package credentials

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const (
	HeaderOrganization = "OpenAI-Organization"
	HeaderProject      = "OpenAI-Project"
)

// Credentials identify the caller to the OpenAI-compatible API. The key is
// only ever written into request headers.
type Credentials struct {
	APIKey       string
	Organization string
	Project      string
}

// Normalize trims every field.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		APIKey:       strings.TrimSpace(c.APIKey),
		Organization: strings.TrimSpace(c.Organization),
		Project:      strings.TrimSpace(c.Project),
	}
}

func (c Credentials) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Merge picks one complete credential set: c when it carries a key, fallback
// otherwise. Key, organization and project are never mixed across sets.
func (c Credentials) Merge(fallback Credentials) Credentials {
	c = c.Normalize()
	if c.HasAPIKey() {
		return c
	}
	return fallback.Normalize()
}

// Apply sets the JSON content type, bearer authorization and the optional
// organization and project headers.
func (c Credentials) Apply(h http.Header) {
	c = c.Normalize()
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+c.APIKey)
	if c.Organization != "" {
		h.Set(HeaderOrganization, c.Organization)
	}
	if c.Project != "" {
		h.Set(HeaderProject, c.Project)
	}
}

// String never includes the key.
func (c Credentials) String() string {
	if c.HasAPIKey() {
		return "credentials{api_key:redacted}"
	}
	return "credentials{api_key:missing}"
}

// MarshalZerologObject logs everything except the key itself.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("has_api_key", c.HasAPIKey())
	if org := strings.TrimSpace(c.Organization); org != "" {
		e.Str("org_id", org)
	}
	if project := strings.TrimSpace(c.Project); project != "" {
		e.Str("project_id", project)
	}
}
