package handlers

import (
	"net/http"

	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type infoResponse struct {
	BaseURL        string `json:"base_url"`
	TextModel      string `json:"text_model"`
	ImageModel     string `json:"image_model"`
	HasAPIKey      bool   `json:"has_api_key"`
	Organization   string `json:"organization,omitempty"`
	Project        string `json:"project,omitempty"`
	DefaultLocale  string `json:"default_locale"`
	ActiveSessions int    `json:"active_sessions"`
}

// Info reports the effective API configuration. The key itself is never
// included.
func (a *App) Info(w http.ResponseWriter, r *http.Request) {
	creds := a.defaultCredentials().Normalize()
	textModel, _ := openai.NormalizeTextModel(a.Config.TextModel)
	imageModel := a.Config.ImageModel
	if imageModel == "" {
		imageModel = openai.DefaultImageModel
	}
	a.json(w, http.StatusOK, infoResponse{
		BaseURL:        a.Config.OpenAIBaseURL,
		TextModel:      textModel,
		ImageModel:     imageModel,
		HasAPIKey:      creds.HasAPIKey(),
		Organization:   creds.Organization,
		Project:        creds.Project,
		DefaultLocale:  a.Config.DefaultLocale,
		ActiveSessions: a.Sessions.Len(),
	})
}
