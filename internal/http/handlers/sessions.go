package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/infra/credentials"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
)

type createSessionRequest struct {
	APIKey       string `json:"api_key"`
	Organization string `json:"organization"`
	Project      string `json:"project"`
	TextModel    string `json:"text_model"`
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := a.decode(w, r, &req, true); err != nil {
		a.badRequest(w, r, err)
		return
	}
	creds := credentials.Credentials{APIKey: req.APIKey, Organization: req.Organization, Project: req.Project}
	sess := a.Sessions.Create(creds, req.TextModel)
	zerolog.Ctx(r.Context()).Info().
		Str("session_id", sess.ID).
		Object("credentials", creds.Normalize()).
		Msg("session created")
	a.json(w, http.StatusCreated, newSessionView(sess.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	a.Sessions.Delete(chi.URLParam(r, "session_id"))
	w.WriteHeader(http.StatusNoContent)
}
