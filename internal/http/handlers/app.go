package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/infra/credentials"
	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
	"github.com/Maciekds1981/kolorowanki/internal/session"
)

const maxBodyBytes = 1 << 20

type App struct {
	Config   *infra.Config
	Sessions *session.Store
	// HTTPClient is shared by every OpenAI client built per request.
	HTTPClient *http.Client
	// ImageLimiter paces image calls across all sessions. Nil means unpaced.
	ImageLimiter *rate.Limiter
}

func NewApp(cfg *infra.Config, sessions *session.Store) *App {
	return &App{
		Config:       cfg,
		Sessions:     sessions,
		HTTPClient:   &http.Client{},
		ImageLimiter: nil,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body. An empty body leaves v untouched when optional.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (a *App) defaultCredentials() credentials.Credentials {
	return credentials.Credentials{
		APIKey:       a.Config.OpenAIAPIKey,
		Organization: a.Config.OpenAIOrg,
		Project:      a.Config.OpenAIProject,
	}
}

// clientFor builds an OpenAI client with the session overrides layered on top
// of the process configuration.
func (a *App) clientFor(r *http.Request, sess *session.Session) *openai.Client {
	logger := zerolog.Ctx(r.Context())
	textModel := sess.TextModel()
	if textModel == "" {
		textModel = a.Config.TextModel
	}
	return openai.NewClient(openai.Options{
		BaseURL:      a.Config.OpenAIBaseURL,
		Credentials:  sess.Credentials().Merge(a.defaultCredentials()),
		TextModel:    textModel,
		ImageModel:   a.Config.ImageModel,
		TextTimeout:  a.Config.TextTimeout,
		ImageTimeout: a.Config.ImageTimeout,
		HTTPClient:   a.HTTPClient,
		Logger:       logger,
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai client warning")
		},
	})
}

// session resolves the {session_id} URL parameter, writing a 404 when the
// session is gone.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := a.Sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return sess, true
}
