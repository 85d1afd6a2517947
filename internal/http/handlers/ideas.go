package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/i18n"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
	"github.com/Maciekds1981/kolorowanki/internal/providers/prompt"
)

type generateIdeasRequest struct {
	Theme    string `json:"theme"`
	MaxCount int    `json:"max_count"`
}

type ideasResponse struct {
	Ideas    []ideaView `json:"ideas"`
	Selected int        `json:"selected"`
	Message  string     `json:"message"`
}

// GenerateIdeas replaces the session's idea list with fresh ideas for a theme.
func (a *App) GenerateIdeas(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req generateIdeasRequest
	if err := a.decode(w, r, &req, false); err != nil {
		a.badRequest(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if strings.TrimSpace(req.Theme) == "" {
		a.error(w, r, http.StatusBadRequest, "theme_required", i18n.Sprintf(locale, i18n.MsgThemeRequired), "")
		return
	}
	maxCount, err := domain.IdeaCount(req.MaxCount)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	logger := zerolog.Ctx(r.Context())
	generator := prompt.NewIdeaGenerator(a.clientFor(r, sess), logger)
	ideas, err := generator.GenerateIdeas(r.Context(), prompt.IdeaRequest{
		Theme:    req.Theme,
		MaxCount: maxCount,
		Locale:   locale,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sess.ReplaceIdeas(ideas)
	logger.Info().Str("session_id", sess.ID).Int("ideas", len(ideas)).Msg("ideas generated")
	a.json(w, http.StatusOK, ideasResponse{
		Ideas:    ideaViews(ideas),
		Selected: 0,
		Message:  i18n.Sprintf(locale, i18n.MsgIdeasReady, len(ideas)),
	})
}

type editIdeaRequest struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

func (a *App) EditIdea(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.fail(w, r, domain.Validationf("invalid idea index %q", chi.URLParam(r, "index")))
		return
	}
	var req editIdeaRequest
	if err := a.decode(w, r, &req, false); err != nil {
		a.badRequest(w, r, err)
		return
	}
	idea, err := sess.EditIdea(index, req.Title, req.Prompt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, ideaView{Index: index, Title: idea.Title, Prompt: idea.Prompt})
}

type selectIdeaRequest struct {
	Index int `json:"index"`
}

func (a *App) SelectIdea(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req selectIdeaRequest
	if err := a.decode(w, r, &req, false); err != nil {
		a.badRequest(w, r, err)
		return
	}
	if err := sess.Select(req.Index); err != nil {
		a.fail(w, r, err)
		return
	}
	idea, err := sess.SelectedIdea()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, ideaView{Index: req.Index, Title: idea.Title, Prompt: idea.Prompt})
}
