package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/i18n"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
	"github.com/Maciekds1981/kolorowanki/internal/providers/image"
)

type generateImagesRequest struct {
	Count   int    `json:"count"`
	Size    int    `json:"size"`
	Quality string `json:"quality"`
}

type imagesResponse struct {
	Prompt    string        `json:"prompt"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Replaced  bool          `json:"replaced"`
	Outcomes  []outcomeView `json:"outcomes"`
	Message   string        `json:"message"`
}

// GenerateImages runs one batch for the selected idea. Failed variants are
// reported per ordinal; the response is 200 as long as the batch ran.
func (a *App) GenerateImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req generateImagesRequest
	if err := a.decode(w, r, &req, true); err != nil {
		a.badRequest(w, r, err)
		return
	}
	sel, err := sess.Selection()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	idea := sel.Idea
	if req.Count == 0 {
		req.Count = domain.DefaultVariants
	}
	if req.Size == 0 {
		req.Size = domain.DefaultSizePx
	}

	logger := zerolog.Ctx(r.Context())
	batch := image.NewBatchGenerator(a.clientFor(r, sess), image.BatchOptions{
		Limiter: a.ImageLimiter,
		Logger:  logger,
	})
	outcomes, err := batch.GenerateBatch(r.Context(), image.BatchRequest{
		BasePrompt: idea.Prompt,
		Count:      req.Count,
		SizePx:     req.Size,
		Quality:    domain.Quality(req.Quality),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	replaced, err := sess.RecordBatch(sel.Generation, outcomes)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	succeeded := len(domain.Successes(outcomes))
	logger.Info().
		Str("session_id", sess.ID).
		Int("requested", req.Count).
		Int("succeeded", succeeded).
		Msg("image batch finished")

	locale := middleware.LocaleFromContext(r.Context())
	message := i18n.Sprintf(locale, i18n.MsgImagesReady, succeeded, req.Count)
	if succeeded == 0 {
		message = i18n.Sprintf(locale, i18n.MsgNoImages)
	}
	a.json(w, http.StatusOK, imagesResponse{
		Prompt:    image.NormalizeColoringPrompt(idea.Prompt),
		Requested: req.Count,
		Succeeded: succeeded,
		Replaced:  replaced,
		Outcomes:  outcomeViews(sess.ID, locale, outcomes),
		Message:   message,
	})
}

// DownloadImage serves one current image as a PNG attachment.
func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		a.fail(w, r, domain.Validationf("invalid ordinal %q", chi.URLParam(r, "ordinal")))
		return
	}
	artifact, err := sess.Artifact(ordinal)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.attachment(w, domain.ImageMIME, artifact.FileName(), artifact.Data)
}

// DownloadArchive zips every current image.
func (a *App) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	artifacts := sess.Artifacts()
	if len(artifacts) == 0 {
		a.fail(w, r, domain.ErrNoArtifacts)
		return
	}
	archive, err := domain.BuildArchive(artifacts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.attachment(w, domain.ArchiveMIME, domain.ArchiveFileName, archive)
}

func (a *App) attachment(w http.ResponseWriter, mime, filename string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
