package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/i18n"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, message, detail string) {
	a.json(w, status, errorResponse{Error: errorBody{Code: code, Message: message, Detail: detail}})
}

// fail maps err onto a status code and a localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	status, code, message, detail := classify(locale, err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", code).Int("status", status).Msg("request failed")
	a.error(w, r, status, code, message, detail)
}

func classify(locale string, err error) (status int, code, message, detail string) {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusBadRequest, "missing_api_key", i18n.Sprintf(locale, i18n.MsgMissingAPIKey), ""
	case errors.Is(err, domain.ErrNoIdeas):
		return http.StatusBadRequest, "no_ideas", i18n.Sprintf(locale, i18n.MsgPickIdeaFirst), ""
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation", i18n.Sprintf(locale, i18n.MsgInvalidRequest, err.Error()), err.Error()
	case errors.Is(err, domain.ErrNoArtifacts):
		return http.StatusNotFound, "no_images", i18n.Sprintf(locale, i18n.MsgNothingToSave), ""
	case errors.Is(err, domain.ErrStaleBatch):
		return http.StatusConflict, "stale_batch", i18n.Sprintf(locale, i18n.MsgStaleBatch), ""
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", i18n.Sprintf(locale, i18n.MsgNotFound), ""
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "api_error", i18n.Sprintf(locale, i18n.MsgAPIError, apiErr.Body), strconv.Itoa(apiErr.StatusCode)
	case errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway, "parse_error", i18n.Sprintf(locale, i18n.MsgParseError), err.Error()
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response", i18n.Sprintf(locale, i18n.MsgMalformed), err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", i18n.Sprintf(locale, i18n.MsgAPIError, "timeout"), ""
	default:
		return http.StatusInternalServerError, "internal", i18n.Sprintf(locale, i18n.MsgInternal), ""
	}
}

// RateLimited answers requests rejected by the rate limiter.
func (a *App) RateLimited(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	w.Header().Set("Retry-After", "60")
	a.error(w, r, http.StatusTooManyRequests, "rate_limited", i18n.Sprintf(locale, i18n.MsgRateLimited), "")
}

// badRequest reports an undecodable payload.
func (a *App) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	a.error(w, r, http.StatusBadRequest, "bad_request", i18n.Sprintf(locale, i18n.MsgInvalidRequest, "invalid payload"), err.Error())
}
