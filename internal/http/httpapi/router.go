package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/http/handlers"
	"github.com/Maciekds1981/kolorowanki/internal/middleware"
)

// Options carries the collaborators the middleware chain needs.
type Options struct {
	Logger        zerolog.Logger
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if app.Config.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.I18N(app.Config.DefaultLocale, opts.CountryLookup),
		middleware.CORS(app.Config.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.RouteOpenAPIJSON, app.OpenAPIJSON)
	r.Get(handlers.RouteDocs, app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute, app.RateLimited))

		r.Get("/v1/info", app.Info)

		r.Route("/v1/sessions", func(r chi.Router) {
			r.Post("/", app.CreateSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", app.GetSession)
				r.Delete("/", app.DeleteSession)
				r.Post("/ideas", app.GenerateIdeas)
				r.Put("/ideas/{index}", app.EditIdea)
				r.Post("/selection", app.SelectIdea)
				r.Post("/images", app.GenerateImages)
				r.Get("/images/{ordinal}", app.DownloadImage)
				r.Get("/archive", app.DownloadArchive)
			})
		})
	})

	return r
}
