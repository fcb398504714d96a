package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"memegenius/internal/http/handlers"
	"memegenius/internal/infra"
	"memegenius/internal/middleware"
)

// Options configure the middleware stack.
type Options struct {
	Logger          *infra.Logger
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*logger),
		chimw.Recoverer,
		middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins)),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	aiLimit := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/templates", app.ListTemplates)
		r.Get("/library", app.ListLibrary)

		r.Route("/editor", func(r chi.Router) {
			r.Get("/", app.GetEditor)
			r.Patch("/text", app.UpdateText)
			r.Patch("/style", app.UpdateStyle)
			r.Post("/reset", app.ResetText)
			r.Put("/instruction", app.SetInstruction)
			r.Put("/auto-magic", app.SetAutoMagic)
			r.Post("/image", app.SetImage)
			r.Get("/download", app.Download)
			r.Delete("/notices/{id}", app.DismissNotice)
			r.Post("/captions/{index}/apply", app.ApplySuggestion)

			r.With(aiLimit).Post("/captions", app.SuggestCaptions)
			r.With(aiLimit).Post("/edit", app.EditImage)
		})

		r.Route("/camera", func(r chi.Router) {
			r.Get("/", app.CameraStatus)
			r.Post("/open", app.CameraOpen)
			r.Post("/frames", app.CameraFrame)
			r.Post("/close", app.CameraClose)
			r.With(aiLimit).Post("/capture", app.CameraCapture)
		})
	})

	return r
}
