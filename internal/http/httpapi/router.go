package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mirage/internal/http/handlers"
	"mirage/internal/middleware"
)

// NewRouter assembles the API surface.
func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(),
	)

	r.Get("/health", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/generate", app.Generate)
		r.Get("/status/{jobID}", app.Status)

		// Relay-shaped flow
		r.Get("/image", app.Image)
		r.Get("/poll", app.Poll)
		r.Post("/callback", app.Callback)

		r.Post("/rate", app.Rate)
	})

	return r
}
