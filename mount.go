package dispatch

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Mount serves the app under prefix on a chi router. The prefix is
// stripped before matching, so routes are registered without it.
//
//	r := chi.NewRouter()
//	r.Use(middleware.Recoverer)
//	r.Get("/healthz", health)
//	app.Mount(r, "/app")
func (a *App) Mount(r chi.Router, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		r.Handle("/*", a)
		return
	}

	h := http.StripPrefix(prefix, a)
	r.Handle(prefix, h)
	r.Handle(prefix+"/*", h)
}
