package dispatch

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

func TestMountOnChi(t *testing.T) {
	app := New(testConfig())
	mustSetRoutes(t, app, []router.RouteSpec{
		{ID: "home", Pattern: "/", Module: text("home")},
		{ID: "user", Pattern: "/users/:id", Module: func(c *pipeline.Ctx) (*pipeline.Response, error) {
			return c.Text(http.StatusOK, "user "+c.Param("id"))
		}},
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	app.Mount(r, "/app")

	tests := []struct {
		target string
		code   int
		body   string
	}{
		{"/api/health", http.StatusOK, "OK"},
		{"/app", http.StatusOK, "home"},
		{"/app/", http.StatusOK, "home"},
		{"/app/users/7", http.StatusOK, "user 7"},
		{"/app/users/a%2Fb", http.StatusNotFound, ""},
		{"/app/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestMountAtRoot(t *testing.T) {
	app := New(testConfig())
	mustSetRoutes(t, app, []router.RouteSpec{{ID: "x", Pattern: "/x", Module: text("x")}})

	r := chi.NewRouter()
	app.Mount(r, "/")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "x" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
