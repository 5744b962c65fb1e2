package dispatch

import (
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/vango-dev/dispatch/pkg/router"
)

func TestAssetPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"app.css", "app.css", true},
		{"css/app.css", "css/app.css", true},
		{"my%20file.txt", "my file.txt", true},
		{"", "", false},
		{"../etc/passwd", "", false},
		{"css/../../x", "", false},
		{"./app.css", "", false},
		{"a%2Fb", "", false},
		{"%2e%2e/x", "", false},
		{"a%00b", "", false},
		{"a%5Cb", "", false},
		{"%GG", "", false},
	}
	for _, tt := range tests {
		got, ok := assetPath(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("assetPath(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsFingerprinted(t *testing.T) {
	tests := map[string]bool{
		"app.a1b2c3d4.css":  true,
		"js/app.DEADBEEF.js": true,
		"app.css":            false,
		"app.a1b2.css":       false,
		"app.zzzzzzzz.css":   false,
	}
	for name, want := range tests {
		if got := isFingerprinted(name); got != want {
			t.Errorf("isFingerprinted(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestAssetsModule(t *testing.T) {
	fsys := fstest.MapFS{
		"app.a1b2c3d4.css": {Data: []byte("body{}")},
		"js/app.js":        {Data: []byte("console.log(1)")},
	}
	app := New(testConfig())
	mustSetRoutes(t, app, []router.RouteSpec{{
		ID:      "static",
		Pattern: "/static/*",
		Kind:    router.KindAsset,
		Module: Assets(fsys, AssetOptions{
			CacheControl: CacheControlProduction,
			Headers:      map[string]string{"X-Asset": "1"},
		}),
	}})

	rec := serve(t, app, http.MethodGet, "/static/app.a1b2c3d4.css")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=31536000, immutable" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if rec.Header().Get("X-Asset") != "1" {
		t.Error("custom header missing")
	}

	rec = serve(t, app, http.MethodGet, "/static/js/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600, must-revalidate" {
		t.Errorf("Cache-Control = %q", cc)
	}

	for _, target := range []string{"/static/missing.css", "/static/js", "/static/js%2Fapp.js"} {
		if rec := serve(t, app, http.MethodGet, target); rec.Code != http.StatusNotFound {
			t.Errorf("%s: code = %d, want 404", target, rec.Code)
		}
	}

	if rec := serve(t, app, http.MethodPost, "/static/js/app.js"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST code = %d, want 405", rec.Code)
	}
}
