package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/dispatch"
	"github.com/vango-dev/dispatch/pkg/router"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "route error", code: "R001", wantMsg: "Duplicate route pattern", wantCat: CategoryRoute},
		{name: "config error", code: "C002", wantMsg: "Invalid configuration file", wantCat: CategoryConfig},
		{name: "manifest error", code: "M001", wantMsg: "Route manifest not found", wantCat: CategoryManifest},
		{name: "unknown error code", code: "Z999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryComplete(t *testing.T) {
	for _, code := range []string{"R001", "R002", "R003", "R004", "R005", "R006"} {
		if _, ok := Lookup(code); !ok {
			t.Errorf("code %s is not registered", code)
		}
	}
	if len(Codes()) == 0 {
		t.Error("Codes() should not be empty")
	}
}

func TestFromRouteError(t *testing.T) {
	tests := []struct {
		name     string
		routes   []router.RouteSpec
		wantCode string
		wantID   string
	}{
		{
			name:     "duplicate pattern",
			routes:   []router.RouteSpec{{ID: "a", Pattern: "/a"}, {ID: "b", Pattern: "/a/"}},
			wantCode: "R001",
			wantID:   "b",
		},
		{
			name:     "param name conflict",
			routes:   []router.RouteSpec{{ID: "a", Pattern: "/u/:id"}, {ID: "b", Pattern: "/u/:name/x"}},
			wantCode: "R002",
			wantID:   "b",
		},
		{
			name:     "wildcard not last",
			routes:   []router.RouteSpec{{ID: "a", Pattern: "/f/*/x"}},
			wantCode: "R003",
			wantID:   "a",
		},
		{
			name:     "route conflict",
			routes:   []router.RouteSpec{{ID: "a", Pattern: "/f/*"}, {ID: "b", Pattern: "/f/:rest*"}},
			wantCode: "R004",
			wantID:   "b",
		},
		{
			name:     "invalid pattern",
			routes:   []router.RouteSpec{{ID: "a", Pattern: "nope"}},
			wantCode: "R005",
			wantID:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := router.NewFromRoutes(tt.routes)
			if err == nil {
				t.Fatal("expected registration error")
			}
			d := FromRouteError(err)
			if d.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", d.Code, tt.wantCode)
			}
			if d.Location == nil || d.Location.Route != tt.wantID {
				t.Errorf("Location = %v, want route %s", d.Location, tt.wantID)
			}
			var re *router.Error
			if !stderrors.As(d, &re) {
				t.Error("Diagnostic should unwrap to *router.Error")
			}
		})
	}
}

func TestFromRouteErrorMissingHandler(t *testing.T) {
	err := &dispatch.RouteError{RouteID: "orphan", Err: dispatch.ErrNoModule}
	d := FromRouteError(err)
	if d.Code != "R006" {
		t.Fatalf("Code = %q, want R006", d.Code)
	}
	if d.Location.Route != "orphan" {
		t.Errorf("Route = %q", d.Location.Route)
	}

	other := FromRouteError(fmt.Errorf("something else"))
	if other.Code != "X001" {
		t.Errorf("Code = %q, want X001", other.Code)
	}
	if FromRouteError(nil) != nil {
		t.Error("FromRouteError(nil) should be nil")
	}
}

func TestFromErrorKeepsDiagnostic(t *testing.T) {
	orig := New("C001")
	wrapped := fmt.Errorf("loading: %w", orig)
	if got := FromError(wrapped, "X001"); got != orig {
		t.Error("FromError should return the wrapped Diagnostic")
	}
	if FromError(nil, "X001") != nil {
		t.Error("FromError(nil) should be nil")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	d := New("R001").WithFile("routes.json").WithRoute("users").WithDetail("Pattern \"/users\"")
	out := d.Format()
	for _, want := range []string{
		"ERROR R001: Duplicate route pattern",
		"routes.json (route users)",
		"Pattern \"/users\"",
		"Hint: Remove one of the routes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	compact := d.FormatCompact()
	if compact != `routes.json (route users): R001: Duplicate route pattern (Pattern "/users")` {
		t.Errorf("FormatCompact() = %q", compact)
	}

	js := d.FormatJSON()
	for _, want := range []string{`"code":"R001"`, `"route":"users"`, `"file":"routes.json"`, `"category":"route"`} {
		if !strings.Contains(js, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, js)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}
