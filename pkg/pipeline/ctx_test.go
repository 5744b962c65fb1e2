package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vango-dev/dispatch/pkg/router"
)

func TestNewCtx(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users/42?tab=posts", nil)
	route := &router.RouteSpec{ID: "user", Pattern: "/users/:id"}
	c := NewCtx(r, &router.MatchResult{Route: route, Params: router.Params{"id": "42"}})

	if c.Method() != http.MethodGet {
		t.Errorf("Method() = %q", c.Method())
	}
	if c.Path() != "/users/42" {
		t.Errorf("Path() = %q", c.Path())
	}
	if c.Route() != route {
		t.Error("Route() should return the matched route")
	}
	if c.Param("id") != "42" {
		t.Errorf("Param(id) = %q", c.Param("id"))
	}
	if c.QueryParam("tab") != "posts" {
		t.Errorf("QueryParam(tab) = %q", c.QueryParam("tab"))
	}
	if c.RequestID() == "" {
		t.Error("RequestID() should be generated")
	}
	if c.Logger() == nil {
		t.Error("Logger() should not be nil")
	}
}

func TestNewCtxUnmatched(t *testing.T) {
	c := NewCtx(httptest.NewRequest(http.MethodGet, "/nowhere", nil), nil)
	if c.Route() != nil {
		t.Error("Route() should be nil without a match")
	}
	if c.Params() == nil {
		t.Error("Params() should never be nil")
	}
	if c.Param("missing") != "" {
		t.Error("missing param should be empty")
	}
}

func TestCtxRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "from-header")
	if got := NewCtx(r, nil).RequestID(); got != "from-header" {
		t.Errorf("RequestID() = %q, want header value", got)
	}
	if got := NewCtx(r, nil, WithRequestID("override")).RequestID(); got != "override" {
		t.Errorf("RequestID() = %q, want override", got)
	}

	a := NewCtx(httptest.NewRequest(http.MethodGet, "/", nil), nil).RequestID()
	b := NewCtx(httptest.NewRequest(http.MethodGet, "/", nil), nil).RequestID()
	if a == b {
		t.Error("generated request IDs should differ")
	}
}

func TestCtxStore(t *testing.T) {
	c := newTestCtx(t, http.MethodGet, "/")
	type userKey struct{}

	if _, ok := c.Get(userKey{}); ok {
		t.Error("Get on empty store should report missing")
	}
	c.Set(userKey{}, "ada")
	if v := c.Value(userKey{}); v != "ada" {
		t.Errorf("Value() = %v", v)
	}
	if s, ok := ValueAs[string](c, userKey{}); !ok || s != "ada" {
		t.Errorf("ValueAs[string] = (%q, %v)", s, ok)
	}
	if _, ok := ValueAs[int](c, userKey{}); ok {
		t.Error("ValueAs with the wrong type should fail")
	}
	c.Delete(userKey{})
	if c.Value(userKey{}) != nil {
		t.Error("Delete should remove the value")
	}
}

func TestCtxStoreConcurrent(t *testing.T) {
	c := newTestCtx(t, http.MethodGet, "/")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i, i)
			_ = c.Value(i)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 16; i++ {
		if c.Value(i) != i {
			t.Fatalf("Value(%d) = %v", i, c.Value(i))
		}
	}
}

func TestCtxBind(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users/42/files/a/b", nil)
	route := &router.RouteSpec{ID: "user.files", Pattern: "/users/:id/files/*"}
	c := NewCtx(r, &router.MatchResult{Route: route, Params: router.Params{"id": "42", "wildcard": "a/b"}})

	var p struct {
		ID   int      `param:"id"`
		Rest []string `param:"wildcard"`
	}
	if err := c.Bind(&p); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if p.ID != 42 || len(p.Rest) != 2 || p.Rest[1] != "b" {
		t.Errorf("bound = %+v", p)
	}

	if err := c.Bind(&struct {
		ID bool `param:"id"`
	}{}); err == nil {
		t.Error("Bind into bool: error = nil")
	}

	unmatched := NewCtx(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if err := unmatched.Bind(&p); err != nil {
		t.Errorf("Bind without params: %v", err)
	}
}

func TestCtxBody(t *testing.T) {
	c := newTestCtx(t, http.MethodPost, "/")
	if _, ok := c.Body(); ok {
		t.Error("Body() should be unset initially")
	}
	c.SetBody(nil)
	if _, ok := c.Body(); !ok {
		t.Error("SetBody(nil) still marks the body as set")
	}
}

func TestCtxSetContext(t *testing.T) {
	type key struct{}
	c := newTestCtx(t, http.MethodGet, "/")
	ctx := context.WithValue(c.Context(), key{}, "v")
	c.SetContext(ctx)
	if c.Context().Value(key{}) != "v" {
		t.Error("Context() should return the replaced context")
	}
	if c.Request().Context().Value(key{}) != "v" {
		t.Error("Request() should carry the replaced context")
	}
}

func TestResponseHelpers(t *testing.T) {
	c := newTestCtx(t, http.MethodGet, "/")

	res, err := c.JSON(http.StatusOK, map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if res.Header.Get("Content-Type") != "application/json" || string(res.Body) != `{"n":1}` {
		t.Errorf("JSON response = %v %s", res.Header, res.Body)
	}

	if _, err := c.JSON(http.StatusOK, make(chan int)); err == nil {
		t.Error("JSON should fail for unsupported values")
	}

	res, _ = c.Redirect("/login", http.StatusFound)
	if res.Status != http.StatusFound || res.Header.Get("Location") != "/login" {
		t.Errorf("Redirect = %d %q", res.Status, res.Header.Get("Location"))
	}

	res, _ = c.NoContent(http.StatusNoContent)
	if res.Status != http.StatusNoContent || len(res.Body) != 0 {
		t.Errorf("NoContent = %d %q", res.Status, res.Body)
	}

	res, _ = c.Error(http.StatusBadRequest, "bad")
	if string(res.Body) != `{"error":"bad"}` {
		t.Errorf("Error body = %s", res.Body)
	}
}

func TestResponseSend(t *testing.T) {
	w := httptest.NewRecorder()
	res := HTML(http.StatusAccepted, "<p>hi</p>").SetHeader("X-Test", "1")
	if err := res.Send(w); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if w.Code != http.StatusAccepted {
		t.Errorf("Code = %d", w.Code)
	}
	if w.Header().Get("X-Test") != "1" || w.Header().Get("Content-Length") != "9" {
		t.Errorf("headers = %v", w.Header())
	}
	if w.Body.String() != "<p>hi</p>" {
		t.Errorf("body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	if err := (&Response{}).Send(w); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if w.Code != http.StatusOK {
		t.Errorf("zero status should be sent as 200, got %d", w.Code)
	}
}

func TestResponseClone(t *testing.T) {
	orig := Text(http.StatusOK, "body")
	cp := orig.Clone()
	cp.Header.Set("X-New", "1")
	cp.Body[0] = 'B'
	if orig.Header.Get("X-New") != "" || string(orig.Body) != "body" {
		t.Error("Clone should be a deep copy")
	}
	if (*Response)(nil).Clone() != nil {
		t.Error("nil Clone should return nil")
	}
}
