package pipeline

import (
	"sync"
	"testing"
)

func TestStageString(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageRequestStart, "request-start"},
		{StageBodyParse, "body-parse"},
		{StagePreHandle, "pre-handle"},
		{StagePostHandle, "post-handle"},
		{StageResponseMap, "response-map"},
		{StagePostResponse, "post-response"},
		{StageOnError, "on-error"},
		{StageHandler, "handler"},
		{Stage(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestLifecycleRegistration(t *testing.T) {
	lc := NewLifecycle(ScopeGlobal)
	lc.OnRequest(func(c *Ctx) (*Response, error) { return nil, nil }).
		BeforeHandle(func(c *Ctx) (*Response, error) { return nil, nil }, WithScope(ScopeLocal)).
		AfterResponse(func(c *Ctx, res *Response) error { return nil }, WithChecksum("log"))

	if got := lc.Len(StageRequestStart); got != 1 {
		t.Errorf("Len(RequestStart) = %d, want 1", got)
	}
	if lc.RequestStart[0].Scope != ScopeGlobal {
		t.Errorf("default scope = %s, want global", lc.RequestStart[0].Scope)
	}
	if lc.PreHandle[0].Scope != ScopeLocal {
		t.Errorf("overridden scope = %s, want local", lc.PreHandle[0].Scope)
	}
	if lc.PostResponse[0].Checksum != "log" {
		t.Errorf("Checksum = %q, want log", lc.PostResponse[0].Checksum)
	}
	if got := (*Lifecycle)(nil).Len(StagePreHandle); got != 0 {
		t.Errorf("nil Len = %d, want 0", got)
	}
}

func TestMergeOrderAndDedup(t *testing.T) {
	rec := &recorder{}
	hook := func(name string) RequestHook {
		return func(c *Ctx) (*Response, error) {
			rec.add(name)
			return nil, nil
		}
	}

	global := NewLifecycle(ScopeGlobal).
		BeforeHandle(hook("global-auth"), WithChecksum("auth")).
		BeforeHandle(hook("global"))
	scoped := NewLifecycle(ScopeScoped).
		BeforeHandle(hook("scoped-auth"), WithChecksum("auth")).
		BeforeHandle(hook("scoped"))
	local := NewLifecycle(ScopeLocal).
		BeforeHandle(hook("local")).
		BeforeHandle(hook("local-unnamed"))

	merged := Merge(global, nil, scoped, local)
	if got := merged.Len(StagePreHandle); got != 5 {
		t.Fatalf("merged Len = %d, want 5", got)
	}

	c := newTestCtx(t, "GET", "/")
	for _, h := range merged.PreHandle {
		if _, err := h.Fn(c); err != nil {
			t.Fatalf("hook error: %v", err)
		}
	}
	equalEvents(t, rec.list(), []string{"global-auth", "global", "scoped", "local", "local-unnamed"})

	if global.Len(StagePreHandle) != 2 || scoped.Len(StagePreHandle) != 2 {
		t.Error("Merge must not modify its inputs")
	}
}

func TestMergeEmptyChecksumNeverDedups(t *testing.T) {
	fn := func(c *Ctx, res *Response) error { return nil }
	a := NewLifecycle(ScopeGlobal).AfterResponse(fn)
	b := NewLifecycle(ScopeLocal).AfterResponse(fn)

	if got := Merge(a, b).Len(StagePostResponse); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestLifecycleConcurrentRegisterAndMerge(t *testing.T) {
	global := NewLifecycle(ScopeGlobal)
	nop := func(c *Ctx) (*Response, error) { return nil, nil }

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				global.BeforeHandle(nop)
				global.AfterResponse(func(c *Ctx, res *Response) error { return nil })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = Merge(global, NewLifecycle(ScopeLocal))
				_ = global.Len(StagePreHandle)
			}
		}()
	}
	wg.Wait()

	if got := global.Len(StagePreHandle); got != 400 {
		t.Errorf("Len(PreHandle) = %d, want 400", got)
	}
	if got := Merge(global).Len(StagePostResponse); got != 400 {
		t.Errorf("merged Len(PostResponse) = %d, want 400", got)
	}
}

func TestLifecycleAppendSelf(t *testing.T) {
	lc := NewLifecycle(ScopeGlobal)
	lc.BeforeHandle(func(c *Ctx) (*Response, error) { return nil, nil })
	lc.Append(lc)
	if got := lc.Len(StagePreHandle); got != 2 {
		t.Errorf("Len(PreHandle) = %d, want 2", got)
	}
}
