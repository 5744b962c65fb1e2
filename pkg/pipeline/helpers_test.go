package pipeline

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vango-dev/dispatch/pkg/router"
)

func newTestCtx(t *testing.T, method, path string) *Ctx {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	match := &router.MatchResult{
		Route:  &router.RouteSpec{ID: "test", Pattern: path},
		Params: router.Params{},
	}
	return NewCtx(r, match, WithCtxLogger(discardLogger()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inline runs scheduled work on the calling goroutine.
func inline(task func()) { task() }

// recorder collects event names in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func equalEvents(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func okHandler(c *Ctx) (*Response, error) {
	return Text(http.StatusOK, "ok"), nil
}
