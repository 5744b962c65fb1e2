package pipeline

import (
	"slices"
	"sync"
)

// Stage identifies a lifecycle stage.
type Stage uint8

const (
	StageRequestStart Stage = iota
	StageBodyParse
	StagePreHandle
	StagePostHandle
	StageResponseMap
	StagePostResponse
	StageOnError

	// StageHandler labels failures of the route handler itself.
	StageHandler
)

var stageNames = [...]string{
	StageRequestStart: "request-start",
	StageBodyParse:    "body-parse",
	StagePreHandle:    "pre-handle",
	StagePostHandle:   "post-handle",
	StageResponseMap:  "response-map",
	StagePostResponse: "post-response",
	StageOnError:      "on-error",
	StageHandler:      "handler",
}

// String returns the stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Scope records where a hook was registered.
type Scope uint8

const (
	// ScopeLocal hooks belong to a single route.
	ScopeLocal Scope = iota
	// ScopeScoped hooks apply to every route under a pattern prefix.
	ScopeScoped
	// ScopeGlobal hooks apply to every route.
	ScopeGlobal
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeScoped:
		return "scoped"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Hook signatures, one per stage.
type (
	// RequestHook runs at request-start and pre-handle. A non-nil response
	// short-circuits the handler.
	RequestHook func(c *Ctx) (*Response, error)

	// ParseHook runs at body-parse. The first non-nil value becomes the body.
	ParseHook func(c *Ctx) (any, error)

	// AfterHook runs at post-handle.
	AfterHook func(c *Ctx, res *Response) error

	// MapHook runs at response-map. A non-nil return replaces the response.
	MapHook func(c *Ctx, res *Response) (*Response, error)

	// ResponseHook runs at post-response, after the response is final. It
	// receives a copy of the response.
	ResponseHook func(c *Ctx, res *Response) error

	// ErrorHook runs at on-error. The first non-nil response wins.
	ErrorHook func(c *Ctx, err error) (*Response, error)
)

// HookContainer wraps a hook with its registration metadata.
type HookContainer[F any] struct {
	Fn    F
	Scope Scope

	// Checksum deduplicates hooks across merged lifecycles. Empty never
	// deduplicates.
	Checksum string
}

// Lifecycle holds the ordered hooks of every stage.
type Lifecycle struct {
	RequestStart []HookContainer[RequestHook]
	BodyParse    []HookContainer[ParseHook]
	PreHandle    []HookContainer[RequestHook]
	PostHandle   []HookContainer[AfterHook]
	ResponseMap  []HookContainer[MapHook]
	PostResponse []HookContainer[ResponseHook]
	OnError      []HookContainer[ErrorHook]

	// mu guards registration and merging. The executor reads merged
	// lifecycles, which are not registered on afterwards.
	mu    sync.RWMutex
	scope Scope
}

// NewLifecycle creates a lifecycle whose hooks default to scope.
func NewLifecycle(scope Scope) *Lifecycle {
	return &Lifecycle{scope: scope}
}

// HookOption configures a registered hook.
type HookOption func(*hookOptions)

type hookOptions struct {
	scope    Scope
	checksum string
}

// WithScope overrides the hook's scope.
func WithScope(s Scope) HookOption {
	return func(o *hookOptions) {
		o.scope = s
	}
}

// WithChecksum sets the dedup checksum.
func WithChecksum(sum string) HookOption {
	return func(o *hookOptions) {
		o.checksum = sum
	}
}

func container[F any](l *Lifecycle, fn F, opts []HookOption) HookContainer[F] {
	o := hookOptions{scope: l.scope}
	for _, opt := range opts {
		opt(&o)
	}
	return HookContainer[F]{Fn: fn, Scope: o.scope, Checksum: o.checksum}
}

func add[F any](l *Lifecycle, dst *[]HookContainer[F], fn F, opts []HookOption) {
	h := container(l, fn, opts)
	l.mu.Lock()
	*dst = append(*dst, h)
	l.mu.Unlock()
}

// OnRequest adds a request-start hook.
func (l *Lifecycle) OnRequest(fn RequestHook, opts ...HookOption) *Lifecycle {
	add(l, &l.RequestStart, fn, opts)
	return l
}

// OnParse adds a body-parse hook.
func (l *Lifecycle) OnParse(fn ParseHook, opts ...HookOption) *Lifecycle {
	add(l, &l.BodyParse, fn, opts)
	return l
}

// BeforeHandle adds a pre-handle hook.
func (l *Lifecycle) BeforeHandle(fn RequestHook, opts ...HookOption) *Lifecycle {
	add(l, &l.PreHandle, fn, opts)
	return l
}

// AfterHandle adds a post-handle hook.
func (l *Lifecycle) AfterHandle(fn AfterHook, opts ...HookOption) *Lifecycle {
	add(l, &l.PostHandle, fn, opts)
	return l
}

// MapResponse adds a response-map hook.
func (l *Lifecycle) MapResponse(fn MapHook, opts ...HookOption) *Lifecycle {
	add(l, &l.ResponseMap, fn, opts)
	return l
}

// AfterResponse adds a post-response hook.
func (l *Lifecycle) AfterResponse(fn ResponseHook, opts ...HookOption) *Lifecycle {
	add(l, &l.PostResponse, fn, opts)
	return l
}

// OnErrorHook adds an on-error hook.
func (l *Lifecycle) OnErrorHook(fn ErrorHook, opts ...HookOption) *Lifecycle {
	add(l, &l.OnError, fn, opts)
	return l
}

// Len returns the number of hooks registered for stage.
func (l *Lifecycle) Len(stage Stage) int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	switch stage {
	case StageRequestStart:
		return len(l.RequestStart)
	case StageBodyParse:
		return len(l.BodyParse)
	case StagePreHandle:
		return len(l.PreHandle)
	case StagePostHandle:
		return len(l.PostHandle)
	case StageResponseMap:
		return len(l.ResponseMap)
	case StagePostResponse:
		return len(l.PostResponse)
	case StageOnError:
		return len(l.OnError)
	default:
		return 0
	}
}

// Merge concatenates lifecycles in order (global, scoped, local). A hook
// whose non-empty checksum already appeared in the same stage is dropped.
// Nil layers are skipped. The inputs are not modified.
func Merge(layers ...*Lifecycle) *Lifecycle {
	out := &Lifecycle{}
	for _, l := range layers {
		out.Append(l)
	}
	return out
}

// Append adds the hooks of other after l's own, with the same checksum
// rule as Merge. Hooks keep the scope they were registered with.
func (l *Lifecycle) Append(other *Lifecycle) *Lifecycle {
	if other == nil {
		return l
	}
	src := other.snapshot()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.RequestStart = mergeStage(l.RequestStart, src.RequestStart)
	l.BodyParse = mergeStage(l.BodyParse, src.BodyParse)
	l.PreHandle = mergeStage(l.PreHandle, src.PreHandle)
	l.PostHandle = mergeStage(l.PostHandle, src.PostHandle)
	l.ResponseMap = mergeStage(l.ResponseMap, src.ResponseMap)
	l.PostResponse = mergeStage(l.PostResponse, src.PostResponse)
	l.OnError = mergeStage(l.OnError, src.OnError)
	return l
}

// snapshot copies the stage slices under the read lock.
func (l *Lifecycle) snapshot() *Lifecycle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Lifecycle{
		RequestStart: slices.Clone(l.RequestStart),
		BodyParse:    slices.Clone(l.BodyParse),
		PreHandle:    slices.Clone(l.PreHandle),
		PostHandle:   slices.Clone(l.PostHandle),
		ResponseMap:  slices.Clone(l.ResponseMap),
		PostResponse: slices.Clone(l.PostResponse),
		OnError:      slices.Clone(l.OnError),
	}
}

func mergeStage[F any](dst, src []HookContainer[F]) []HookContainer[F] {
	for _, h := range src {
		if h.Checksum != "" && hasChecksum(dst, h.Checksum) {
			continue
		}
		dst = append(dst, h)
	}
	return dst
}

func hasChecksum[F any](hooks []HookContainer[F], sum string) bool {
	for _, h := range hooks {
		if h.Checksum == sum {
			return true
		}
	}
	return false
}
