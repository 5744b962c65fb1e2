package pipeline

import "errors"

// ErrNextCalledTwice is returned when a middleware invokes its continuation
// more than once.
var ErrNextCalledTwice = errors.New("pipeline: next() called multiple times")

// Handler produces a response for a request.
type Handler func(c *Ctx) (*Response, error)

// Next continues with the rest of the chain.
type Next func() (*Response, error)

// MiddlewareFunc is the signature of a middleware entry.
type MiddlewareFunc func(c *Ctx, next Next) (*Response, error)

// Middleware is a named middleware entry.
type Middleware struct {
	Name string
	Fn   MiddlewareFunc
}

// Named creates a middleware entry.
func Named(name string, fn MiddlewareFunc) Middleware {
	return Middleware{Name: name, Fn: fn}
}

// Compose builds a handler that runs mws in order.
//
// A single position counter is shared by the whole chain, so calling a
// continuation a second time fails with ErrNextCalledTwice. A middleware
// that returns (nil, nil) without calling next is continued past. When the
// chain ends without a response, notFound runs (NotFound if nil); this
// includes a middleware that called next, dropped its error and returned
// (nil, nil).
func Compose(mws []Middleware, notFound Handler) Handler {
	if notFound == nil {
		notFound = NotFound
	}

	return func(c *Ctx) (*Response, error) {
		index := -1
		var misuse error

		var dispatch func(i int) (*Response, error)
		dispatch = func(i int) (*Response, error) {
			if i <= index {
				misuse = ErrNextCalledTwice
				return nil, ErrNextCalledTwice
			}
			index = i

			if i >= len(mws) {
				return notFound(c)
			}
			mw := mws[i]
			if mw.Fn == nil {
				return dispatch(i + 1)
			}

			called := false
			var downstream *Response
			res, err := mw.Fn(c, func() (*Response, error) {
				called = true
				r, err := dispatch(i + 1)
				if err == nil && r != nil {
					downstream = r
				}
				return r, err
			})
			if misuse != nil {
				return nil, misuse
			}
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
			if called {
				if downstream != nil {
					return downstream, nil
				}
				return notFound(c)
			}
			return dispatch(i + 1)
		}

		return dispatch(0)
	}
}

// ComposeRoute composes mws with the route handler appended as the final
// entry, so the handler follows the same continuation protocol.
func ComposeRoute(mws []Middleware, handler Handler, notFound Handler) Handler {
	chain := make([]Middleware, 0, len(mws)+1)
	chain = append(chain, mws...)
	if handler != nil {
		chain = append(chain, Named("handler", func(c *Ctx, _ Next) (*Response, error) {
			return handler(c)
		}))
	}
	return Compose(chain, notFound)
}

// Chain combines several middleware into one entry.
func Chain(name string, mws ...Middleware) Middleware {
	return Named(name, func(c *Ctx, next Next) (*Response, error) {
		return Compose(mws, func(*Ctx) (*Response, error) { return next() })(c)
	})
}

// Skip bypasses mw when condition is true.
func Skip(condition func(c *Ctx) bool, mw Middleware) Middleware {
	return Named(mw.Name, func(c *Ctx, next Next) (*Response, error) {
		if condition(c) {
			return next()
		}
		return mw.Fn(c, next)
	})
}

// Only runs mw when condition is true.
func Only(condition func(c *Ctx) bool, mw Middleware) Middleware {
	return Named(mw.Name, func(c *Ctx, next Next) (*Response, error) {
		if !condition(c) {
			return next()
		}
		return mw.Fn(c, next)
	})
}
