// Package pipeline runs a matched route's request through its lifecycle.
//
// A request passes through a fixed sequence of stages:
//
//	request-start -> body-parse -> pre-handle -> [middleware + handler]
//	    -> post-handle -> response-map -> post-response (deferred)
//
// body-parse only runs for POST, PUT, PATCH and DELETE. The first
// request-start or pre-handle hook returning a response short-circuits the
// handler, post-handle and response-map stages. post-response hooks always
// run, after the response is final, without delaying it.
//
// Errors raised anywhere before post-response are offered to on-error hooks
// in order; the first hook to return a response wins. If none does, Run
// returns the original error unchanged.
//
// # Middleware
//
// Middleware uses continuation passing:
//
//	auth := pipeline.Named("auth", func(c *pipeline.Ctx, next pipeline.Next) (*pipeline.Response, error) {
//	    if c.Header("Authorization") == "" {
//	        return c.Text(http.StatusUnauthorized, "unauthorized")
//	    }
//	    return next()
//	})
//
// Returning a response short-circuits the rest of the chain. Returning
// (nil, nil) without calling next continues with the next entry. Calling
// next twice fails with ErrNextCalledTwice. The route handler is appended as
// the final entry; if the chain ends without a response the not-found
// handler runs.
package pipeline
