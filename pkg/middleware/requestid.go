package middleware

import (
	"github.com/google/uuid"

	"github.com/vango-dev/dispatch/pkg/pipeline"
)

// RequestID returns middleware that echoes the request ID in the
// X-Request-ID response header.
//
// The Ctx takes the ID from the incoming header. With strict set, an
// incoming ID that is not a UUID is replaced by a fresh one before it is
// echoed, so client-chosen IDs cannot inject arbitrary text into logs.
func RequestID(strict bool) pipeline.Middleware {
	return pipeline.Named("request-id", func(c *pipeline.Ctx, next pipeline.Next) (*pipeline.Response, error) {
		id := c.RequestID()
		if strict {
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
		}
		c.Set(requestIDKey{}, id)

		res, err := next()
		if res != nil {
			res.SetHeader(pipeline.RequestIDHeader, id)
		}
		return res, err
	})
}

type requestIDKey struct{}

// RequestIDFrom returns the ID echoed by the RequestID middleware, falling
// back to the Ctx's request ID.
func RequestIDFrom(c *pipeline.Ctx) string {
	if id, ok := pipeline.ValueAs[string](c, requestIDKey{}); ok {
		return id
	}
	return c.RequestID()
}
