package router

import (
	"fmt"
	"testing"
)

func benchRouter(b *testing.B, routes ...RouteSpec) *Router {
	b.Helper()
	r, err := NewFromRoutes(routes)
	if err != nil {
		b.Fatal(err)
	}
	return r
}

// BenchmarkRouterMatchStatic benchmarks matching a static route.
func BenchmarkRouterMatchStatic(b *testing.B) {
	r := benchRouter(b,
		RouteSpec{ID: "home", Pattern: "/"},
		RouteSpec{ID: "about", Pattern: "/about"},
		RouteSpec{ID: "contact", Pattern: "/contact"},
		RouteSpec{ID: "pricing", Pattern: "/pricing"},
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/about")
	}
}

// BenchmarkRouterMatchParam benchmarks matching a parameterized route.
func BenchmarkRouterMatchParam(b *testing.B) {
	r := benchRouter(b, RouteSpec{ID: "user", Pattern: "/users/:id"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/users/123")
	}
}

// BenchmarkRouterMatchMultipleParams benchmarks matching multiple parameters.
func BenchmarkRouterMatchMultipleParams(b *testing.B) {
	r := benchRouter(b, RouteSpec{ID: "comment", Pattern: "/users/:userId/posts/:postId/comments/:commentId"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/users/42/posts/100/comments/999")
	}
}

// BenchmarkRouterMatchWildcard benchmarks matching a wildcard route.
func BenchmarkRouterMatchWildcard(b *testing.B) {
	r := benchRouter(b, RouteSpec{ID: "files", Pattern: "/files/*"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/files/a/b/c/d/e")
	}
}

// BenchmarkRouterManyRoutes benchmarks matching against a large table.
func BenchmarkRouterManyRoutes(b *testing.B) {
	var routes []RouteSpec
	for i := 0; i < 100; i++ {
		routes = append(routes,
			RouteSpec{ID: fmt.Sprintf("s%d", i), Pattern: fmt.Sprintf("/route%d", i)},
			RouteSpec{ID: fmt.Sprintf("d%d", i), Pattern: fmt.Sprintf("/route%d/:id", i)},
		)
	}
	r := benchRouter(b, routes...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/route50/123")
	}
}

// BenchmarkRouterSetRoutes benchmarks rebuilding a table.
func BenchmarkRouterSetRoutes(b *testing.B) {
	var routes []RouteSpec
	for i := 0; i < 100; i++ {
		routes = append(routes, RouteSpec{ID: fmt.Sprintf("d%d", i), Pattern: fmt.Sprintf("/api/v%d/:resource/:id", i)})
	}
	r := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.SetRoutes(routes); err != nil {
			b.Fatal(err)
		}
	}
}
