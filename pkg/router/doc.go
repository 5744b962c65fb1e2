// Package router matches URL paths against a fixed set of route patterns.
//
// The table is hybrid: purely static patterns live in an exact-match map,
// patterns with parameters or a trailing wildcard live in a segment trie.
//
// # Patterns
//
//	/about              static
//	/users/:id          parameter, bound as params["id"]
//	/assets/*           wildcard, remainder bound as params["wildcard"]
//	/docs/:path*        named wildcard, remainder bound as "wildcard" and "path"
//
// A wildcard must be the last segment and needs at least one segment to
// consume: /assets/* never matches /assets.
//
// # Precedence
//
// Static patterns always win, then parameter children, then the deepest
// wildcard seen on the way down:
//
//	r, _ := router.NewFromRoutes([]router.RouteSpec{
//	    {ID: "api", Pattern: "/docs/api"},
//	    {ID: "doc", Pattern: "/docs/:slug"},
//	    {ID: "tree", Pattern: "/docs/:path*"},
//	})
//	r.Match("/docs/api")   // api
//	r.Match("/docs/intro") // doc, slug=intro
//	r.Match("/docs/a/b")   // tree, wildcard=a/b
//
// # Safety
//
// Values bound to parameters pass through routepath.DecodeParam. A rejected
// value fails the whole match, indistinguishable from an unknown path.
//
// # Concurrency
//
// A published table is never mutated. SetRoutes and AddRoute build a new
// table off to the side and swap a single pointer, so concurrent Match calls
// see either the old or the new table in full.
package router
