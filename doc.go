// Package dispatch is the request-dispatch core: it matches a request path
// against a route table, runs the route's middleware chain inside its
// lifecycle hooks and writes the response.
//
// A route table is a list of router.RouteSpec. Each spec's Module field
// holds what serves it: a *Module, a Module, or a bare handler func.
//
//	routes := []router.RouteSpec{
//	    {ID: "home", Pattern: "/", Module: homeHandler},
//	    {ID: "user", Pattern: "/users/:id", Module: &dispatch.Module{
//	        Handlers: map[string]pipeline.Handler{
//	            http.MethodGet:    showUser,
//	            http.MethodDelete: deleteUser,
//	        },
//	    }},
//	    {ID: "files", Pattern: "/files/*", Module: serveFile},
//	}
//
//	app := dispatch.New(dispatch.Config{})
//	if err := app.SetRoutes(routes); err != nil {
//	    log.Fatal(err)
//	}
//
// SetRoutes can be called again at any time, for example when a route
// manifest changes on disk. In-flight requests finish on the table they
// started with.
//
// Hooks run in three layers: global (App.Hooks), scoped (App.Scope) and
// local (Module.Hooks). A request that matches a route but not its methods
// is answered 405 with an Allow header. A request that matches nothing runs
// the not-found handler behind the global middleware and hooks.
package dispatch
