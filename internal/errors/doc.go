// Package errors provides structured, actionable diagnostics for the
// dispatch CLI.
//
// A Diagnostic carries a code, a plain-language explanation and a hint on
// how to fix the problem. Route registration errors from the router map
// onto the R codes:
//
//	R001  duplicate pattern
//	R002  parameter name conflict
//	R003  wildcard not last
//	R004  route conflict
//	R005  invalid pattern
//	R006  route has no handler
//
// Configuration problems use C codes and manifest problems use M codes.
//
// # Usage
//
//	if err := r.SetRoutes(routes); err != nil {
//	    d := errors.FromRouteError(err).WithFile("routes.json")
//	    fmt.Print(d.Format())
//	}
//
//	// Output:
//	// ERROR R001: Duplicate route pattern
//	//
//	//   routes.json (route users.list)
//	//
//	//   Two routes normalize to the same pattern "/users".
//	//
//	//   Hint: Remove one of the routes or change its pattern
package errors
