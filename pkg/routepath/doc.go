// Package routepath holds the path helpers shared by the route table and the
// transport boundary: normalization, segment splitting and the decode guard
// applied to every value bound to a route parameter.
package routepath
