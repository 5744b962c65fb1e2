package routepath

import "strings"

// Normalize prepares a path for registration or matching.
//
// An empty path becomes "/". A single trailing slash is removed unless the
// path is exactly "/". Nothing else is rewritten: registration and matching
// must see byte-identical input for the static table to be exact.
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

// Split returns the segments of a normalized path.
// The root path has no segments. Empty segments ("/a//b") are preserved.
func Split(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// SplitPathAndQuery splits a path into path and query components.
// The query is returned without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}
