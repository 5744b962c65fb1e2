package router

import (
	"strings"

	"github.com/vango-dev/dispatch/pkg/routepath"
)

// table is one immutable-once-published route table.
type table struct {
	// routes holds every route in registration order; indexes are stable.
	routes []RouteSpec

	// static is the exact-match table for purely static patterns.
	static map[string]int32

	// patterns indexes every normalized pattern for duplicate detection.
	patterns map[string]int32

	// ids indexes route identifiers.
	ids map[string]int32

	trie trie
}

func newTable() *table {
	return &table{
		static:   make(map[string]int32),
		patterns: make(map[string]int32),
		ids:      make(map[string]int32),
		trie:     newTrie(),
	}
}

// clone returns a deep copy suitable for copy-on-write insertion.
func (t *table) clone() *table {
	c := &table{
		routes:   append([]RouteSpec(nil), t.routes...),
		static:   make(map[string]int32, len(t.static)),
		patterns: make(map[string]int32, len(t.patterns)),
		ids:      make(map[string]int32, len(t.ids)),
		trie:     t.trie.clone(),
	}
	for k, v := range t.static {
		c.static[k] = v
	}
	for k, v := range t.patterns {
		c.patterns[k] = v
	}
	for k, v := range t.ids {
		c.ids[k] = v
	}
	return c
}

// add validates and registers a route.
func (t *table) add(route RouteSpec) error {
	cp, err := compilePattern(&route)
	if err != nil {
		return err
	}

	if existing, ok := t.ids[route.ID]; ok {
		return &Error{
			Kind:       KindRouteConflict,
			RouteID:    route.ID,
			ConflictID: t.routes[existing].ID,
			Pattern:    route.Pattern,
			Detail:     "duplicate route id",
		}
	}
	if existing, ok := t.patterns[cp.normalized]; ok {
		return &Error{
			Kind:       KindDuplicatePattern,
			RouteID:    route.ID,
			ConflictID: t.routes[existing].ID,
			Pattern:    route.Pattern,
		}
	}

	if !cp.wildcardLast() {
		return &Error{
			Kind:    KindWildcardNotLast,
			RouteID: route.ID,
			Pattern: route.Pattern,
		}
	}

	idx := int32(len(t.routes))
	if !cp.static {
		if c := t.trie.insert(cp.segments, idx); c != nil {
			e := &Error{
				Kind:    c.kind,
				RouteID: route.ID,
				Pattern: route.Pattern,
				Detail:  c.detail,
			}
			if c.existing != noIndex {
				e.ConflictID = t.routes[c.existing].ID
			}
			return e
		}
	} else {
		t.static[cp.normalized] = idx
	}

	route.Methods = normalizeMethods(route.Methods)
	t.routes = append(t.routes, route)
	t.patterns[cp.normalized] = idx
	t.ids[route.ID] = idx
	return nil
}

func normalizeMethods(methods []string) []string {
	if len(methods) == 0 {
		return nil
	}
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = strings.ToUpper(m)
	}
	return out
}

// binding is a parameter bound while descending the trie.
type binding struct {
	name  string
	value string
	depth int
}

// match resolves a path against the table.
func (t *table) match(path string) (*MatchResult, bool) {
	path = routepath.Normalize(path)

	// Static patterns take precedence over anything in the trie.
	if idx, ok := t.static[path]; ok {
		return &MatchResult{Route: &t.routes[idx], Params: Params{}}, true
	}

	segs := routepath.Split(path)
	nodes := t.trie.nodes
	cur := int32(0)

	var bound []binding
	wildRoute, wildDepth := noIndex, 0
	var wildName string

	for i, seg := range segs {
		n := &nodes[cur]

		// Overwritten at every node carrying a wildcard: the deepest wins.
		if n.wildcard != noIndex {
			wildRoute, wildDepth, wildName = n.wildcard, i, n.wildcardName
		}

		if child, ok := n.static[seg]; ok {
			cur = child
			continue
		}

		if n.paramChild != noIndex && seg != "" {
			value, ok := routepath.DecodeParam(seg)
			if !ok {
				return nil, false
			}
			bound = append(bound, binding{name: n.paramName, value: value, depth: i})
			cur = n.paramChild
			continue
		}

		return t.wildcardResult(segs, bound, wildRoute, wildDepth, wildName)
	}

	if idx := nodes[cur].terminal; idx != noIndex {
		params := make(Params, len(bound))
		for _, b := range bound {
			params[b.name] = b.value
		}
		return &MatchResult{Route: &t.routes[idx], Params: params}, true
	}

	// A wildcard on the final node needs at least one more segment, so only a
	// candidate recorded while segments remained can still match.
	return t.wildcardResult(segs, bound, wildRoute, wildDepth, wildName)
}

// wildcardResult builds the fallback wildcard match, keeping only parameters
// bound above the wildcard's position.
func (t *table) wildcardResult(segs []string, bound []binding, route int32, depth int, name string) (*MatchResult, bool) {
	if route == noIndex {
		return nil, false
	}
	rest := strings.Join(segs[depth:], "/")
	params := make(Params, len(bound)+2)
	for _, b := range bound {
		if b.depth < depth {
			params[b.name] = b.value
		}
	}
	params[WildcardKey] = rest
	if name != "" {
		params[name] = rest
	}
	return &MatchResult{Route: &t.routes[route], Params: params}, true
}

func (t *table) stats() Stats {
	return Stats{
		Static:  len(t.static),
		Dynamic: len(t.routes) - len(t.static),
		Total:   len(t.routes),
	}
}
