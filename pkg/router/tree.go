package router

// noIndex marks an absent node or route reference.
const noIndex int32 = -1

// node is a trie node. Nodes live in a single arena slice and refer to each
// other and to routes by index.
type node struct {
	// static maps a literal segment to a child node index.
	static map[string]int32

	// paramName and paramChild form the single parameter slot. Only one
	// parameter name is allowed per position.
	paramName  string
	paramChild int32

	// paramRoute is the route that created the parameter slot.
	paramRoute int32

	// wildcard is the route whose trailing wildcard starts at this node.
	wildcard     int32
	wildcardName string

	// terminal is the route ending exactly at this node.
	terminal int32
}

func newNode() node {
	return node{paramChild: noIndex, paramRoute: noIndex, wildcard: noIndex, terminal: noIndex}
}

// trie is an arena of nodes; nodes[0] is the root.
type trie struct {
	nodes []node
}

func newTrie() trie {
	return trie{nodes: []node{newNode()}}
}

// clone deep-copies the arena.
func (t *trie) clone() trie {
	nodes := make([]node, len(t.nodes))
	for i, n := range t.nodes {
		if n.static != nil {
			m := make(map[string]int32, len(n.static))
			for k, v := range n.static {
				m[k] = v
			}
			n.static = m
		}
		nodes[i] = n
	}
	return trie{nodes: nodes}
}

// alloc appends a fresh node and returns its index.
func (t *trie) alloc() int32 {
	t.nodes = append(t.nodes, newNode())
	return int32(len(t.nodes) - 1)
}

// staticChild gets or creates the static child for seg.
func (t *trie) staticChild(cur int32, seg string) int32 {
	if child, ok := t.nodes[cur].static[seg]; ok {
		return child
	}
	child := t.alloc()
	if t.nodes[cur].static == nil {
		t.nodes[cur].static = make(map[string]int32)
	}
	t.nodes[cur].static[seg] = child
	return child
}

// insertConflict describes why an insert failed.
type insertConflict struct {
	kind     ErrorKind
	existing int32
	detail   string
}

// insert walks the segments, creating nodes as needed, and stores route at
// the final position. A failed insert may leave intermediate nodes behind;
// callers discard the whole table on error.
func (t *trie) insert(segs []segment, route int32) *insertConflict {
	cur := int32(0)
	for _, seg := range segs {
		switch seg.kind {
		case segWildcard:
			n := &t.nodes[cur]
			if n.wildcard != noIndex {
				return &insertConflict{kind: KindRouteConflict, existing: n.wildcard, detail: "wildcard slot already taken"}
			}
			n.wildcard = route
			n.wildcardName = seg.name
			return nil

		case segParam:
			n := &t.nodes[cur]
			if n.paramChild != noIndex {
				if n.paramName != seg.name {
					return &insertConflict{
						kind:     KindParamNameConflict,
						existing: n.paramRoute,
						detail:   "parameter :" + seg.name + " conflicts with :" + n.paramName,
					}
				}
				cur = n.paramChild
				continue
			}
			// alloc may grow the arena, so n must not be used past this point.
			child := t.alloc()
			t.nodes[cur].paramName = seg.name
			t.nodes[cur].paramChild = child
			t.nodes[cur].paramRoute = route
			cur = child

		default:
			cur = t.staticChild(cur, seg.text)
		}
	}

	if existing := t.nodes[cur].terminal; existing != noIndex {
		return &insertConflict{kind: KindRouteConflict, existing: existing, detail: "terminal slot already taken"}
	}
	t.nodes[cur].terminal = route
	return nil
}
