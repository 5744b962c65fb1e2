package router

import (
	"strings"

	"github.com/vango-dev/dispatch/pkg/routepath"
)

type segmentKind uint8

const (
	segStatic segmentKind = iota
	segParam
	segWildcard
)

// segment is one parsed pattern segment.
type segment struct {
	kind segmentKind

	// text is the literal for static segments.
	text string

	// name is the parameter name; empty for an anonymous wildcard ("*").
	name string
}

// parseSegment classifies a single pattern segment.
//
//	users   -> static
//	:id     -> param "id"
//	*       -> wildcard
//	*rest   -> wildcard "rest"
//	:rest*  -> wildcard "rest"
func parseSegment(seg string) (segment, bool) {
	switch {
	case strings.HasPrefix(seg, "*"):
		return segment{kind: segWildcard, name: seg[1:]}, true
	case strings.HasPrefix(seg, ":"):
		name := seg[1:]
		if strings.HasSuffix(name, "*") {
			name = name[:len(name)-1]
			if name == "" {
				return segment{}, false
			}
			return segment{kind: segWildcard, name: name}, true
		}
		if name == "" {
			return segment{}, false
		}
		return segment{kind: segParam, name: name}, true
	default:
		return segment{kind: segStatic, text: seg}, true
	}
}

// compiledPattern is a normalized, validated pattern.
type compiledPattern struct {
	normalized string
	segments   []segment
	static     bool

	// wildcardAt is the index of the first wildcard segment, or -1.
	wildcardAt int
}

// wildcardLast reports whether a wildcard, if present, is the final segment.
func (cp compiledPattern) wildcardLast() bool {
	return cp.wildcardAt < 0 || cp.wildcardAt == len(cp.segments)-1
}

// compilePattern normalizes a route pattern and classifies its segments.
// Only malformed patterns fail here; placement rules are checked by the
// table so duplicate detection runs first.
func compilePattern(route *RouteSpec) (compiledPattern, error) {
	if !strings.HasPrefix(route.Pattern, "/") {
		return compiledPattern{}, &Error{
			Kind:    KindInvalidPattern,
			RouteID: route.ID,
			Pattern: route.Pattern,
			Detail:  `pattern must start with "/"`,
		}
	}

	normalized := routepath.Normalize(route.Pattern)
	raw := routepath.Split(normalized)
	segs := make([]segment, 0, len(raw))
	static := true
	wildcardAt := -1

	for i, s := range raw {
		seg, ok := parseSegment(s)
		if !ok {
			return compiledPattern{}, &Error{
				Kind:    KindInvalidPattern,
				RouteID: route.ID,
				Pattern: route.Pattern,
				Detail:  "empty parameter name in segment " + s,
			}
		}
		if seg.kind == segWildcard && wildcardAt < 0 {
			wildcardAt = i
		}
		if seg.kind != segStatic {
			static = false
		}
		segs = append(segs, seg)
	}

	return compiledPattern{normalized: normalized, segments: segs, static: static, wildcardAt: wildcardAt}, nil
}
