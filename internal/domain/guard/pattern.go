package guard

import (
	"fmt"
	"path"
	"strings"
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentParam
	segmentZeroOrMore
	segmentOneOrMore
)

type segment struct {
	kind  segmentKind
	value string
}

// Pattern is a compiled matcher such as "/dashboard/:path*".
//
// ":name" matches one segment, ":name*" zero or more trailing segments and
// ":name+" one or more trailing segments. Everything else is literal.
type Pattern struct {
	raw      string
	segments []segment
}

func Compile(raw string) (*Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}

	parts := splitPath(raw)
	segments := make([]segment, 0, len(parts))
	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			if strings.ContainsAny(part, "*+") {
				return nil, fmt.Errorf("%w: %q has a modifier outside a parameter", ErrInvalidPattern, raw)
			}
			segments = append(segments, segment{kind: segmentLiteral, value: part})
			continue
		}

		name := strings.TrimPrefix(part, ":")
		kind := segmentParam
		switch {
		case strings.HasSuffix(name, "*"):
			kind = segmentZeroOrMore
			name = strings.TrimSuffix(name, "*")
		case strings.HasSuffix(name, "+"):
			kind = segmentOneOrMore
			name = strings.TrimSuffix(name, "+")
		}

		if name == "" {
			return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPattern, raw)
		}
		if kind != segmentParam && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: %q repeats a parameter before the last segment", ErrInvalidPattern, raw)
		}

		segments = append(segments, segment{kind: kind, value: name})
	}

	return &Pattern{raw: raw, segments: segments}, nil
}

func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether requestPath, after Normalize, satisfies the pattern.
func (p *Pattern) Match(requestPath string) bool {
	parts := splitPath(Normalize(requestPath))

	for i, seg := range p.segments {
		switch seg.kind {
		case segmentZeroOrMore:
			return true
		case segmentOneOrMore:
			return len(parts) > i
		case segmentParam:
			if i >= len(parts) {
				return false
			}
		case segmentLiteral:
			if i >= len(parts) || parts[i] != seg.value {
				return false
			}
		}
	}

	return len(parts) == len(p.segments)
}

// Normalize resolves "." and ".." segments and collapses repeated slashes,
// returning the rooted path an upstream router would serve. A trailing slash
// is kept.
func Normalize(requestPath string) string {
	if requestPath == "" {
		return "/"
	}

	cleaned := path.Clean("/" + requestPath)
	if strings.HasSuffix(requestPath, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// splitPath drops empty segments so "/a//b/" and "/a/b" compare equal.
func splitPath(p string) []string {
	raw := strings.Split(p, "/")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
