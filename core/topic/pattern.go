package topic

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	// Separator splits a topic into segments.
	Separator = ":"
	// SingleWildcard matches exactly one segment.
	SingleWildcard = "*"
	// MultiWildcard matches zero or more segments.
	MultiWildcard = "#"
)

// SegmentKind tags a compiled pattern segment.
type SegmentKind uint8

const (
	Literal SegmentKind = iota
	Single
	Multi
)

func (k SegmentKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Single:
		return "single"
	case Multi:
		return "multi"
	default:
		return "unknown"
	}
}

// Segment is one compiled element of a Pattern.
// Text holds the case-folded literal and is empty for wildcards.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Pattern is a compiled topic pattern. The zero value matches nothing.
type Pattern struct {
	raw       string
	segments  []Segment
	wildcards int
}

// Compile turns a raw pattern string into a Pattern.
// Compilation never fails: every string is a valid pattern.
func Compile(raw string) Pattern {
	parts := strings.Split(raw, Separator)
	fold := cases.Fold()

	p := Pattern{
		raw:      raw,
		segments: make([]Segment, len(parts)),
	}
	for i, part := range parts {
		switch part {
		case SingleWildcard:
			p.segments[i] = Segment{Kind: Single}
			p.wildcards++
		case MultiWildcard:
			p.segments[i] = Segment{Kind: Multi}
			p.wildcards++
		default:
			p.segments[i] = Segment{Kind: Literal, Text: fold.String(part)}
		}
	}
	return p
}

// String returns the raw pattern the Pattern was compiled from.
func (p Pattern) String() string {
	return p.raw
}

// Segments returns a copy of the compiled segments.
func (p Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Wildcards returns the number of wildcard segments, which is also the
// number of captures a successful match yields.
func (p Pattern) Wildcards() int {
	return p.wildcards
}

// IsLiteral reports whether the pattern has no wildcard segments.
func (p Pattern) IsLiteral() bool {
	return p.wildcards == 0
}

// Match tests topic against the pattern. On success it returns one capture
// per wildcard segment in left-to-right order. Literal-only patterns return a
// nil capture slice.
func (p Pattern) Match(topic string) ([]string, bool) {
	if len(p.segments) == 0 {
		return nil, false
	}

	parts := strings.Split(topic, Separator)
	if p.wildcards == 0 && len(parts) != len(p.segments) {
		return nil, false
	}

	m := matcher{
		segments: p.segments,
		parts:    parts,
		failed:   make([]bool, (len(p.segments)+1)*(len(parts)+1)),
	}
	if p.wildcards > 0 {
		m.spans = make([]span, 0, p.wildcards)
	}
	if !m.match(0, 0) {
		return nil, false
	}
	if p.wildcards == 0 {
		return nil, true
	}

	captures := make([]string, len(m.spans))
	for i, sp := range m.spans {
		captures[i] = strings.Join(parts[sp.from:sp.to], Separator)
	}
	return captures, true
}

// span is the half-open range of topic segments a wildcard captured.
type span struct {
	from, to int
}

// matcher holds the state of a single Match call.
type matcher struct {
	segments []Segment
	parts    []string
	spans    []span
	// failed marks (segment, part) positions already known not to match.
	// The outcome from a position does not depend on earlier captures.
	failed []bool
	fold   *cases.Caser
}

func (m *matcher) match(si, ti int) bool {
	key := si*(len(m.parts)+1) + ti
	if m.failed[key] {
		return false
	}
	if m.walk(si, ti) {
		return true
	}
	m.failed[key] = true
	return false
}

func (m *matcher) walk(si, ti int) bool {
	for si < len(m.segments) {
		seg := m.segments[si]
		switch seg.Kind {
		case Literal:
			if ti >= len(m.parts) || !m.equal(m.parts[ti], seg.Text) {
				return false
			}
		case Single:
			if ti >= len(m.parts) || m.parts[ti] == "" {
				return false
			}
			m.spans = append(m.spans, span{ti, ti + 1})
		case Multi:
			// Greedy: the longest run of segments is tried first.
			mark := len(m.spans)
			for n := len(m.parts) - ti; n >= 0; n-- {
				m.spans = append(m.spans[:mark], span{ti, ti + n})
				if m.match(si+1, ti+n) {
					return true
				}
			}
			m.spans = m.spans[:mark]
			return false
		}
		si++
		ti++
	}
	return ti == len(m.parts)
}

func (m *matcher) equal(part, folded string) bool {
	if part == folded {
		return true
	}
	if m.fold == nil {
		c := cases.Fold()
		m.fold = &c
	}
	return m.fold.String(part) == folded
}
