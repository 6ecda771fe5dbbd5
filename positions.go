// positions.go — sidecar byte spans and line/column positions.
//
// What this file does
// -------------------
// Nodes carry no source positions: every byte of a module is owned by some
// node slot, so extents are recovered by rendering. `SpansFor` renders a
// module once with span collection enabled and returns a *sidecar* index —
// the tree itself is never modified — mapping each node to the half-open
// byte interval [Start, End) it produced. Under the round-trip law that
// text is the module's own rendering, so for a freshly parsed module the
// spans address the original source.
//
// A node's span covers everything the node renders. In particular:
//   - a statement's span includes its leading comment and blank lines and
//     its trailing newline;
//   - a compound statement's span includes its whole suite;
//   - a parameter's span includes its trailing comma, if rendered.
//
// The index is read-only after construction and safe for concurrent reads.
// It goes stale as soon as the tree is changed; rebuild it after a Visit.
//
// Scope of the public API
// -----------------------
// Public:  `Span`, `Position`, `SpanIndex`, `SpansFor`.
// Private: line-start table construction and offset conversion.
package pycst

import "sort"

/* ===========================
   PUBLIC API
   =========================== */

// Span is a half-open byte interval [Start, End) into the rendered source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Position is a human-oriented coordinate: 1-based line, 0-based byte
// column, matching ParseError.
type Position struct {
	Line int
	Col  int
}

// SpanIndex maps the nodes of one module to their rendered byte extents.
type SpanIndex struct {
	src        string
	spans      map[Node]Span
	lineStarts []int
}

// SpansFor renders the module once and records the extent of every node.
func SpansFor(m *Module) *SpanIndex {
	st := newRenderState(m.DefaultIndent, m.DefaultNewline)
	st.spans = make(map[Node]Span)
	m.codegen(st)

	src := st.b.String()
	if !m.HasTrailingNewline {
		if n := strippedNewlineLen(src); n > 0 {
			src = src[:len(src)-n]
			for node, sp := range st.spans {
				if sp.End > len(src) {
					sp.End = len(src)
				}
				if sp.Start > len(src) {
					sp.Start = len(src)
				}
				st.spans[node] = sp
			}
		}
	}

	return &SpanIndex{src: src, spans: st.spans, lineStarts: lineStarts(src)}
}

// Source returns the text the spans index into; for a parsed module this
// equals Module.Code().
func (ix *SpanIndex) Source() string { return ix.src }

// SpanOf returns the byte extent of a node from the indexed module. ok is
// false for nodes the module does not contain.
func (ix *SpanIndex) SpanOf(n Node) (Span, bool) {
	sp, ok := ix.spans[n]
	return sp, ok
}

// Text returns the source slice a node rendered.
func (ix *SpanIndex) Text(n Node) (string, bool) {
	sp, ok := ix.spans[n]
	if !ok {
		return "", false
	}
	return ix.src[sp.Start:sp.End], true
}

// PositionOf converts a node's span to line/column coordinates. The end
// position is exclusive, like the span's End offset.
func (ix *SpanIndex) PositionOf(n Node) (start, end Position, ok bool) {
	sp, found := ix.spans[n]
	if !found {
		return Position{}, Position{}, false
	}
	return ix.position(sp.Start), ix.position(sp.End), true
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: offset conversion
   =========================== */

// strippedNewlineLen returns the byte length of the line terminator
// Module.Code strips when the source had no trailing newline.
func strippedNewlineLen(s string) int {
	switch {
	case len(s) >= 2 && s[len(s)-2:] == "\r\n":
		return 2
	case len(s) >= 1 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r'):
		return 1
	default:
		return 0
	}
}

// lineStarts returns the byte offset of every line start, beginning with 0.
// All three newline conventions advance the line counter.
func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (ix *SpanIndex) position(offset int) Position {
	// Last line start at or before the offset.
	i := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return Position{Line: i + 1, Col: offset - ix.lineStarts[i]}
}
