// errors.go: user-facing error wrapping and caret-snippet rendering
//
// What this file does
// -------------------
// This module turns parser and validation diagnostics into readable,
// Python-style error snippets with a caret pointing at the offending column.
// The primary entry point is `WrapErrorWithSource`, which recognizes
// `*ParseError` (from parser.go), formats it, and returns a new `error`
// that contains a multi-line snippet:
//
//	SYNTAX ERROR at 3:12: expected ')' to close call
//
//	   2 | x = f(1 + 2
//	   3 |            )
//	       |           ^
//	   4 | y = 3
//
// The snippet includes up to one line of context before and after the error,
// numbers the lines, and places a caret under the 1-based column.
//
// Dependencies (other files)
// --------------------------
//   - parser.go: defines `*ParseError { Line, Col, Msg }`, carrying a
//     1-based Line and a 0-based Col. `WrapErrorWithSource` depends on that
//     type to detect when it should render a caret snippet.
//   - nodes.go: defines `*ValidationError { Kind, Msg }`. Validation errors
//     have no position, so they get the labeled header without a snippet.
//
// Scope of the public API
// -----------------------
// Public:   `WrapErrorWithSource(err error, src string) error`
// Private:  caret-snippet renderer and tiny helpers.
//
// Behavior guarantees
// -------------------
//   - If `err` is a `*ParseError`, the returned error's message is a fully
//     formatted, plain-text snippet (no ANSI colors).
//   - If `err` is anything else, it is returned unchanged.
//   - Coordinates are clamped so the caret can be rendered safely.
//     Empty/short source strings are handled.
package pycst

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes parser errors and leaves
// other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source label (usually a
// file name) included in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *ParseError:
		// ParseError Col is 0-based; render as 1-based.
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "SYNTAX ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ValidationError:
		if srcName != "" {
			return fmt.Errorf("INVALID NODE in %s: %s: %s", srcName, e.Kind, e.Msg)
		}
		return err
	default:
		return err
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers & rendering
   =========================== */

// prettyErrorStringLabeled builds a Python-like snippet with a header and a
// caret. It shows at most one previous and one next line when available.
// Coordinates are treated as 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
