// nodes.go — core node kinds and construction-time validation for the
// lossless Python CST.
//
// OVERVIEW
// --------
// Every parsed program is a tree of immutable nodes. Each node stores both
// its semantic children (sub-expressions, statements) and its formatting
// children (whitespace runs, comments, parentheses), so that writing the
// children back out in the node's fixed order reproduces the source text
// byte for byte. See render.go for the writer and parser.go for the reader.
//
// Construction discipline: nodes are plain structs, but a node only counts
// as *constructed* once it has passed through New (or was produced by the
// parser, which builds shapes that are valid by construction). New runs the
// node's own shallow validation — a pure function of its fields — and
// returns a *ValidationError naming the violated invariant. Nodes are never
// mutated afterwards; rewrites build fresh nodes (rewrite.go).
//
// Whitespace model:
//   - SimpleWhitespace: a run of spaces/tabs on a single line.
//   - ParenthesizedWhitespace: whitespace that may span lines, legal only
//     inside bracketed contexts; carries comments losslessly.
//   - Slots typed as the Whitespace interface treat nil as "use this slot's
//     default", which is how nodes synthesized by a transform render with
//     conventional spacing without the transform spelling every field out.
package pycst

import (
	"fmt"
	"unicode"
)

/* ===========================
   NODE KINDS
   =========================== */

// Node is the closed set of tree node variants. Implementations live in
// this file, expr.go and stmt.go; the interface methods are unexported so
// the set cannot be extended from outside the package.
type Node interface {
	validate() error
	codegen(st *renderState)
}

// Expression is a node usable in expression position.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a line-level statement: either a SimpleStatementLine or a
// compound statement (FunctionDef, For, While, With, If).
type Statement interface {
	Node
	statementNode()
}

// SmallStatement is a statement that fits inside a simple statement line
// (Assign, AnnAssign, Expr, Pass, Return, Global, Nonlocal).
type SmallStatement interface {
	Node
	smallStatementNode()
}

// Suite is the body of a compound statement: an IndentedBlock or a
// same-line SimpleStatementSuite.
type Suite interface {
	Node
	suiteNode()
}

// Whitespace is either a SimpleWhitespace value or a
// *ParenthesizedWhitespace. A nil Whitespace in a node slot means "render
// this slot's default".
type Whitespace interface {
	whitespaceNode()
}

/* ===========================
   CONSTRUCTION & VALIDATION
   =========================== */

// ValidationError reports a structural invariant violated while
// constructing a node. It is always fatal to that construction attempt.
type ValidationError struct {
	Kind string // node kind, e.g. "Global"
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s node: %s", e.Kind, e.Msg)
}

func invalidf(kind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// New validates a freshly built node and returns it. Validation is shallow:
// it checks the node's own fields (including directly held child values),
// matching the guarantee that a node that exists is structurally sound.
func New[T Node](n T) (T, error) {
	if err := n.validate(); err != nil {
		var zero T
		return zero, err
	}
	return n, nil
}

// MustNew is New for shapes the caller knows are valid; it panics on a
// validation error and is meant for hand-built literal trees in tests and
// transforms.
func MustNew[T Node](n T) T {
	n, err := New(n)
	if err != nil {
		panic(err)
	}
	return n
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// validParens checks the shared left/right paren pairing rule.
func validParens(kind string, lpar []LeftParen, rpar []RightParen) error {
	if len(lpar) > len(rpar) {
		return invalidf(kind, "Cannot have left paren without right paren")
	}
	if len(rpar) > len(lpar) {
		return invalidf(kind, "Cannot have right paren without left paren")
	}
	return nil
}

/* ===========================
   WHITESPACE & TOKEN NODES
   =========================== */

// SimpleWhitespace is a run of spaces and/or tabs that stays on one line.
type SimpleWhitespace string

func (SimpleWhitespace) whitespaceNode() {}

// Comment is a single '#' comment, stored with the leading '#'.
type Comment struct {
	Value string
}

func (c *Comment) validate() error {
	if len(c.Value) == 0 || c.Value[0] != '#' {
		return invalidf("Comment", "Comment text must begin with '#'")
	}
	return nil
}

// Newline is a physical line break. An empty Value renders the module's
// default newline, which is how synthesized lines pick up the file's
// convention.
type Newline struct {
	Value string // "", "\n" or "\r\n"
}

func (n *Newline) validate() error {
	switch n.Value {
	case "", "\n", "\r\n", "\r":
		return nil
	}
	return invalidf("Newline", "Invalid newline sequence %q", n.Value)
}

// TrailingWhitespace is everything from the last content of a logical line
// up to and including its newline: optional spaces, an optional comment,
// the line break.
type TrailingWhitespace struct {
	Whitespace SimpleWhitespace
	Comment    *Comment
	Newline    Newline
}

func (t *TrailingWhitespace) validate() error {
	if t.Comment != nil {
		if err := t.Comment.validate(); err != nil {
			return err
		}
	}
	return t.Newline.validate()
}

// EmptyLine is a line with no statement on it: blank, or comment-only. The
// Whitespace field holds the line's full leading whitespace; empty lines
// render without any block indentation prefix.
type EmptyLine struct {
	Whitespace SimpleWhitespace
	Comment    *Comment
	Newline    Newline
}

func (e *EmptyLine) validate() error {
	if e.Comment != nil {
		if err := e.Comment.validate(); err != nil {
			return err
		}
	}
	return e.Newline.validate()
}

// ParenthesizedWhitespace is whitespace inside a bracketed context, where
// the grammar permits line breaks and comments between tokens.
type ParenthesizedWhitespace struct {
	FirstLine  TrailingWhitespace
	EmptyLines []EmptyLine
	LastLine   SimpleWhitespace // leading whitespace of the final line
}

func (*ParenthesizedWhitespace) whitespaceNode() {}

func (p *ParenthesizedWhitespace) validate() error {
	if err := p.FirstLine.validate(); err != nil {
		return err
	}
	for i := range p.EmptyLines {
		if err := p.EmptyLines[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// Comma separates elements of a sequence. A nil *Comma slot between two
// elements renders the default ", "; on a final element it renders nothing.
type Comma struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace
}

func (c *Comma) validate() error { return nil }

// Semicolon separates small statements on one line. The default sentinel
// between two statements renders "; ".
type Semicolon struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace
}

func (s *Semicolon) validate() error { return nil }

// Colon is the ':' of a lambda. Compound-statement colons are plain slots
// on their statements since only the surrounding whitespace varies.
type Colon struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace // default " "
}

func (c *Colon) validate() error { return nil }

// Dot is the '.' of an attribute access.
type Dot struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace
}

func (d *Dot) validate() error { return nil }

// AssignEqual is an '=' carrying its own spacing, used for parameter
// defaults and annotated-assignment values. Default rendering is " = ".
type AssignEqual struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace
}

func (a *AssignEqual) validate() error { return nil }

// LeftParen / RightParen wrap any parenthesizable expression; the pairing
// rule is enforced per expression via validParens.
type LeftParen struct {
	WhitespaceAfter Whitespace
}

type RightParen struct {
	WhitespaceBefore Whitespace
}

// LeftSquareBracket / RightSquareBracket delimit a subscript.
type LeftSquareBracket struct {
	WhitespaceAfter Whitespace
}

type RightSquareBracket struct {
	WhitespaceBefore Whitespace
}

// Annotation attaches a type expression to a target, parameter or return
// slot. The indicator token (":" or "->") comes from the owning position.
type Annotation struct {
	WhitespaceBeforeIndicator Whitespace
	WhitespaceAfterIndicator  Whitespace // default " "
	Annotation                Expression
}

func (a *Annotation) validate() error {
	if a.Annotation == nil {
		return invalidf("Annotation", "Must have an annotation expression")
	}
	return nil
}
