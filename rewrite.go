// rewrite.go — the visitor-based rewrite protocol over the CST.
//
// OVERVIEW
// --------
// A Transform walks a tree top-down (OnEnter) and bottom-up (OnLeave) and
// decides, at each exit, what replaces the visited node: the node itself,
// a same-kind replacement, an ordered run of sibling nodes (Flatten), or
// nothing at all (Remove). The traversal never mutates a node in place:
// every visited node is rebuilt as a shallow copy, so the input tree is
// still intact after a Visit, whatever the transform did.
//
// Flatten and Remove are only honored in sequence slots: statement bodies,
// small-statement runs, leading/footer line lists, parameter lists, and
// call arguments. Returning them for a required single slot (an operand,
// a suite, a line's trailing whitespace) is a protocol violation reported
// as a *RewriteError, and the whole traversal aborts.
//
// Traversal order matters to transforms and follows the source text:
// a compound statement's leading lines, header tokens and parameters are
// visited before OnEnterBody fires, then the body suite, then OnLeaveBody,
// then the statement's own OnLeave. Comment-bearing whitespace nodes
// (TrailingWhitespace, EmptyLine, ParenthesizedWhitespace, Comment) are
// part of the traversal so that transforms can rewrite or drop comments
// wherever they live, including inside bracketed whitespace runs.
package pycst

import "fmt"

/* ===========================
   PUBLIC API
   =========================== */

// Rewrite is the outcome a transform returns from OnLeave.
type Rewrite struct {
	action rewriteAction
	node   Node
	nodes  []Node
}

type rewriteAction int

const (
	actionKeep rewriteAction = iota
	actionReplace
	actionFlatten
	actionRemove
)

// Keep leaves the children-updated node in place.
func Keep() Rewrite { return Rewrite{action: actionKeep} }

// Replace substitutes the visited node with a single new node.
func Replace(n Node) Rewrite { return Rewrite{action: actionReplace, node: n} }

// Flatten substitutes the visited node with zero or more sibling-level
// nodes. Only valid in sequence slots.
func Flatten(nodes ...Node) Rewrite { return Rewrite{action: actionFlatten, nodes: nodes} }

// Remove deletes the visited node from its parent's sequence. Only valid
// in sequence slots and removable optional slots.
func Remove() Rewrite { return Rewrite{action: actionRemove} }

// Transform is the rewrite hook set. Embed TransformBase to implement
// only the hooks a transform cares about.
type Transform interface {
	// OnEnter fires before a node's children are visited. Returning
	// false skips the children; OnLeave still fires.
	OnEnter(node Node) bool

	// OnLeave fires after a node's children have been visited. original
	// is the node as it was entered; updated reflects any child rewrites.
	OnLeave(original, updated Node) Rewrite

	// OnEnterBody fires on a compound statement between its header
	// tokens and its body suite; OnLeaveBody fires after the suite,
	// before the statement's own OnLeave.
	OnEnterBody(parent Node)
	OnLeaveBody(parent Node)
}

// TransformBase is a no-op Transform for embedding.
type TransformBase struct{}

func (TransformBase) OnEnter(Node) bool          { return true }
func (TransformBase) OnLeave(_, _ Node) Rewrite  { return Keep() }
func (TransformBase) OnEnterBody(Node)           {}
func (TransformBase) OnLeaveBody(Node)           {}

// RewriteError reports a transform decision the protocol cannot honor.
type RewriteError struct {
	Msg string
}

func (e *RewriteError) Error() string { return "rewrite protocol error: " + e.Msg }

func rewriteErrf(format string, args ...any) error {
	return &RewriteError{Msg: fmt.Sprintf(format, args...)}
}

// Visit runs a transform over the module and returns the rewritten tree.
// The receiver is left untouched.
func (m *Module) Visit(t Transform) (*Module, error) {
	out, err := visitNode(t, m)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, rewriteErrf("a Module cannot be removed or flattened")
	}
	mod, ok := out[0].(*Module)
	if !ok {
		return nil, rewriteErrf("replacement for a Module must be a Module, got %T", out[0])
	}
	return mod, nil
}

//// END_OF_PUBLIC

/* ===========================
   TRAVERSAL CORE
   =========================== */

// visitNode runs the enter hook, rewrites children, runs the leave hook,
// and resolves the transform's decision into the node's replacements:
// one node for keep/replace, several for flatten, none for removal.
func visitNode(t Transform, n Node) ([]Node, error) {
	updated := n
	if t.OnEnter(n) {
		var err error
		updated, err = rewriteChildren(t, n)
		if err != nil {
			return nil, err
		}
	}
	rw := t.OnLeave(n, updated)
	switch rw.action {
	case actionKeep:
		return []Node{updated}, nil
	case actionReplace:
		if rw.node == nil {
			return nil, rewriteErrf("Replace(nil) is not a valid rewrite")
		}
		return []Node{rw.node}, nil
	case actionFlatten:
		return rw.nodes, nil
	case actionRemove:
		return nil, nil
	}
	return nil, rewriteErrf("unknown rewrite action %d", rw.action)
}

/* ===========================
   SLOT HELPERS
   =========================== */

// single resolves a required slot: exactly one replacement of type T.
func single[T Node](t Transform, n Node, slot string) (T, error) {
	var zero T
	out, err := visitNode(t, n)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, rewriteErrf("cannot remove or flatten %s", slot)
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, rewriteErrf("replacement for %s has wrong kind %T", slot, out[0])
	}
	return v, nil
}

// optional resolves a removable single slot: zero or one replacement.
func optional[T Node](t Transform, n Node, slot string) (T, bool, error) {
	var zero T
	out, err := visitNode(t, n)
	if err != nil {
		return zero, false, err
	}
	switch len(out) {
	case 0:
		return zero, false, nil
	case 1:
		v, ok := out[0].(T)
		if !ok {
			return zero, false, rewriteErrf("replacement for %s has wrong kind %T", slot, out[0])
		}
		return v, true, nil
	}
	return zero, false, rewriteErrf("cannot flatten %s", slot)
}

func visitExpr(t Transform, e Expression) (Expression, error) {
	if e == nil {
		return nil, nil
	}
	return single[Expression](t, e, "an expression in a required slot")
}

// visitOptExpr allows removal, for optional value slots.
func visitOptExpr(t Transform, e Expression) (Expression, error) {
	if e == nil {
		return nil, nil
	}
	out, ok, err := optional[Expression](t, e, "an expression")
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

func visitName(t Transform, n *Name) (*Name, error) {
	if n == nil {
		return nil, nil
	}
	return single[*Name](t, n, "a name in a required slot")
}

func visitSuite(t Transform, s Suite) (Suite, error) {
	if s == nil {
		return nil, nil
	}
	return single[Suite](t, s, "a statement body")
}

func visitStatements(t Transform, stmts []Statement) ([]Statement, error) {
	var out []Statement
	for _, s := range stmts {
		repl, err := visitNode(t, s)
		if err != nil {
			return nil, err
		}
		for _, n := range repl {
			stmt, ok := n.(Statement)
			if !ok {
				return nil, rewriteErrf("replacement in a statement body must be a statement, got %T", n)
			}
			out = append(out, stmt)
		}
	}
	return out, nil
}

func visitSmalls(t Transform, smalls []SmallStatement) ([]SmallStatement, error) {
	var out []SmallStatement
	for _, s := range smalls {
		repl, err := visitNode(t, s)
		if err != nil {
			return nil, err
		}
		for _, n := range repl {
			small, ok := n.(SmallStatement)
			if !ok {
				return nil, rewriteErrf("replacement in a simple-statement run must be a small statement, got %T", n)
			}
			out = append(out, small)
		}
	}
	return out, nil
}

func visitEmptyLines(t Transform, lines []EmptyLine) ([]EmptyLine, error) {
	var out []EmptyLine
	for i := range lines {
		line := lines[i]
		repl, err := visitNode(t, &line)
		if err != nil {
			return nil, err
		}
		for _, n := range repl {
			el, ok := n.(*EmptyLine)
			if !ok {
				return nil, rewriteErrf("replacement in a leading-line list must be an EmptyLine, got %T", n)
			}
			out = append(out, *el)
		}
	}
	return out, nil
}

func visitTrailing(t Transform, tw TrailingWhitespace) (TrailingWhitespace, error) {
	out, err := single[*TrailingWhitespace](t, &tw, "a line's trailing whitespace")
	if err != nil {
		return TrailingWhitespace{}, err
	}
	return *out, nil
}

// visitWS visits a whitespace slot. Simple whitespace is a leaf;
// parenthesized whitespace is traversed for its comment content.
func visitWS(t Transform, w Whitespace) (Whitespace, error) {
	pw, ok := w.(*ParenthesizedWhitespace)
	if !ok {
		return w, nil
	}
	return single[*ParenthesizedWhitespace](t, pw, "a bracketed whitespace run")
}

func visitComment(t Transform, c *Comment) (*Comment, error) {
	if c == nil {
		return nil, nil
	}
	out, ok, err := optional[*Comment](t, c, "a comment")
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

func visitComma(t Transform, c *Comma) (*Comma, error) {
	if c == nil {
		return nil, nil
	}
	before, err := visitWS(t, c.WhitespaceBefore)
	if err != nil {
		return nil, err
	}
	after, err := visitWS(t, c.WhitespaceAfter)
	if err != nil {
		return nil, err
	}
	out := *c
	out.WhitespaceBefore = before
	out.WhitespaceAfter = after
	return &out, nil
}

func visitAnnotationPtr(t Transform, a *Annotation) (*Annotation, error) {
	if a == nil {
		return nil, nil
	}
	out := *a
	var err error
	out.WhitespaceBeforeIndicator, err = visitWS(t, a.WhitespaceBeforeIndicator)
	if err != nil {
		return nil, err
	}
	out.WhitespaceAfterIndicator, err = visitWS(t, a.WhitespaceAfterIndicator)
	if err != nil {
		return nil, err
	}
	out.Annotation, err = visitExpr(t, a.Annotation)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func visitParens(t Transform, lpar []LeftParen, rpar []RightParen) ([]LeftParen, []RightParen, error) {
	var outL []LeftParen
	for _, lp := range lpar {
		ws, err := visitWS(t, lp.WhitespaceAfter)
		if err != nil {
			return nil, nil, err
		}
		outL = append(outL, LeftParen{WhitespaceAfter: ws})
	}
	var outR []RightParen
	for _, rp := range rpar {
		ws, err := visitWS(t, rp.WhitespaceBefore)
		if err != nil {
			return nil, nil, err
		}
		outR = append(outR, RightParen{WhitespaceBefore: ws})
	}
	return outL, outR, nil
}

func visitParamList(t Transform, params []*Param) ([]*Param, error) {
	var out []*Param
	for _, p := range params {
		repl, err := visitNode(t, p)
		if err != nil {
			return nil, err
		}
		for _, n := range repl {
			param, ok := n.(*Param)
			if !ok {
				return nil, rewriteErrf("replacement in a parameter list must be a Param, got %T", n)
			}
			out = append(out, param)
		}
	}
	return out, nil
}

func visitParameters(t Transform, params Parameters) (Parameters, error) {
	out := params
	var err error
	out.Params, err = visitParamList(t, params.Params)
	if err != nil {
		return out, err
	}
	out.DefaultParams, err = visitParamList(t, params.DefaultParams)
	if err != nil {
		return out, err
	}
	if params.StarArg != nil {
		star, ok, err := optional[Node](t, params.StarArg.(Node), "the variadic-positional parameter")
		if err != nil {
			return out, err
		}
		if !ok {
			out.StarArg = nil
		} else if sa, isStar := star.(StarArg); isStar {
			out.StarArg = sa
		} else {
			return out, rewriteErrf("replacement for the variadic-positional parameter has wrong kind %T", star)
		}
	}
	out.KwonlyParams, err = visitParamList(t, params.KwonlyParams)
	if err != nil {
		return out, err
	}
	if params.StarKwarg != nil {
		kwarg, ok, err := optional[*Param](t, params.StarKwarg, "the variadic-keyword parameter")
		if err != nil {
			return out, err
		}
		if !ok {
			out.StarKwarg = nil
		} else {
			out.StarKwarg = kwarg
		}
	}
	return out, nil
}

/* ===========================
   PER-KIND CHILD REWRITES
   =========================== */

// rewriteChildren rebuilds a node with each child slot visited. The
// switch is exhaustive over the visitable node kinds; leaves fall through
// unchanged.
func rewriteChildren(t Transform, n Node) (Node, error) {
	switch v := n.(type) {
	case *Module:
		out := *v
		var err error
		if out.Header, err = visitEmptyLines(t, v.Header); err != nil {
			return nil, err
		}
		if out.Body, err = visitStatements(t, v.Body); err != nil {
			return nil, err
		}
		if out.Footer, err = visitEmptyLines(t, v.Footer); err != nil {
			return nil, err
		}
		return &out, nil

	case *SimpleStatementLine:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		if out.Body, err = visitSmalls(t, v.Body); err != nil {
			return nil, err
		}
		if out.TrailingWhitespace, err = visitTrailing(t, v.TrailingWhitespace); err != nil {
			return nil, err
		}
		return &out, nil

	case *FunctionDef:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		if out.Name, err = visitName(t, v.Name); err != nil {
			return nil, err
		}
		if out.WhitespaceBeforeParams, err = visitWS(t, v.WhitespaceBeforeParams); err != nil {
			return nil, err
		}
		if out.Params, err = visitParameters(t, v.Params); err != nil {
			return nil, err
		}
		if out.Returns, err = visitAnnotationPtr(t, v.Returns); err != nil {
			return nil, err
		}
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		return &out, nil

	case *For:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		if out.Target, err = visitExpr(t, v.Target); err != nil {
			return nil, err
		}
		if out.Iter, err = visitExpr(t, v.Iter); err != nil {
			return nil, err
		}
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		return &out, nil

	case *While:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		if out.Test, err = visitExpr(t, v.Test); err != nil {
			return nil, err
		}
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		return &out, nil

	case *With:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		items := make([]WithItem, len(v.Items))
		for i := range v.Items {
			items[i] = v.Items[i]
			if items[i].Item, err = visitExpr(t, v.Items[i].Item); err != nil {
				return nil, err
			}
			if asname := v.Items[i].AsName; asname != nil {
				na := *asname
				if na.Name, err = visitExpr(t, asname.Name); err != nil {
					return nil, err
				}
				items[i].AsName = &na
			}
			if items[i].Comma, err = visitComma(t, v.Items[i].Comma); err != nil {
				return nil, err
			}
		}
		out.Items = items
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		return &out, nil

	case *If:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		if out.Test, err = visitExpr(t, v.Test); err != nil {
			return nil, err
		}
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		if v.Orelse != nil {
			clause, ok, err := optional[Node](t, v.Orelse.(Node), "an else clause")
			if err != nil {
				return nil, err
			}
			if !ok {
				out.Orelse = nil
			} else if orelse, isOrElse := clause.(OrElse); isOrElse {
				out.Orelse = orelse
			} else {
				return nil, rewriteErrf("replacement for an else clause has wrong kind %T", clause)
			}
		}
		return &out, nil

	case *Else:
		out := *v
		var err error
		if out.LeadingLines, err = visitEmptyLines(t, v.LeadingLines); err != nil {
			return nil, err
		}
		t.OnEnterBody(v)
		if out.Body, err = visitSuite(t, v.Body); err != nil {
			return nil, err
		}
		t.OnLeaveBody(v)
		return &out, nil

	case *IndentedBlock:
		out := *v
		var err error
		if out.Header, err = visitTrailing(t, v.Header); err != nil {
			return nil, err
		}
		if out.Body, err = visitStatements(t, v.Body); err != nil {
			return nil, err
		}
		if out.Footer, err = visitEmptyLines(t, v.Footer); err != nil {
			return nil, err
		}
		return &out, nil

	case *SimpleStatementSuite:
		out := *v
		var err error
		if out.Body, err = visitSmalls(t, v.Body); err != nil {
			return nil, err
		}
		if out.TrailingWhitespace, err = visitTrailing(t, v.TrailingWhitespace); err != nil {
			return nil, err
		}
		return &out, nil

	case *Assign:
		out := *v
		var err error
		targets := make([]AssignTarget, len(v.Targets))
		for i := range v.Targets {
			targets[i] = v.Targets[i]
			if targets[i].Target, err = visitExpr(t, v.Targets[i].Target); err != nil {
				return nil, err
			}
		}
		out.Targets = targets
		if out.Value, err = visitExpr(t, v.Value); err != nil {
			return nil, err
		}
		return &out, nil

	case *AnnAssign:
		out := *v
		var err error
		if out.Target, err = visitExpr(t, v.Target); err != nil {
			return nil, err
		}
		ann, err := visitAnnotationPtr(t, &v.Annotation)
		if err != nil {
			return nil, err
		}
		out.Annotation = *ann
		if out.Value, err = visitOptExpr(t, v.Value); err != nil {
			return nil, err
		}
		return &out, nil

	case *Expr:
		out := *v
		var err error
		if out.Value, err = visitExpr(t, v.Value); err != nil {
			return nil, err
		}
		return &out, nil

	case *Return:
		out := *v
		var err error
		if out.Value, err = visitOptExpr(t, v.Value); err != nil {
			return nil, err
		}
		return &out, nil

	case *Global:
		out := *v
		names, err := visitNameItems(t, v.Names)
		if err != nil {
			return nil, err
		}
		out.Names = names
		return &out, nil

	case *Nonlocal:
		out := *v
		names, err := visitNameItems(t, v.Names)
		if err != nil {
			return nil, err
		}
		out.Names = names
		return &out, nil

	case *Tuple:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		elements := make([]Element, len(v.Elements))
		for i := range v.Elements {
			elements[i] = v.Elements[i]
			if elements[i].Value, err = visitExpr(t, v.Elements[i].Value); err != nil {
				return nil, err
			}
			if elements[i].Comma, err = visitComma(t, v.Elements[i].Comma); err != nil {
				return nil, err
			}
		}
		out.Elements = elements
		return &out, nil

	case *Attribute:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Value, err = visitExpr(t, v.Value); err != nil {
			return nil, err
		}
		if out.Attr, err = visitName(t, v.Attr); err != nil {
			return nil, err
		}
		return &out, nil

	case *Subscript:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Value, err = visitExpr(t, v.Value); err != nil {
			return nil, err
		}
		if out.Lbracket.WhitespaceAfter, err = visitWS(t, v.Lbracket.WhitespaceAfter); err != nil {
			return nil, err
		}
		if out.Index, err = visitExpr(t, v.Index); err != nil {
			return nil, err
		}
		if out.Rbracket.WhitespaceBefore, err = visitWS(t, v.Rbracket.WhitespaceBefore); err != nil {
			return nil, err
		}
		return &out, nil

	case *Call:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Func, err = visitExpr(t, v.Func); err != nil {
			return nil, err
		}
		if out.WhitespaceBeforeArgs, err = visitWS(t, v.WhitespaceBeforeArgs); err != nil {
			return nil, err
		}
		args := make([]Arg, len(v.Args))
		for i := range v.Args {
			args[i] = v.Args[i]
			if args[i].Keyword, err = visitName(t, v.Args[i].Keyword); err != nil {
				return nil, err
			}
			if args[i].Value, err = visitExpr(t, v.Args[i].Value); err != nil {
				return nil, err
			}
			if args[i].Comma, err = visitComma(t, v.Args[i].Comma); err != nil {
				return nil, err
			}
			if args[i].WhitespaceAfterArg, err = visitWS(t, v.Args[i].WhitespaceAfterArg); err != nil {
				return nil, err
			}
		}
		out.Args = args
		return &out, nil

	case *BinaryOperation:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Left, err = visitExpr(t, v.Left); err != nil {
			return nil, err
		}
		if out.Operator.WhitespaceBefore, err = visitWS(t, v.Operator.WhitespaceBefore); err != nil {
			return nil, err
		}
		if out.Operator.WhitespaceAfter, err = visitWS(t, v.Operator.WhitespaceAfter); err != nil {
			return nil, err
		}
		if out.Right, err = visitExpr(t, v.Right); err != nil {
			return nil, err
		}
		return &out, nil

	case *UnaryOperation:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Operator.WhitespaceAfter, err = visitWS(t, v.Operator.WhitespaceAfter); err != nil {
			return nil, err
		}
		if out.Expression, err = visitExpr(t, v.Expression); err != nil {
			return nil, err
		}
		return &out, nil

	case *Lambda:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		if out.Params, err = visitParameters(t, v.Params); err != nil {
			return nil, err
		}
		if out.Body, err = visitExpr(t, v.Body); err != nil {
			return nil, err
		}
		return &out, nil

	case *Param:
		out := *v
		var err error
		if out.WhitespaceAfterStar, err = visitWS(t, v.WhitespaceAfterStar); err != nil {
			return nil, err
		}
		if out.Name, err = visitName(t, v.Name); err != nil {
			return nil, err
		}
		if out.Annotation, err = visitAnnotationPtr(t, v.Annotation); err != nil {
			return nil, err
		}
		if out.Default, err = visitOptExpr(t, v.Default); err != nil {
			return nil, err
		}
		if out.Comma, err = visitComma(t, v.Comma); err != nil {
			return nil, err
		}
		if out.WhitespaceAfter, err = visitWS(t, v.WhitespaceAfter); err != nil {
			return nil, err
		}
		return &out, nil

	case *ParamStar:
		out := *v
		var err error
		if out.Comma, err = visitComma(t, v.Comma); err != nil {
			return nil, err
		}
		return &out, nil

	case *TrailingWhitespace:
		out := *v
		var err error
		if out.Comment, err = visitComment(t, v.Comment); err != nil {
			return nil, err
		}
		return &out, nil

	case *EmptyLine:
		out := *v
		var err error
		if out.Comment, err = visitComment(t, v.Comment); err != nil {
			return nil, err
		}
		return &out, nil

	case *ParenthesizedWhitespace:
		out := *v
		var err error
		if out.FirstLine, err = visitTrailing(t, v.FirstLine); err != nil {
			return nil, err
		}
		if out.EmptyLines, err = visitEmptyLines(t, v.EmptyLines); err != nil {
			return nil, err
		}
		return &out, nil

	case *Name, *Integer, *Float, *SimpleString, *Ellipsis:
		return visitLiteralParens(t, v)

	default:
		// leaves: Comment, Pass and anything without visitable children
		return n, nil
	}
}

// visitLiteralParens visits the paren whitespace of atom expressions.
func visitLiteralParens(t Transform, n Node) (Node, error) {
	switch v := n.(type) {
	case *Name:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		return &out, nil
	case *Integer:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		return &out, nil
	case *Float:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		return &out, nil
	case *SimpleString:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		return &out, nil
	case *Ellipsis:
		out := *v
		var err error
		if out.Lpar, out.Rpar, err = visitParens(t, v.Lpar, v.Rpar); err != nil {
			return nil, err
		}
		return &out, nil
	}
	return n, nil
}

func visitNameItems(t Transform, names []NameItem) ([]NameItem, error) {
	out := make([]NameItem, len(names))
	var err error
	for i := range names {
		out[i] = names[i]
		if out[i].Name, err = visitName(t, names[i].Name); err != nil {
			return nil, err
		}
		if out[i].Comma, err = visitComma(t, names[i].Comma); err != nil {
			return nil, err
		}
	}
	return out, nil
}
