// render.go — deterministic, whitespace-exact code generation.
//
// Every node writes its semantic and formatting children in a fixed,
// variant-specific order. The round-trip law is byte equality: rendering a
// tree produced by parse yields the original text exactly. Nodes that were
// synthesized without explicit formatting fall back to the slot defaults
// documented on each field (a nil Whitespace, a nil Comma between
// elements, a nil AssignEqual next to a default value, …), so transforms
// can build plain shapes like `x: int = 1` without spelling out spacing.
package pycst

import "strings"

/* ===========================
   RENDER STATE
   =========================== */

type renderState struct {
	b              strings.Builder
	indents        []string
	defaultIndent  string
	defaultNewline string

	// spans, when non-nil, collects the byte extent every node renders.
	// See SpansFor in positions.go.
	spans map[Node]Span
}

var noTrack = func() {}

// track records the byte extent of a node's rendering when span
// collection is active. Call as: defer st.track(n)().
func (st *renderState) track(n Node) func() {
	if st.spans == nil {
		return noTrack
	}
	start := st.b.Len()
	return func() { st.spans[n] = Span{Start: start, End: st.b.Len()} }
}

func newRenderState(indent, newline string) *renderState {
	if indent == "" {
		indent = "    "
	}
	if newline == "" {
		newline = "\n"
	}
	return &renderState{defaultIndent: indent, defaultNewline: newline}
}

func (st *renderState) write(s string) { st.b.WriteString(s) }

func (st *renderState) writeIndent() {
	for _, tok := range st.indents {
		st.b.WriteString(tok)
	}
}

func (st *renderState) pushIndent(tok string) {
	if tok == "" {
		tok = st.defaultIndent
	}
	st.indents = append(st.indents, tok)
}

func (st *renderState) popIndent() { st.indents = st.indents[:len(st.indents)-1] }

// ws writes a whitespace slot, substituting def when the slot is nil.
func (st *renderState) ws(w Whitespace, def string) {
	switch v := w.(type) {
	case nil:
		st.write(def)
	case SimpleWhitespace:
		st.write(string(v))
	case *ParenthesizedWhitespace:
		v.codegen(st)
	}
}

// Render serializes any node (or subtree) using package-default formatting
// conventions. For whole modules prefer Module.Code, which follows the
// module's own conventions and trailing-newline state.
func Render(n Node) string {
	st := newRenderState("", "")
	n.codegen(st)
	return st.b.String()
}

// Code renders the module byte for byte.
func (m *Module) Code() string {
	st := newRenderState(m.DefaultIndent, m.DefaultNewline)
	m.codegen(st)
	out := st.b.String()
	if !m.HasTrailingNewline {
		if strings.HasSuffix(out, "\r\n") {
			out = out[:len(out)-2]
		} else if strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\r") {
			out = out[:len(out)-1]
		}
	}
	return out
}

// CodeForNode renders a subtree under this module's formatting
// conventions, useful for diagnostics.
func (m *Module) CodeForNode(n Node) string {
	st := newRenderState(m.DefaultIndent, m.DefaultNewline)
	n.codegen(st)
	return st.b.String()
}

/* ===========================
   SEPARATOR HELPERS
   =========================== */

func renderComma(st *renderState, c *Comma, last bool) {
	if c == nil {
		if !last {
			st.write(", ")
		}
		return
	}
	st.ws(c.WhitespaceBefore, "")
	st.write(",")
	st.ws(c.WhitespaceAfter, "")
}

func renderSemicolon(st *renderState, s *Semicolon, last bool) {
	if s == nil {
		if !last {
			st.write("; ")
		}
		return
	}
	st.ws(s.WhitespaceBefore, "")
	st.write(";")
	st.ws(s.WhitespaceAfter, "")
}

func renderAssignEqual(st *renderState, e *AssignEqual, defBefore, defAfter string) {
	if e == nil {
		st.write(defBefore + "=" + defAfter)
		return
	}
	st.ws(e.WhitespaceBefore, defBefore)
	st.write("=")
	st.ws(e.WhitespaceAfter, defAfter)
}

func renderLpar(st *renderState, lpar []LeftParen) {
	for i := range lpar {
		st.write("(")
		st.ws(lpar[i].WhitespaceAfter, "")
	}
}

func renderRpar(st *renderState, rpar []RightParen) {
	for i := range rpar {
		st.ws(rpar[i].WhitespaceBefore, "")
		st.write(")")
	}
}

/* ===========================
   WHITESPACE NODES
   =========================== */

func (c *Comment) codegen(st *renderState) { st.write(c.Value) }

func (n *Newline) codegen(st *renderState) {
	if n.Value == "" {
		st.write(st.defaultNewline)
		return
	}
	st.write(n.Value)
}

func (t *TrailingWhitespace) codegen(st *renderState) {
	st.write(string(t.Whitespace))
	if t.Comment != nil {
		t.Comment.codegen(st)
	}
	t.Newline.codegen(st)
}

func (e *EmptyLine) codegen(st *renderState) {
	st.write(string(e.Whitespace))
	if e.Comment != nil {
		e.Comment.codegen(st)
	}
	e.Newline.codegen(st)
}

func (p *ParenthesizedWhitespace) codegen(st *renderState) {
	p.FirstLine.codegen(st)
	for i := range p.EmptyLines {
		p.EmptyLines[i].codegen(st)
	}
	st.write(string(p.LastLine))
}

func (a *Annotation) codegen(st *renderState) { a.codegenIndicator(st, ":", "", " ") }

func (a *Annotation) codegenIndicator(st *renderState, indicator, defBefore, defAfter string) {
	defer st.track(a)()
	st.ws(a.WhitespaceBeforeIndicator, defBefore)
	st.write(indicator)
	st.ws(a.WhitespaceAfterIndicator, defAfter)
	a.Annotation.codegen(st)
}

/* ===========================
   EXPRESSIONS
   =========================== */

func (n *Name) codegen(st *renderState) {
	defer st.track(n)()
	renderLpar(st, n.Lpar)
	st.write(n.Value)
	renderRpar(st, n.Rpar)
}

func (n *Integer) codegen(st *renderState) {
	defer st.track(n)()
	renderLpar(st, n.Lpar)
	st.write(n.Value)
	renderRpar(st, n.Rpar)
}

func (n *Float) codegen(st *renderState) {
	defer st.track(n)()
	renderLpar(st, n.Lpar)
	st.write(n.Value)
	renderRpar(st, n.Rpar)
}

func (s *SimpleString) codegen(st *renderState) {
	defer st.track(s)()
	renderLpar(st, s.Lpar)
	st.write(s.Value)
	renderRpar(st, s.Rpar)
}

func (e *Ellipsis) codegen(st *renderState) {
	defer st.track(e)()
	renderLpar(st, e.Lpar)
	st.write("...")
	renderRpar(st, e.Rpar)
}

func (t *Tuple) codegen(st *renderState) {
	defer st.track(t)()
	renderLpar(st, t.Lpar)
	for i := range t.Elements {
		t.Elements[i].Value.codegen(st)
		renderComma(st, t.Elements[i].Comma, i == len(t.Elements)-1)
	}
	renderRpar(st, t.Rpar)
}

func (a *Attribute) codegen(st *renderState) {
	defer st.track(a)()
	renderLpar(st, a.Lpar)
	a.Value.codegen(st)
	st.ws(a.Dot.WhitespaceBefore, "")
	st.write(".")
	st.ws(a.Dot.WhitespaceAfter, "")
	a.Attr.codegen(st)
	renderRpar(st, a.Rpar)
}

func (s *Subscript) codegen(st *renderState) {
	defer st.track(s)()
	renderLpar(st, s.Lpar)
	s.Value.codegen(st)
	st.ws(s.WhitespaceAfterValue, "")
	st.write("[")
	st.ws(s.Lbracket.WhitespaceAfter, "")
	s.Index.codegen(st)
	st.ws(s.Rbracket.WhitespaceBefore, "")
	st.write("]")
	renderRpar(st, s.Rpar)
}

func (c *Call) codegen(st *renderState) {
	defer st.track(c)()
	renderLpar(st, c.Lpar)
	c.Func.codegen(st)
	st.ws(c.WhitespaceAfterFunc, "")
	st.write("(")
	st.ws(c.WhitespaceBeforeArgs, "")
	for i := range c.Args {
		c.Args[i].codegenArg(st, i == len(c.Args)-1)
	}
	st.write(")")
	renderRpar(st, c.Rpar)
}

func (a *Arg) codegen(st *renderState) { a.codegenArg(st, true) }

func (a *Arg) codegenArg(st *renderState, last bool) {
	defer st.track(a)()
	st.write(a.Star)
	st.ws(a.WhitespaceAfterStar, "")
	if a.Keyword != nil {
		a.Keyword.codegen(st)
		renderAssignEqual(st, a.Equal, "", "")
	}
	a.Value.codegen(st)
	st.ws(a.WhitespaceAfterArg, "")
	renderComma(st, a.Comma, last)
}

func (b *BinaryOperation) codegen(st *renderState) {
	defer st.track(b)()
	renderLpar(st, b.Lpar)
	b.Left.codegen(st)
	st.ws(b.Operator.WhitespaceBefore, " ")
	st.write(b.Operator.Token)
	st.ws(b.Operator.WhitespaceAfter, " ")
	b.Right.codegen(st)
	renderRpar(st, b.Rpar)
}

func (u *UnaryOperation) codegen(st *renderState) {
	defer st.track(u)()
	renderLpar(st, u.Lpar)
	st.write(u.Operator.Token)
	def := ""
	if u.Operator.Token == "not" {
		def = " "
	}
	st.ws(u.Operator.WhitespaceAfter, def)
	u.Expression.codegen(st)
	renderRpar(st, u.Rpar)
}

func (l *Lambda) codegen(st *renderState) {
	defer st.track(l)()
	renderLpar(st, l.Lpar)
	st.write("lambda")
	def := " "
	if l.Params.IsEmpty() {
		def = ""
	}
	st.ws(l.WhitespaceAfterLambda, def)
	l.Params.codegen(st)
	st.ws(l.Colon.WhitespaceBefore, "")
	st.write(":")
	st.ws(l.Colon.WhitespaceAfter, " ")
	l.Body.codegen(st)
	renderRpar(st, l.Rpar)
}

func (p *Parameters) codegen(st *renderState) {
	defer st.track(p)()
	type item struct {
		param *Param
		star  *ParamStar
	}
	var items []item
	for _, param := range p.Params {
		items = append(items, item{param: param})
	}
	for _, param := range p.DefaultParams {
		items = append(items, item{param: param})
	}
	switch star := p.StarArg.(type) {
	case *Param:
		items = append(items, item{param: star})
	case *ParamStar:
		items = append(items, item{star: star})
	}
	for _, param := range p.KwonlyParams {
		items = append(items, item{param: param})
	}
	if p.StarKwarg != nil {
		items = append(items, item{param: p.StarKwarg})
	}
	for i, it := range items {
		last := i == len(items)-1
		if it.star != nil {
			it.star.codegen(st)
			continue
		}
		it.param.codegenParam(st, last)
	}
}

func (p *ParamStar) codegen(st *renderState) {
	defer st.track(p)()
	st.write("*")
	renderComma(st, p.Comma, false)
}

func (p *Param) codegen(st *renderState) { p.codegenParam(st, true) }

func (p *Param) codegenParam(st *renderState, last bool) {
	defer st.track(p)()
	st.write(p.Star)
	st.ws(p.WhitespaceAfterStar, "")
	p.Name.codegen(st)
	if p.Annotation != nil {
		p.Annotation.codegenIndicator(st, ":", "", " ")
	}
	if p.Default != nil {
		renderAssignEqual(st, p.Equal, " ", " ")
		p.Default.codegen(st)
	}
	st.ws(p.WhitespaceAfter, "")
	renderComma(st, p.Comma, last)
}

/* ===========================
   STATEMENTS
   =========================== */

// smallSemicolon extracts the trailing-semicolon slot shared by every
// small statement; the owning line renders it with last-element logic.
func smallSemicolon(s SmallStatement) *Semicolon {
	switch v := s.(type) {
	case *Assign:
		return v.Semicolon
	case *AnnAssign:
		return v.Semicolon
	case *Expr:
		return v.Semicolon
	case *Pass:
		return v.Semicolon
	case *Return:
		return v.Semicolon
	case *Global:
		return v.Semicolon
	case *Nonlocal:
		return v.Semicolon
	default:
		return nil
	}
}

func renderSmallBody(st *renderState, body []SmallStatement) {
	for i, s := range body {
		s.codegen(st)
		renderSemicolon(st, smallSemicolon(s), i == len(body)-1)
	}
}

func (a *Assign) codegen(st *renderState) {
	defer st.track(a)()
	for i := range a.Targets {
		t := &a.Targets[i]
		t.Target.codegen(st)
		st.ws(t.WhitespaceBeforeEqual, " ")
		st.write("=")
		st.ws(t.WhitespaceAfterEqual, " ")
	}
	a.Value.codegen(st)
}

func (a *AnnAssign) codegen(st *renderState) {
	defer st.track(a)()
	a.Target.codegen(st)
	a.Annotation.codegenIndicator(st, ":", "", " ")
	if a.Value != nil {
		renderAssignEqual(st, a.Equal, " ", " ")
		a.Value.codegen(st)
	}
}

func (e *Expr) codegen(st *renderState) {
	defer st.track(e)()
	e.Value.codegen(st)
}

func (p *Pass) codegen(st *renderState) {
	defer st.track(p)()
	st.write("pass")
}

func (r *Return) codegen(st *renderState) {
	defer st.track(r)()
	st.write("return")
	if r.Value != nil {
		st.ws(r.WhitespaceAfterReturn, " ")
		r.Value.codegen(st)
		return
	}
	st.ws(r.WhitespaceAfterReturn, "")
}

func renderNameItems(st *renderState, names []NameItem) {
	for i := range names {
		names[i].Name.codegen(st)
		renderComma(st, names[i].Comma, i == len(names)-1)
	}
}

func (g *Global) codegen(st *renderState) {
	defer st.track(g)()
	st.write("global")
	st.ws(g.WhitespaceAfterGlobal, " ")
	renderNameItems(st, g.Names)
}

func (n *Nonlocal) codegen(st *renderState) {
	defer st.track(n)()
	st.write("nonlocal")
	st.ws(n.WhitespaceAfterNonlocal, " ")
	renderNameItems(st, n.Names)
}

func renderLeadingLines(st *renderState, lines []EmptyLine) {
	for i := range lines {
		lines[i].codegen(st)
	}
}

func (s *SimpleStatementLine) codegen(st *renderState) {
	defer st.track(s)()
	renderLeadingLines(st, s.LeadingLines)
	st.writeIndent()
	renderSmallBody(st, s.Body)
	s.TrailingWhitespace.codegen(st)
}

func (s *SimpleStatementSuite) codegen(st *renderState) {
	defer st.track(s)()
	st.ws(s.LeadingWhitespace, " ")
	renderSmallBody(st, s.Body)
	s.TrailingWhitespace.codegen(st)
}

func (b *IndentedBlock) codegen(st *renderState) {
	defer st.track(b)()
	b.Header.codegen(st)
	st.pushIndent(b.Indent)
	for _, stmt := range b.Body {
		stmt.codegen(st)
	}
	st.popIndent()
	for i := range b.Footer {
		b.Footer[i].codegen(st)
	}
}

func (f *FunctionDef) codegen(st *renderState) {
	defer st.track(f)()
	renderLeadingLines(st, f.LeadingLines)
	st.writeIndent()
	st.write("def")
	st.ws(f.WhitespaceAfterDef, " ")
	f.Name.codegen(st)
	st.ws(f.WhitespaceAfterName, "")
	st.write("(")
	st.ws(f.WhitespaceBeforeParams, "")
	f.Params.codegen(st)
	st.write(")")
	if f.Returns != nil {
		f.Returns.codegenIndicator(st, "->", " ", " ")
	}
	st.ws(f.WhitespaceBeforeColon, "")
	st.write(":")
	f.Body.codegen(st)
}

func (f *For) codegen(st *renderState) {
	defer st.track(f)()
	renderLeadingLines(st, f.LeadingLines)
	st.writeIndent()
	st.write("for")
	st.ws(f.WhitespaceAfterFor, " ")
	f.Target.codegen(st)
	st.ws(f.WhitespaceBeforeIn, " ")
	st.write("in")
	st.ws(f.WhitespaceAfterIn, " ")
	f.Iter.codegen(st)
	st.ws(f.WhitespaceBeforeColon, "")
	st.write(":")
	f.Body.codegen(st)
}

func (w *While) codegen(st *renderState) {
	defer st.track(w)()
	renderLeadingLines(st, w.LeadingLines)
	st.writeIndent()
	st.write("while")
	st.ws(w.WhitespaceAfterWhile, " ")
	w.Test.codegen(st)
	st.ws(w.WhitespaceBeforeColon, "")
	st.write(":")
	w.Body.codegen(st)
}

func (w *With) codegen(st *renderState) {
	defer st.track(w)()
	renderLeadingLines(st, w.LeadingLines)
	st.writeIndent()
	st.write("with")
	st.ws(w.WhitespaceAfterWith, " ")
	for i := range w.Items {
		item := &w.Items[i]
		item.Item.codegen(st)
		if item.AsName != nil {
			st.ws(item.AsName.WhitespaceBeforeAs, " ")
			st.write("as")
			st.ws(item.AsName.WhitespaceAfterAs, " ")
			item.AsName.Name.codegen(st)
		}
		renderComma(st, item.Comma, i == len(w.Items)-1)
	}
	st.ws(w.WhitespaceBeforeColon, "")
	st.write(":")
	w.Body.codegen(st)
}

func (i *If) codegen(st *renderState) { i.codegenIf(st, "if") }

func (i *If) codegenIf(st *renderState, keyword string) {
	defer st.track(i)()
	renderLeadingLines(st, i.LeadingLines)
	st.writeIndent()
	st.write(keyword)
	st.ws(i.WhitespaceBeforeTest, " ")
	i.Test.codegen(st)
	st.ws(i.WhitespaceAfterTest, "")
	st.write(":")
	i.Body.codegen(st)
	switch orelse := i.Orelse.(type) {
	case *If:
		orelse.codegenIf(st, "elif")
	case *Else:
		orelse.codegen(st)
	}
}

func (e *Else) codegen(st *renderState) {
	defer st.track(e)()
	renderLeadingLines(st, e.LeadingLines)
	st.writeIndent()
	st.write("else")
	st.ws(e.WhitespaceBeforeColon, "")
	st.write(":")
	e.Body.codegen(st)
}

func (m *Module) codegen(st *renderState) {
	defer st.track(m)()
	for i := range m.Header {
		m.Header[i].codegen(st)
	}
	for _, stmt := range m.Body {
		stmt.codegen(st)
	}
	for i := range m.Footer {
		m.Footer[i].codegen(st)
	}
}
