// convert.go — the type-comment-to-annotation migration transform.
//
// OVERVIEW
// --------
// TypeCommentConverter rewrites legacy "# type:" comments into explicit
// annotations:
//
//   - an assignment with a statement-form comment becomes an annotated
//     assignment ("x = 1  # type: int" → "x: int = 1"); multi-target or
//     tuple-shaped assignments become standalone type declarations
//     followed by the original, now-unannotated assignment;
//   - for/with statements get their declarations prepended, since those
//     binding forms cannot carry inline annotations;
//   - function definitions merge inline per-parameter comments, the
//     function-level "(T1, T2) -> R" comment, and pre-existing explicit
//     annotations (which always win) into parameter and return
//     annotations.
//
// Matching a tuple-shaped comment against a tuple-shaped binding target
// follows strict arity rules: any mismatch aborts that statement's
// rewrite and leaves it byte-for-byte unchanged, comment included.
// Converted annotations are quoted string literals unless the annotation
// text is a known always-resolvable name (see builtins.go), so a
// converted file can never fail at import time.
package pycst

import (
	"errors"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// TypeCommentConverter is a Transform migrating type comments to
// annotations. A converter instance carries per-traversal state and must
// not be shared across concurrent traversals.
type TypeCommentConverter struct {
	TransformBase
	unquoted map[string]bool

	// Function headers are the one place where the location of a type
	// comment is hard to pin down, so while traversing between a def
	// keyword and the start of its body we strip every type comment,
	// provided the header yielded usable type information.
	infoStack       []functionTypeInfo
	bodyStack       []Suite
	paramsStack     []map[*Param]bool
	aggressiveStrip bool
}

// ConvertOption configures a TypeCommentConverter.
type ConvertOption func(*TypeCommentConverter)

// WithUnquotedNames adds names the converter may emit without quotes, on
// top of DefaultUnquotedNames.
func WithUnquotedNames(names ...string) ConvertOption {
	return func(c *TypeCommentConverter) {
		for _, name := range names {
			c.unquoted[name] = true
		}
	}
}

// NewTypeCommentConverter builds a converter with the default unquoted
// name set.
func NewTypeCommentConverter(opts ...ConvertOption) *TypeCommentConverter {
	c := &TypeCommentConverter{unquoted: make(map[string]bool, len(DefaultUnquotedNames))}
	for name := range DefaultUnquotedNames {
		c.unquoted[name] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertTypeComments parses src, migrates its type comments and renders
// the result.
func ConvertTypeComments(src string, opts ...ConvertOption) (string, error) {
	mod, err := ParseModule(src)
	if err != nil {
		return "", err
	}
	out, err := mod.Visit(NewTypeCommentConverter(opts...))
	if err != nil {
		return "", err
	}
	return out.Code(), nil
}

//// END_OF_PUBLIC

/* ===========================
   TRANSFORM HOOKS
   =========================== */

func (c *TypeCommentConverter) OnEnter(n Node) bool {
	if fd, ok := n.(*FunctionDef); ok {
		info := functionTypeInfoFromCST(fd)
		c.aggressiveStrip = !info.isEmpty()
		c.infoStack = append(c.infoStack, info)
		c.bodyStack = append(c.bodyStack, fd.Body)
		c.paramsStack = append(c.paramsStack, ownParams(&fd.Params))
	}
	return true
}

// ownParams collects the identity of a signature's own parameters, so
// harvested types never leak onto lambda parameters (or any other param
// list) visited while the function is on the stack.
func ownParams(params *Parameters) map[*Param]bool {
	own := make(map[*Param]bool)
	for _, p := range params.Params {
		own[p] = true
	}
	for _, p := range params.DefaultParams {
		own[p] = true
	}
	if p, ok := params.StarArg.(*Param); ok {
		own[p] = true
	}
	for _, p := range params.KwonlyParams {
		own[p] = true
	}
	if params.StarKwarg != nil {
		own[params.StarKwarg] = true
	}
	return own
}

func (c *TypeCommentConverter) OnEnterBody(parent Node) {
	if _, ok := parent.(*FunctionDef); ok {
		// past the header; stop stripping so unprocessed statement
		// comments inside the body survive
		c.aggressiveStrip = false
	}
}

func (c *TypeCommentConverter) OnLeave(original, updated Node) Rewrite {
	switch u := updated.(type) {
	case *TrailingWhitespace:
		if c.aggressiveStrip && IsTypeComment(u.Comment) {
			return Replace(&TrailingWhitespace{Newline: u.Newline})
		}
	case *EmptyLine:
		if c.aggressiveStrip && IsTypeComment(u.Comment) {
			return Remove()
		}
	case *SimpleStatementLine:
		return c.leaveSimpleStatementLine(original.(*SimpleStatementLine), u)
	case *For:
		return c.leaveFor(original.(*For), u)
	case *With:
		return c.leaveWith(original.(*With), u)
	case *IndentedBlock:
		return c.leaveIndentedBlock(original.(*IndentedBlock), u)
	case *Param:
		return c.leaveParam(original.(*Param), u)
	case *FunctionDef:
		return c.leaveFunctionDef(u)
	}
	return Keep()
}

// leaveSimpleStatementLine converts a line whose last small statement is
// an assignment carrying a statement-form type comment.
func (c *TypeCommentConverter) leaveSimpleStatementLine(original, updated *SimpleStatementLine) Rewrite {
	if len(updated.Body) == 0 {
		return Keep()
	}
	assign, ok := updated.Body[len(updated.Body)-1].(*Assign)
	if !ok {
		return Keep()
	}
	payload, ok := TypeCommentPayload(original.TrailingWhitespace.Comment)
	if !ok {
		return Keep()
	}
	annotation, ok := DecodeTypeComment(payload)
	if !ok {
		return Keep()
	}
	single, multi, err := c.convertAssign(assign, annotation)
	if err != nil {
		// arity mismatch; leave the line untouched, comment included
		return Keep()
	}
	if single != nil {
		out := *updated
		out.Body = append(append([]SmallStatement{}, updated.Body[:len(updated.Body)-1]...), single)
		out.TrailingWhitespace = stripTypeCommentTrailing(updated.TrailingWhitespace)
		return Replace(&out)
	}
	// Two or more statements: split across lines, spreading any
	// multi-statement run out with them.
	var smalls []SmallStatement
	for _, s := range updated.Body[:len(updated.Body)-1] {
		smalls = append(smalls, smallWithSemicolon(s, nil))
	}
	smalls = append(smalls, multi...)
	first := *updated
	first.Body = []SmallStatement{smallWithSemicolon(smalls[0], nil)}
	first.TrailingWhitespace = stripTypeCommentTrailing(updated.TrailingWhitespace)
	nodes := []Node{&first}
	for _, s := range smalls[1:] {
		nodes = append(nodes, &SimpleStatementLine{Body: []SmallStatement{smallWithSemicolon(s, nil)}})
	}
	return Flatten(nodes...)
}

// leaveFor prepends type declarations for a loop target annotated with a
// comment on the header line.
func (c *TypeCommentConverter) leaveFor(original, updated *For) Rewrite {
	body, ok := updated.Body.(*IndentedBlock)
	if !ok {
		return Keep()
	}
	origBody, ok := original.Body.(*IndentedBlock)
	if !ok {
		return Keep()
	}
	payload, ok := TypeCommentPayload(origBody.Header.Comment)
	if !ok {
		return Keep()
	}
	annotation, ok := DecodeTypeComment(payload)
	if !ok {
		return Keep()
	}
	decls, err := c.typeDeclarationStatements(unpackTarget(updated.Target), unpackAnnotation(annotation), updated.LeadingLines)
	if err != nil {
		return Keep()
	}
	newBody := *body
	newBody.Header = stripTypeCommentTrailing(body.Header)
	out := *updated
	out.Body = &newBody
	out.LeadingLines = nil
	nodes := make([]Node, 0, len(decls)+1)
	for _, d := range decls {
		nodes = append(nodes, d)
	}
	return Flatten(append(nodes, &out)...)
}

// leaveWith prepends type declarations for a single 'as' binding
// annotated with a comment on the header line. Multiple bindings have no
// specified comment semantics and are left alone.
func (c *TypeCommentConverter) leaveWith(original, updated *With) Rewrite {
	body, ok := updated.Body.(*IndentedBlock)
	if !ok {
		return Keep()
	}
	origBody, ok := original.Body.(*IndentedBlock)
	if !ok {
		return Keep()
	}
	payload, ok := TypeCommentPayload(origBody.Header.Comment)
	if !ok {
		return Keep()
	}
	annotation, ok := DecodeTypeComment(payload)
	if !ok {
		return Keep()
	}
	var targets []Expression
	for i := range updated.Items {
		if asname := updated.Items[i].AsName; asname != nil {
			targets = append(targets, asname.Name)
		}
	}
	if len(targets) != 1 {
		return Keep()
	}
	decls, err := c.typeDeclarationStatements(unpackTarget(targets[0]), unpackAnnotation(annotation), updated.LeadingLines)
	if err != nil {
		return Keep()
	}
	newBody := *body
	newBody.Header = stripTypeCommentTrailing(body.Header)
	out := *updated
	out.Body = &newBody
	out.LeadingLines = nil
	nodes := make([]Node, 0, len(decls)+1)
	for _, d := range decls {
		nodes = append(nodes, d)
	}
	return Flatten(append(nodes, &out)...)
}

// leaveIndentedBlock strips the function-level type comment from a
// function body: it sits either in the block header (same line as the
// colon) or among the first statement's leading lines.
func (c *TypeCommentConverter) leaveIndentedBlock(original, updated *IndentedBlock) Rewrite {
	if len(c.bodyStack) == 0 {
		return Keep()
	}
	if Suite(original) != c.bodyStack[len(c.bodyStack)-1] {
		return Keep()
	}
	if c.infoStack[len(c.infoStack)-1].isEmpty() {
		return Keep()
	}
	out := *updated
	if IsTypeComment(out.Header.Comment) {
		out.Header = TrailingWhitespace{Newline: out.Header.Newline}
	}
	if len(out.Body) > 0 {
		first := out.Body[0]
		lines := stmtLeadingLines(first)
		var kept []EmptyLine
		for _, line := range lines {
			if !IsTypeComment(line.Comment) {
				kept = append(kept, line)
			}
		}
		if len(kept) != len(lines) {
			body := append([]Statement{}, out.Body...)
			body[0] = withStmtLeadingLines(first, kept)
			out.Body = body
		}
	}
	return Replace(&out)
}

// leaveParam applies the harvested parameter type, unless an explicit
// annotation already exists. Only the enclosing def's own parameters are
// eligible; lambda parameters never carry annotations.
func (c *TypeCommentConverter) leaveParam(original, updated *Param) Rewrite {
	if updated.Annotation != nil || updated.Name == nil {
		return Keep()
	}
	if len(c.infoStack) == 0 {
		return Keep()
	}
	if !c.paramsStack[len(c.paramsStack)-1][original] {
		return Keep()
	}
	raw, ok := c.infoStack[len(c.infoStack)-1].arguments[updated.Name.Value]
	if !ok {
		return Keep()
	}
	out := *updated
	ann := c.convertAnnotation(raw)
	out.Annotation = &ann
	return Replace(&out)
}

func (c *TypeCommentConverter) leaveFunctionDef(updated *FunctionDef) Rewrite {
	c.bodyStack = c.bodyStack[:len(c.bodyStack)-1]
	c.paramsStack = c.paramsStack[:len(c.paramsStack)-1]
	info := c.infoStack[len(c.infoStack)-1]
	c.infoStack = c.infoStack[:len(c.infoStack)-1]
	if updated.Returns != nil || info.returns == "" {
		return Keep()
	}
	out := *updated
	ann := c.convertAnnotation(info.returns)
	out.Returns = &ann
	return Replace(&out)
}

/* ===========================
   ANNOTATION SPREADING
   =========================== */

// errArity signals a shape mismatch between a binding target and a
// tuple-form annotation; the whole statement rewrite is abandoned.
var errArity = errors.New("arity mismatch between bindings and annotations")

// annotationShape is the unpacked form of a type comment payload: either
// a single annotation text or a sequence of nested shapes.
type annotationShape struct {
	text  string
	seq   []annotationShape
	isSeq bool
}

// bindingShape mirrors annotationShape for target expressions.
type bindingShape struct {
	expr  Expression
	seq   []bindingShape
	isSeq bool
}

// unpackAnnotation splits a decoded payload into nested annotation texts.
// Annotations travel as rendered text because, without scope analysis,
// quoting text is the safest thing a codemod can emit.
func unpackAnnotation(e Expression) annotationShape {
	if tuple, ok := e.(*Tuple); ok {
		shape := annotationShape{isSeq: true}
		for i := range tuple.Elements {
			shape.seq = append(shape.seq, unpackAnnotation(tuple.Elements[i].Value))
		}
		return shape
	}
	return annotationShape{text: renderAnnotationText(e)}
}

// unpackTarget splits a binding target into its nested leaf expressions.
func unpackTarget(e Expression) bindingShape {
	if tuple, ok := e.(*Tuple); ok {
		shape := bindingShape{isSeq: true}
		for i := range tuple.Elements {
			shape.seq = append(shape.seq, unpackTarget(tuple.Elements[i].Value))
		}
		return shape
	}
	return bindingShape{expr: e}
}

// annotatedBinding pairs one leaf binding with its annotation text.
type annotatedBinding struct {
	target Expression
	raw    string
}

// annotatedBindings zips bindings against annotations under strict arity
// rules: sequences must pair with sequences of the same length, leaves
// with leaves.
func annotatedBindings(b bindingShape, a annotationShape) ([]annotatedBinding, error) {
	if a.isSeq {
		if !b.isSeq || len(b.seq) != len(a.seq) {
			return nil, errArity
		}
		var out []annotatedBinding
		for i := range b.seq {
			pairs, err := annotatedBindings(b.seq[i], a.seq[i])
			if err != nil {
				return nil, err
			}
			out = append(out, pairs...)
		}
		return out, nil
	}
	if b.isSeq {
		return nil, errArity
	}
	return []annotatedBinding{{target: b.expr, raw: a.text}}, nil
}

// convertAnnotation wraps raw annotation text as an Annotation node,
// quoting everything except known always-resolvable names.
func (c *TypeCommentConverter) convertAnnotation(raw string) Annotation {
	if c.unquoted[raw] {
		return Annotation{Annotation: &Name{Value: raw}}
	}
	return Annotation{Annotation: &SimpleString{Value: quoteAnnotation(raw)}}
}

// quoteAnnotation wraps annotation text as a string literal, picking a
// quote style the text does not already use (forward references like
// Literal["x"] must stay a single well-formed literal). Text using both
// quote styles gets its double quotes escaped.
func quoteAnnotation(raw string) string {
	switch {
	case !strings.Contains(raw, `"`):
		return `"` + raw + `"`
	case !strings.Contains(raw, "'"):
		return "'" + raw + "'"
	default:
		escaped := strings.ReplaceAll(strings.ReplaceAll(raw, `\`, `\\`), `"`, `\"`)
		return `"` + escaped + `"`
	}
}

// typeDeclaration builds a value-less annotated assignment,
// "target: Type".
func (c *TypeCommentConverter) typeDeclaration(target Expression, raw string) *AnnAssign {
	return &AnnAssign{Target: target, Annotation: c.convertAnnotation(raw)}
}

// typeDeclarationStatements builds one declaration line per leaf binding,
// moving the given leading lines onto the first.
func (c *TypeCommentConverter) typeDeclarationStatements(b bindingShape, a annotationShape, leading []EmptyLine) ([]*SimpleStatementLine, error) {
	pairs, err := annotatedBindings(b, a)
	if err != nil {
		return nil, err
	}
	var out []*SimpleStatementLine
	for i, pair := range pairs {
		line := &SimpleStatementLine{
			Body: []SmallStatement{c.typeDeclaration(pair.target, pair.raw)},
		}
		if i == 0 {
			line.LeadingLines = leading
		}
		out = append(out, line)
	}
	return out, nil
}

// convertAssign zips an assignment's targets against a decoded
// annotation. A single-leaf, single-target assignment converts in place
// to an AnnAssign; anything larger becomes declarations followed by the
// original assignment.
func (c *TypeCommentConverter) convertAssign(node *Assign, annotation Expression) (*AnnAssign, []SmallStatement, error) {
	annotations := unpackAnnotation(annotation)
	var annotatedTargets [][]annotatedBinding
	for i := range node.Targets {
		pairs, err := annotatedBindings(unpackTarget(node.Targets[i].Target), annotations)
		if err != nil {
			return nil, nil, err
		}
		annotatedTargets = append(annotatedTargets, pairs)
	}
	if len(annotatedTargets) == 1 && len(annotatedTargets[0]) == 1 {
		pair := annotatedTargets[0][0]
		return &AnnAssign{
			Target:     pair.target,
			Annotation: c.convertAnnotation(pair.raw),
			Value:      node.Value,
			Semicolon:  node.Semicolon,
		}, nil, nil
	}
	var out []SmallStatement
	for _, pairs := range annotatedTargets {
		for _, pair := range pairs {
			out = append(out, c.typeDeclaration(pair.target, pair.raw))
		}
	}
	return nil, append(out, node), nil
}

/* ===========================
   FUNCTION TYPE INFO
   =========================== */

// functionTypeInfo is the merged type information harvested from a
// function header: parameter name → annotation text, plus the return
// type. Explicit annotations are never recorded here since they are
// never overridden.
type functionTypeInfo struct {
	arguments map[string]string
	returns   string
}

func (f functionTypeInfo) isEmpty() bool {
	return f.returns == "" && len(f.arguments) == 0
}

// functionTypeInfoFromCST extracts type information for a function
// definition. Precedence: inline per-parameter comments beat the
// function-level comment; a "(...) -> R" comment contributes only the
// return type; a function-level comment whose argument count does not
// match the signature contributes only the return type as well. An
// unparsable function-level comment discards all type information for
// the header, inline comments included.
func functionTypeInfoFromCST(node *FunctionDef) functionTypeInfo {
	params := node.Params.declarationOrder()
	inline := func() map[string]string {
		out := map[string]string{}
		for _, p := range params {
			if p.Name == nil {
				continue
			}
			if raw, ok := paramTypeComment(p); ok {
				out[p.Name.Value] = raw
			}
		}
		return out
	}
	payload, found := functionTypeCommentPayload(node)
	if !found {
		return functionTypeInfo{arguments: inline()}
	}
	decoded, ok := DecodeFuncTypeComment(payload)
	if !ok {
		// unparsable function type comment; ignore all type information
		return functionTypeInfo{}
	}
	returns := renderAnnotationText(decoded.Returns)
	if decoded.EllipsisArgs {
		return functionTypeInfo{arguments: inline(), returns: returns}
	}
	if len(decoded.ArgTypes) != len(params) {
		// argument-type list does not line up with the signature; drop it
		// but keep the return type and any inline comments
		return functionTypeInfo{arguments: inline(), returns: returns}
	}
	arguments := map[string]string{}
	for i, p := range params {
		if p.Name == nil {
			continue
		}
		if raw, ok := paramTypeComment(p); ok {
			arguments[p.Name.Value] = raw
		} else {
			arguments[p.Name.Value] = renderAnnotationText(decoded.ArgTypes[i])
		}
	}
	return functionTypeInfo{arguments: arguments, returns: returns}
}

// paramTypeComment finds a parameter's inline type comment: the comment
// on the line the parameter ends on, carried by the whitespace after its
// comma (or after the parameter itself when it is last). The decoded
// annotation travels as rendered text.
func paramTypeComment(p *Param) (string, bool) {
	var ws Whitespace
	if p.Comma != nil {
		ws = p.Comma.WhitespaceAfter
	} else {
		ws = p.WhitespaceAfter
	}
	pw, ok := ws.(*ParenthesizedWhitespace)
	if !ok {
		return "", false
	}
	payload, ok := TypeCommentPayload(pw.FirstLine.Comment)
	if !ok {
		return "", false
	}
	expr, ok := DecodeTypeComment(payload)
	if !ok {
		return "", false
	}
	return renderAnnotationText(expr), true
}

// functionTypeCommentPayload finds the function-level comment: on the
// header line after the colon, or on a leading line of the first body
// statement.
func functionTypeCommentPayload(node *FunctionDef) (string, bool) {
	block, ok := node.Body.(*IndentedBlock)
	if !ok {
		return "", false
	}
	if payload, ok := TypeCommentPayload(block.Header.Comment); ok {
		return payload, true
	}
	if len(block.Body) > 0 {
		for _, line := range stmtLeadingLines(block.Body[0]) {
			if payload, ok := TypeCommentPayload(line.Comment); ok {
				return payload, true
			}
		}
	}
	return "", false
}

/* ===========================
   SMALL HELPERS
   =========================== */

// stripTypeCommentTrailing drops a line's comment and the whitespace that
// preceded it, keeping the newline.
func stripTypeCommentTrailing(tw TrailingWhitespace) TrailingWhitespace {
	return TrailingWhitespace{Newline: tw.Newline}
}

// smallWithSemicolon returns a copy of a small statement with the given
// trailing semicolon.
func smallWithSemicolon(s SmallStatement, semi *Semicolon) SmallStatement {
	switch v := s.(type) {
	case *Assign:
		out := *v
		out.Semicolon = semi
		return &out
	case *AnnAssign:
		out := *v
		out.Semicolon = semi
		return &out
	case *Expr:
		out := *v
		out.Semicolon = semi
		return &out
	case *Pass:
		out := *v
		out.Semicolon = semi
		return &out
	case *Return:
		out := *v
		out.Semicolon = semi
		return &out
	case *Global:
		out := *v
		out.Semicolon = semi
		return &out
	case *Nonlocal:
		out := *v
		out.Semicolon = semi
		return &out
	}
	return s
}

// renderAnnotationText renders an annotation expression to the text used
// for quoting and comparison.
func renderAnnotationText(e Expression) string {
	return strings.TrimSpace(Render(e))
}
