// parser.go — recursive-descent parser producing the lossless CST.
//
// OVERVIEW
// --------
// The parser is scannerless: parse functions consume raw bytes and record
// every gap between tokens into the whitespace slot that owns it, which is
// what makes render(parse(T)) == T hold byte for byte. Indentation is an
// explicit stack of full line prefixes; blank and comment-only lines are
// buffered and attached as the leading lines of the next statement (or the
// module footer at end of file).
//
// The accepted grammar is the statement/expression subset the node model
// covers: simple and annotated assignments, global/nonlocal/return/pass,
// def/for/while/with/if-elif-else compounds, and an expression grammar of
// names, literals, tuples, attribute/subscript/call trailers, binary and
// unary operations, and lambdas. Anything else reports a *ParseError with
// a 1-based line and 0-based column; errors.go renders caret snippets.
//
// Entry points: ParseModule, ParseStatement, ParseExpression. The
// type-comment mini-grammar (typecomment.go) reuses ParseExpression.
package pycst

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// ParseError is a syntax error with a source position.
type ParseError struct {
	Line int // 1-based
	Col  int // 0-based
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// ParseModule parses a whole source file.
func ParseModule(src string) (*Module, error) {
	nl := detectNewline(src)
	hasTrailing := src == "" || strings.HasSuffix(src, "\n") || strings.HasSuffix(src, "\r")
	normalized := src
	if !hasTrailing {
		if nl == "" {
			nl = "\n"
		}
		normalized += nl
	}
	p := &parser{src: normalized}
	stmts, pending, err := p.parseStatements("")
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errf("unexpected indent")
	}
	mod := &Module{
		Body:               stmts,
		Footer:             pending,
		DefaultNewline:     nl,
		HasTrailingNewline: hasTrailing,
	}
	if len(stmts) > 0 {
		mod.Header = stmtLeadingLines(stmts[0])
		stmts[0] = withStmtLeadingLines(stmts[0], nil)
	} else {
		mod.Header = pending
		mod.Footer = nil
	}
	return mod, nil
}

// ParseStatement parses exactly one statement (simple or compound).
func ParseStatement(src string) (Statement, error) {
	normalized := src
	if !strings.HasSuffix(src, "\n") && !strings.HasSuffix(src, "\r") {
		normalized += "\n"
	}
	p := &parser{src: normalized}
	stmts, pending, err := p.parseStatements("")
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errf("unexpected indent")
	}
	if len(stmts) != 1 {
		return nil, p.errf("expected exactly one statement, found %d", len(stmts))
	}
	for i := range pending {
		if pending[i].Comment != nil {
			return nil, p.errf("unexpected trailing comment after statement")
		}
	}
	return stmts[0], nil
}

// ParseExpression parses a single expression (a bare tuple is allowed,
// matching eval input).
func ParseExpression(src string) (Expression, error) {
	p := &parser{src: src}
	expr, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	p.parseSimpleWS()
	if !p.atEOF() {
		return nil, p.errf("unexpected text after expression")
	}
	return expr, nil
}

func detectNewline(src string) string {
	if i := strings.IndexAny(src, "\r\n"); i >= 0 {
		if src[i] == '\r' {
			if i+1 < len(src) && src[i+1] == '\n' {
				return "\r\n"
			}
			return "\r"
		}
		return "\n"
	}
	return ""
}

/* ===========================
   PARSER STATE & PRIMITIVES
   =========================== */

type parser struct {
	src    string
	pos    int
	parens int  // bracket nesting depth; >0 allows multi-line whitespace
	noIn   bool // suppress the 'in' operator while parsing a for target
}

func (p *parser) atEOF() bool { return p.pos >= len(p.src) }

func (p *parser) peekByte() byte {
	if p.atEOF() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) at(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

func (p *parser) take(s string) bool {
	if p.at(s) {
		p.pos += len(s)
		return true
	}
	return false
}

// errf builds a *ParseError at the current byte offset.
func (p *parser) errf(format string, args ...any) error {
	line, col := p.lineCol(p.pos)
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) lineCol(pos int) (int, int) {
	line, col := 1, 0
	for i := 0; i < pos && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return line, col
}

func isNewlineByte(c byte) bool { return c == '\n' || c == '\r' }

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentByte(c byte) bool { return isIdentStart(c) || isDigitByte(c) }

// parseSimpleWS consumes a same-line run of spaces and tabs.
func (p *parser) parseSimpleWS() SimpleWhitespace {
	start := p.pos
	for !p.atEOF() {
		c := p.src[p.pos]
		if c != ' ' && c != '\t' {
			break
		}
		p.pos++
	}
	return SimpleWhitespace(p.src[start:p.pos])
}

// peekIdent returns the identifier starting at the cursor, if any, without
// consuming it.
func (p *parser) peekIdent() string {
	if p.atEOF() || !isIdentStart(p.src[p.pos]) {
		return ""
	}
	end := p.pos
	for end < len(p.src) && isIdentByte(p.src[end]) {
		end++
	}
	return p.src[p.pos:end]
}

func (p *parser) takeIdent(word string) bool {
	if p.peekIdent() == word {
		p.pos += len(word)
		return true
	}
	return false
}

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true, "import": true,
	"in": true, "is": true, "lambda": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true, "try": true,
	"while": true, "with": true, "yield": true,
}

// parseIdentName consumes an identifier that is not a reserved keyword.
// True/False/None parse as names, matching their expression role.
func (p *parser) parseIdentName() (*Name, error) {
	word := p.peekIdent()
	if word == "" {
		return nil, p.errf("expected an identifier")
	}
	if pythonKeywords[word] && word != "True" && word != "False" && word != "None" {
		return nil, p.errf("unexpected keyword %q", word)
	}
	p.pos += len(word)
	return &Name{Value: word}, nil
}

func (p *parser) parseComment() *Comment {
	if p.peekByte() != '#' {
		return nil
	}
	start := p.pos
	for !p.atEOF() && !isNewlineByte(p.src[p.pos]) {
		p.pos++
	}
	return &Comment{Value: p.src[start:p.pos]}
}

func (p *parser) parseNewlineTok() (Newline, error) {
	switch {
	case p.take("\r\n"):
		return Newline{Value: "\r\n"}, nil
	case p.take("\n"):
		return Newline{Value: "\n"}, nil
	case p.take("\r"):
		return Newline{Value: "\r"}, nil
	}
	return Newline{}, p.errf("expected end of line, found %q", string(p.peekByte()))
}

// parseTrailing consumes the remainder of a logical line: spaces, an
// optional comment, and its newline.
func (p *parser) parseTrailing() (TrailingWhitespace, error) {
	ws := p.parseSimpleWS()
	comment := p.parseComment()
	nl, err := p.parseNewlineTok()
	if err != nil {
		return TrailingWhitespace{}, err
	}
	return TrailingWhitespace{Whitespace: ws, Comment: comment, Newline: nl}, nil
}

// parseWS consumes the whitespace run at the cursor. Inside brackets it
// may span lines and carry comments (ParenthesizedWhitespace); outside it
// is always a SimpleWhitespace.
func (p *parser) parseWS() (Whitespace, error) {
	ws := p.parseSimpleWS()
	if p.parens == 0 {
		return ws, nil
	}
	c := p.peekByte()
	if c != '#' && !isNewlineByte(c) {
		return ws, nil
	}
	comment := p.parseComment()
	nl, err := p.parseNewlineTok()
	if err != nil {
		return nil, err
	}
	pws := &ParenthesizedWhitespace{
		FirstLine: TrailingWhitespace{Whitespace: ws, Comment: comment, Newline: nl},
	}
	for {
		if p.atEOF() {
			return nil, p.errf("unexpected end of file inside brackets")
		}
		lineWS := p.parseSimpleWS()
		c := p.peekByte()
		if c == '#' || isNewlineByte(c) {
			comment := p.parseComment()
			nl, err := p.parseNewlineTok()
			if err != nil {
				return nil, err
			}
			pws.EmptyLines = append(pws.EmptyLines, EmptyLine{Whitespace: lineWS, Comment: comment, Newline: nl})
			continue
		}
		if p.atEOF() {
			return nil, p.errf("unexpected end of file inside brackets")
		}
		pws.LastLine = lineWS
		return pws, nil
	}
}

/* ===========================
   STATEMENT LAYER
   =========================== */

// parseStatements reads statements at the given indentation prefix until a
// dedent or EOF. Buffered blank/comment lines that were not followed by a
// statement at this level are returned for the caller to reattach.
func (p *parser) parseStatements(prefix string) ([]Statement, []EmptyLine, error) {
	var stmts []Statement
	var pending []EmptyLine
	for {
		if p.atEOF() {
			return stmts, pending, nil
		}
		start := p.pos
		indent := p.parseSimpleWS()
		c := p.peekByte()
		if c == '#' || isNewlineByte(c) {
			comment := p.parseComment()
			nl, err := p.parseNewlineTok()
			if err != nil {
				return nil, nil, err
			}
			pending = append(pending, EmptyLine{Whitespace: indent, Comment: comment, Newline: nl})
			continue
		}
		if p.atEOF() {
			// whitespace-only final fragment
			if indent != "" {
				pending = append(pending, EmptyLine{Whitespace: indent})
			}
			return stmts, pending, nil
		}
		if string(indent) != prefix {
			p.pos = start
			return stmts, pending, nil
		}
		stmt, carry, err := p.parseStatementTail(prefix, pending)
		if err != nil {
			return nil, nil, err
		}
		stmts = append(stmts, stmt)
		pending = carry
	}
}

// parseStatementTail parses one statement whose indentation has already
// been consumed. It returns the pending lines collected past the
// statement's own block, which belong to whatever follows.
func (p *parser) parseStatementTail(prefix string, leading []EmptyLine) (Statement, []EmptyLine, error) {
	switch p.peekIdent() {
	case "def":
		return p.parseFunctionDef(prefix, leading)
	case "for":
		return p.parseFor(prefix, leading)
	case "while":
		return p.parseWhile(prefix, leading)
	case "with":
		return p.parseWith(prefix, leading)
	case "if":
		return p.parseIf(prefix, leading, "if")
	case "class", "import", "from", "try", "raise", "del", "assert", "async":
		return nil, nil, p.errf("unsupported statement keyword %q", p.peekIdent())
	}
	line, err := p.parseSimpleLine(leading)
	if err != nil {
		return nil, nil, err
	}
	return line, nil, nil
}

func (p *parser) parseSimpleLine(leading []EmptyLine) (*SimpleStatementLine, error) {
	body, trailing, err := p.parseSmallBody()
	if err != nil {
		return nil, err
	}
	return &SimpleStatementLine{LeadingLines: leading, Body: body, TrailingWhitespace: trailing}, nil
}

// parseSmallBody parses one or more semicolon-separated small statements
// plus the line's trailing whitespace.
func (p *parser) parseSmallBody() ([]SmallStatement, TrailingWhitespace, error) {
	var body []SmallStatement
	for {
		small, err := p.parseSmallStatement()
		if err != nil {
			return nil, TrailingWhitespace{}, err
		}
		ws := p.parseSimpleWS()
		if p.peekByte() == ';' {
			p.pos++
			after := p.parseSimpleWS()
			setSmallSemicolon(small, &Semicolon{WhitespaceBefore: ws, WhitespaceAfter: after})
			body = append(body, small)
			c := p.peekByte()
			if c == '#' || isNewlineByte(c) || p.atEOF() {
				// trailing semicolon; the gap before any comment lives in
				// the semicolon's whitespace-after slot
				comment := p.parseComment()
				nl, err := p.parseNewlineTok()
				if err != nil {
					return nil, TrailingWhitespace{}, err
				}
				return body, TrailingWhitespace{Comment: comment, Newline: nl}, nil
			}
			continue
		}
		body = append(body, small)
		comment := p.parseComment()
		nl, err := p.parseNewlineTok()
		if err != nil {
			return nil, TrailingWhitespace{}, err
		}
		return body, TrailingWhitespace{Whitespace: ws, Comment: comment, Newline: nl}, nil
	}
}

func setSmallSemicolon(s SmallStatement, semi *Semicolon) {
	switch v := s.(type) {
	case *Assign:
		v.Semicolon = semi
	case *AnnAssign:
		v.Semicolon = semi
	case *Expr:
		v.Semicolon = semi
	case *Pass:
		v.Semicolon = semi
	case *Return:
		v.Semicolon = semi
	case *Global:
		v.Semicolon = semi
	case *Nonlocal:
		v.Semicolon = semi
	}
}

func (p *parser) parseSmallStatement() (SmallStatement, error) {
	switch p.peekIdent() {
	case "pass":
		p.pos += len("pass")
		return &Pass{}, nil
	case "return":
		p.pos += len("return")
		save := p.pos
		ws := p.parseSimpleWS()
		c := p.peekByte()
		if c == ';' || c == '#' || isNewlineByte(c) || p.atEOF() {
			p.pos = save
			return &Return{}, nil
		}
		value, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return &Return{WhitespaceAfterReturn: ws, Value: value}, nil
	case "global":
		p.pos += len("global")
		ws := p.parseSimpleWS()
		names, err := p.parseNameItems()
		if err != nil {
			return nil, err
		}
		return &Global{WhitespaceAfterGlobal: ws, Names: names}, nil
	case "nonlocal":
		p.pos += len("nonlocal")
		ws := p.parseSimpleWS()
		names, err := p.parseNameItems()
		if err != nil {
			return nil, err
		}
		return &Nonlocal{WhitespaceAfterNonlocal: ws, Names: names}, nil
	}
	return p.parseAssignOrExpr()
}

func (p *parser) parseNameItems() ([]NameItem, error) {
	var names []NameItem
	for {
		name, err := p.parseIdentName()
		if err != nil {
			return nil, err
		}
		save := p.pos
		ws := p.parseSimpleWS()
		if p.peekByte() == ',' {
			p.pos++
			after := p.parseSimpleWS()
			names = append(names, NameItem{Name: name, Comma: &Comma{WhitespaceBefore: ws, WhitespaceAfter: after}})
			continue
		}
		p.pos = save
		names = append(names, NameItem{Name: name})
		return names, nil
	}
}

// parseAssignOrExpr parses an expression statement, a (possibly chained)
// assignment, or an annotated assignment.
func (p *parser) parseAssignOrExpr() (SmallStatement, error) {
	first, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	save := p.pos
	ws := p.parseSimpleWS()
	switch {
	case p.peekByte() == '=' && !p.at("=="):
		var targets []AssignTarget
		expr := first
		wsBefore := ws
		for {
			p.pos++ // '='
			wsAfter := p.parseSimpleWS()
			targets = append(targets, AssignTarget{
				Target:                expr,
				WhitespaceBeforeEqual: wsBefore,
				WhitespaceAfterEqual:  wsAfter,
			})
			expr, err = p.parseExpressionList()
			if err != nil {
				return nil, err
			}
			save = p.pos
			wsBefore = p.parseSimpleWS()
			if p.peekByte() == '=' && !p.at("==") {
				continue
			}
			p.pos = save
			return &Assign{Targets: targets, Value: expr}, nil
		}
	case p.peekByte() == ':' && !p.at(":="):
		p.pos++ // ':'
		wsAfter := p.parseSimpleWS()
		annotation, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		ann := Annotation{
			WhitespaceBeforeIndicator: ws,
			WhitespaceAfterIndicator:  wsAfter,
			Annotation:                annotation,
		}
		save = p.pos
		eqBefore := p.parseSimpleWS()
		if p.peekByte() == '=' && !p.at("==") {
			p.pos++
			eqAfter := p.parseSimpleWS()
			value, err := p.parseExpressionList()
			if err != nil {
				return nil, err
			}
			return &AnnAssign{
				Target:     first,
				Annotation: ann,
				Equal:      &AssignEqual{WhitespaceBefore: eqBefore, WhitespaceAfter: eqAfter},
				Value:      value,
			}, nil
		}
		p.pos = save
		return &AnnAssign{Target: first, Annotation: ann}, nil
	}
	p.pos = save
	if len(p.src) > p.pos+1 && p.src[p.pos+1] == '=' {
		switch p.peekByte() {
		case '+', '-', '*', '/', '%', '&', '|', '^', '@':
			return nil, p.errf("augmented assignment is not supported")
		}
	}
	return &Expr{Value: first}, nil
}

/* ===========================
   COMPOUND STATEMENTS
   =========================== */

func (p *parser) parseFunctionDef(prefix string, leading []EmptyLine) (Statement, []EmptyLine, error) {
	p.pos += len("def")
	wsAfterDef := p.parseSimpleWS()
	if wsAfterDef == "" {
		return nil, nil, p.errf("expected whitespace after 'def'")
	}
	name, err := p.parseIdentName()
	if err != nil {
		return nil, nil, err
	}
	wsAfterName := p.parseSimpleWS()
	if !p.take("(") {
		return nil, nil, p.errf("expected '(' after function name")
	}
	p.parens++
	wsBeforeParams, err := p.parseWS()
	if err != nil {
		return nil, nil, err
	}
	params, err := p.parseParams(true)
	if err != nil {
		return nil, nil, err
	}
	if !p.take(")") {
		return nil, nil, p.errf("expected ')' to close parameter list")
	}
	p.parens--
	var returns *Annotation
	save := p.pos
	wsBeforeArrow := p.parseSimpleWS()
	if p.take("->") {
		wsAfterArrow := p.parseSimpleWS()
		annotation, err := p.parseExpr(1)
		if err != nil {
			return nil, nil, err
		}
		returns = &Annotation{
			WhitespaceBeforeIndicator: wsBeforeArrow,
			WhitespaceAfterIndicator:  wsAfterArrow,
			Annotation:                annotation,
		}
	} else {
		p.pos = save
	}
	wsBeforeColon := p.parseSimpleWS()
	if !p.take(":") {
		return nil, nil, p.errf("expected ':' after function signature")
	}
	body, carry, err := p.parseSuite(prefix)
	if err != nil {
		return nil, nil, err
	}
	return &FunctionDef{
		LeadingLines:           leading,
		WhitespaceAfterDef:     wsAfterDef,
		Name:                   name,
		WhitespaceAfterName:    wsAfterName,
		WhitespaceBeforeParams: wsBeforeParams,
		Params:                 params,
		Returns:                returns,
		WhitespaceBeforeColon:  wsBeforeColon,
		Body:                   body,
	}, carry, nil
}

func (p *parser) parseFor(prefix string, leading []EmptyLine) (Statement, []EmptyLine, error) {
	p.pos += len("for")
	wsAfterFor := p.parseSimpleWS()
	p.noIn = true
	target, err := p.parseExpressionList()
	p.noIn = false
	if err != nil {
		return nil, nil, err
	}
	wsBeforeIn := p.parseSimpleWS()
	if !p.takeIdent("in") {
		return nil, nil, p.errf("expected 'in' in for statement")
	}
	wsAfterIn := p.parseSimpleWS()
	iter, err := p.parseExpressionList()
	if err != nil {
		return nil, nil, err
	}
	wsBeforeColon := p.parseSimpleWS()
	if !p.take(":") {
		return nil, nil, p.errf("expected ':' after for header")
	}
	body, carry, err := p.parseSuite(prefix)
	if err != nil {
		return nil, nil, err
	}
	return &For{
		LeadingLines:          leading,
		WhitespaceAfterFor:    wsAfterFor,
		Target:                target,
		WhitespaceBeforeIn:    wsBeforeIn,
		WhitespaceAfterIn:     wsAfterIn,
		Iter:                  iter,
		WhitespaceBeforeColon: wsBeforeColon,
		Body:                  body,
	}, carry, nil
}

func (p *parser) parseWhile(prefix string, leading []EmptyLine) (Statement, []EmptyLine, error) {
	p.pos += len("while")
	wsAfterWhile := p.parseSimpleWS()
	test, err := p.parseExpressionList()
	if err != nil {
		return nil, nil, err
	}
	wsBeforeColon := p.parseSimpleWS()
	if !p.take(":") {
		return nil, nil, p.errf("expected ':' after while header")
	}
	body, carry, err := p.parseSuite(prefix)
	if err != nil {
		return nil, nil, err
	}
	return &While{
		LeadingLines:          leading,
		WhitespaceAfterWhile:  wsAfterWhile,
		Test:                  test,
		WhitespaceBeforeColon: wsBeforeColon,
		Body:                  body,
	}, carry, nil
}

func (p *parser) parseWith(prefix string, leading []EmptyLine) (Statement, []EmptyLine, error) {
	p.pos += len("with")
	wsAfterWith := p.parseSimpleWS()
	var items []WithItem
	for {
		item, err := p.parseExpr(1)
		if err != nil {
			return nil, nil, err
		}
		var asname *AsName
		save := p.pos
		wsBeforeAs := p.parseSimpleWS()
		if p.takeIdent("as") {
			wsAfterAs := p.parseSimpleWS()
			target, err := p.parseAtomTrailer()
			if err != nil {
				return nil, nil, err
			}
			asname = &AsName{WhitespaceBeforeAs: wsBeforeAs, WhitespaceAfterAs: wsAfterAs, Name: target}
		} else {
			p.pos = save
		}
		save = p.pos
		wsBeforeComma := p.parseSimpleWS()
		if p.peekByte() == ',' {
			p.pos++
			wsAfterComma := p.parseSimpleWS()
			items = append(items, WithItem{
				Item:   item,
				AsName: asname,
				Comma:  &Comma{WhitespaceBefore: wsBeforeComma, WhitespaceAfter: wsAfterComma},
			})
			continue
		}
		p.pos = save
		items = append(items, WithItem{Item: item, AsName: asname})
		break
	}
	wsBeforeColon := p.parseSimpleWS()
	if !p.take(":") {
		return nil, nil, p.errf("expected ':' after with header")
	}
	body, carry, err := p.parseSuite(prefix)
	if err != nil {
		return nil, nil, err
	}
	return &With{
		LeadingLines:          leading,
		WhitespaceAfterWith:   wsAfterWith,
		Items:                 items,
		WhitespaceBeforeColon: wsBeforeColon,
		Body:                  body,
	}, carry, nil
}

func (p *parser) parseIf(prefix string, leading []EmptyLine, keyword string) (Statement, []EmptyLine, error) {
	p.pos += len(keyword)
	wsBeforeTest := p.parseSimpleWS()
	test, err := p.parseExpressionList()
	if err != nil {
		return nil, nil, err
	}
	wsAfterTest := p.parseSimpleWS()
	if !p.take(":") {
		return nil, nil, p.errf("expected ':' after %s condition", keyword)
	}
	body, carry, err := p.parseSuite(prefix)
	if err != nil {
		return nil, nil, err
	}
	node := &If{
		LeadingLines:         leading,
		WhitespaceBeforeTest: wsBeforeTest,
		Test:                 test,
		WhitespaceAfterTest:  wsAfterTest,
		Body:                 body,
	}
	// an elif/else clause at the same indentation belongs to this if
	save := p.pos
	indent := p.parseSimpleWS()
	if string(indent) == prefix {
		switch p.peekIdent() {
		case "elif":
			clause, carry2, err := p.parseIf(prefix, carry, "elif")
			if err != nil {
				return nil, nil, err
			}
			node.Orelse = clause.(*If)
			return node, carry2, nil
		case "else":
			p.pos += len("else")
			wsBeforeColon := p.parseSimpleWS()
			if !p.take(":") {
				return nil, nil, p.errf("expected ':' after 'else'")
			}
			elseBody, carry2, err := p.parseSuite(prefix)
			if err != nil {
				return nil, nil, err
			}
			node.Orelse = &Else{LeadingLines: carry, WhitespaceBeforeColon: wsBeforeColon, Body: elseBody}
			return node, carry2, nil
		}
	}
	p.pos = save
	return node, carry, nil
}

// parseSuite parses what follows a compound statement's colon: either a
// same-line suite or an indented block. It also returns the blank/comment
// lines read past the end of the block, which belong to the caller.
func (p *parser) parseSuite(prefix string) (Suite, []EmptyLine, error) {
	save := p.pos
	ws := p.parseSimpleWS()
	c := p.peekByte()
	if c != '#' && !isNewlineByte(c) && !p.atEOF() {
		// body on the header line itself
		body, trailing, err := p.parseSmallBody()
		if err != nil {
			return nil, nil, err
		}
		return &SimpleStatementSuite{LeadingWhitespace: ws, Body: body, TrailingWhitespace: trailing}, nil, nil
	}
	p.pos = save
	header, err := p.parseTrailing()
	if err != nil {
		return nil, nil, err
	}
	// collect leading lines, then the first body statement sets the
	// block's indentation
	var pending []EmptyLine
	for {
		if p.atEOF() {
			return nil, nil, p.errf("expected an indented block")
		}
		indent := p.parseSimpleWS()
		c := p.peekByte()
		if c == '#' || isNewlineByte(c) {
			comment := p.parseComment()
			nl, err := p.parseNewlineTok()
			if err != nil {
				return nil, nil, err
			}
			pending = append(pending, EmptyLine{Whitespace: indent, Comment: comment, Newline: nl})
			continue
		}
		full := string(indent)
		if len(full) <= len(prefix) || !strings.HasPrefix(full, prefix) {
			return nil, nil, p.errf("expected an indented block")
		}
		first, carry, err := p.parseStatementTail(full, pending)
		if err != nil {
			return nil, nil, err
		}
		rest, carry2, err := p.parseStatementsWithCarry(full, carry)
		if err != nil {
			return nil, nil, err
		}
		block := &IndentedBlock{
			Header: header,
			Indent: full[len(prefix):],
			Body:   append([]Statement{first}, rest...),
		}
		return block, carry2, nil
	}
}

// parseStatementsWithCarry continues a block whose first statement already
// produced carried-over pending lines.
func (p *parser) parseStatementsWithCarry(prefix string, carry []EmptyLine) ([]Statement, []EmptyLine, error) {
	stmts, pending, err := p.parseStatements(prefix)
	if err != nil {
		return nil, nil, err
	}
	if len(stmts) > 0 {
		stmts[0] = withStmtLeadingLines(stmts[0], append(carry, stmtLeadingLines(stmts[0])...))
		return stmts, pending, nil
	}
	return stmts, append(carry, pending...), nil
}

// stmtLeadingLines and withStmtLeadingLines give uniform access to the
// leading-lines slot every line-level statement carries.
func stmtLeadingLines(s Statement) []EmptyLine {
	switch v := s.(type) {
	case *SimpleStatementLine:
		return v.LeadingLines
	case *FunctionDef:
		return v.LeadingLines
	case *For:
		return v.LeadingLines
	case *While:
		return v.LeadingLines
	case *With:
		return v.LeadingLines
	case *If:
		return v.LeadingLines
	default:
		return nil
	}
}

func withStmtLeadingLines(s Statement, lines []EmptyLine) Statement {
	switch v := s.(type) {
	case *SimpleStatementLine:
		out := *v
		out.LeadingLines = lines
		return &out
	case *FunctionDef:
		out := *v
		out.LeadingLines = lines
		return &out
	case *For:
		out := *v
		out.LeadingLines = lines
		return &out
	case *While:
		out := *v
		out.LeadingLines = lines
		return &out
	case *With:
		out := *v
		out.LeadingLines = lines
		return &out
	case *If:
		out := *v
		out.LeadingLines = lines
		return &out
	default:
		return s
	}
}

/* ===========================
   PARAMETERS
   =========================== */

// parseParams parses a def parameter list (annotations and multi-line
// whitespace allowed) or a lambda parameter list (neither allowed). The
// caller consumes the terminating ')' or ':'.
func (p *parser) parseParams(def bool) (Parameters, error) {
	var out Parameters
	seenDefault := false
	kwonly := false
	for {
		c := p.peekByte()
		if def && c == ')' {
			return out, nil
		}
		if !def && (c == ':' || p.atEOF()) {
			return out, nil
		}
		star := ""
		if p.take("**") {
			star = "**"
		} else if p.take("*") {
			star = "*"
		}
		var wsAfterStar Whitespace
		var err error
		if star != "" {
			wsAfterStar, err = p.parseWS()
			if err != nil {
				return out, err
			}
		}
		if star == "*" && p.peekByte() == ',' {
			// bare keyword-only separator
			if out.StarArg != nil {
				return out, p.errf("duplicate '*' in parameter list")
			}
			p.pos++
			wsAfterComma, err := p.parseWS()
			if err != nil {
				return out, err
			}
			before := wsAfterStar
			if before == nil {
				before = SimpleWhitespace("")
			}
			out.StarArg = &ParamStar{Comma: &Comma{WhitespaceBefore: before, WhitespaceAfter: wsAfterComma}}
			kwonly = true
			continue
		}
		param := &Param{Star: star, WhitespaceAfterStar: wsAfterStar}
		param.Name, err = p.parseIdentName()
		if err != nil {
			return out, err
		}
		save := p.pos
		ws, err := p.parseWS()
		if err != nil {
			return out, err
		}
		if def && p.peekByte() == ':' && !p.at(":=") {
			p.pos++
			wsAfter, err := p.parseWS()
			if err != nil {
				return out, err
			}
			annotation, err := p.parseExpr(1)
			if err != nil {
				return out, err
			}
			param.Annotation = &Annotation{
				WhitespaceBeforeIndicator: ws,
				WhitespaceAfterIndicator:  wsAfter,
				Annotation:                annotation,
			}
			save = p.pos
			ws, err = p.parseWS()
			if err != nil {
				return out, err
			}
		}
		if p.peekByte() == '=' && !p.at("==") {
			p.pos++
			wsAfter, err := p.parseWS()
			if err != nil {
				return out, err
			}
			param.Equal = &AssignEqual{WhitespaceBefore: ws, WhitespaceAfter: wsAfter}
			param.Default, err = p.parseExpr(1)
			if err != nil {
				return out, err
			}
			save = p.pos
		} else {
			p.pos = save
		}
		wsAfterParam, err := p.parseWS()
		if err != nil {
			return out, err
		}
		param.WhitespaceAfter = wsAfterParam
		if p.peekByte() == ',' {
			p.pos++
			wsAfterComma, err := p.parseWS()
			if err != nil {
				return out, err
			}
			param.Comma = &Comma{WhitespaceAfter: wsAfterComma}
		}
		switch {
		case star == "**":
			if out.StarKwarg != nil {
				return out, p.errf("duplicate '**' parameter")
			}
			out.StarKwarg = param
		case star == "*":
			if out.StarArg != nil {
				return out, p.errf("duplicate '*' in parameter list")
			}
			out.StarArg = param
			kwonly = true
		case kwonly:
			out.KwonlyParams = append(out.KwonlyParams, param)
		case param.Default != nil:
			seenDefault = true
			out.DefaultParams = append(out.DefaultParams, param)
		default:
			if seenDefault {
				return out, p.errf("parameter without a default follows one with a default")
			}
			out.Params = append(out.Params, param)
		}
		if param.Comma == nil {
			c := p.peekByte()
			if def && c != ')' {
				return out, p.errf("expected ',' or ')' in parameter list")
			}
			if !def && c != ':' {
				return out, p.errf("expected ',' or ':' in lambda parameters")
			}
			return out, nil
		}
	}
}

/* ===========================
   EXPRESSIONS
   =========================== */

// parseExpressionList parses a comma-level expression: either a single
// expression or a bare (unparenthesized) tuple.
func (p *parser) parseExpressionList() (Expression, error) {
	first, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	save := p.pos
	ws, err := p.parseWS()
	if err != nil {
		return nil, err
	}
	if p.peekByte() != ',' {
		p.pos = save
		return first, nil
	}
	tuple := &Tuple{}
	expr := first
	for {
		p.pos++ // ','
		wsAfter, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		comma := &Comma{WhitespaceBefore: ws, WhitespaceAfter: wsAfter}
		tuple.Elements = append(tuple.Elements, Element{Value: expr, Comma: comma})
		if !p.startsExpression() {
			// trailing comma
			return tuple, nil
		}
		expr, err = p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		save = p.pos
		ws, err = p.parseWS()
		if err != nil {
			return nil, err
		}
		if p.peekByte() != ',' {
			p.pos = save
			tuple.Elements = append(tuple.Elements, Element{Value: expr})
			return tuple, nil
		}
	}
}

// startsExpression reports whether the cursor could begin an expression;
// used to distinguish a trailing comma from a further tuple element. The
// cursor must already be positioned past any whitespace.
func (p *parser) startsExpression() bool {
	c := p.peekByte()
	switch {
	case c == 0:
		return false
	case isIdentStart(c):
		word := p.peekIdent()
		if pythonKeywords[word] {
			switch word {
			case "True", "False", "None", "lambda", "not":
				return true
			}
			return false
		}
		return true
	case isDigitByte(c), c == '(', c == '\'', c == '"', c == '-', c == '+', c == '~':
		return true
	case c == '.':
		return p.at("...") || isDigitByte(byteAt(p.src, p.pos+1))
	default:
		return false
	}
}

// binaryPrec follows the language's binding order loosely; grouping does
// not affect rendering, only tree shape.
func binaryPrec(tok string) int {
	switch tok {
	case "or":
		return 2
	case "and":
		return 3
	case "in", "not in", "is", "is not", "==", "!=", "<", "<=", ">", ">=":
		return 5
	case "|":
		return 6
	case "^":
		return 7
	case "&":
		return 8
	case "<<", ">>":
		return 9
	case "+", "-":
		return 10
	case "*", "/", "//", "%", "@":
		return 11
	case "**":
		return 13
	default:
		return 0
	}
}

// peekBinaryOp matches the longest operator token at the cursor without
// consuming it. Multi-word operators require single-space separators.
func (p *parser) peekBinaryOp() string {
	if word := p.peekIdent(); word != "" {
		switch word {
		case "and", "or":
			return word
		case "in":
			if p.noIn {
				return ""
			}
			return "in"
		case "is":
			if p.at("is not") && !isIdentByte(byteAt(p.src, p.pos+6)) {
				return "is not"
			}
			return "is"
		case "not":
			if p.noIn {
				return ""
			}
			if p.at("not in") && !isIdentByte(byteAt(p.src, p.pos+6)) {
				return "not in"
			}
			return ""
		}
		return ""
	}
	for _, tok := range []string{"**", "//", "<<", ">>", "<=", ">=", "==", "!="} {
		if p.at(tok) {
			return tok
		}
	}
	switch c := p.peekByte(); c {
	case '+', '-', '*', '/', '%', '@', '&', '|', '^':
		if byteAt(p.src, p.pos+1) == '=' {
			return "" // augmented assignment, not an operator
		}
		return string(c)
	case '<', '>':
		return string(c)
	}
	return ""
}

func byteAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func (p *parser) parseExpr(minPrec int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		wsBefore, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		tok := p.peekBinaryOp()
		prec := binaryPrec(tok)
		if tok == "" || prec < minPrec {
			p.pos = save
			return left, nil
		}
		p.pos += len(tok)
		wsAfter, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		next := prec + 1
		if tok == "**" {
			next = prec // right associative
		}
		right, err := p.parseExpr(next)
		if err != nil {
			return nil, err
		}
		left = &BinaryOperation{
			Left:     left,
			Operator: BinaryOp{WhitespaceBefore: wsBefore, WhitespaceAfter: wsAfter, Token: tok},
			Right:    right,
		}
	}
}

func (p *parser) parseUnary() (Expression, error) {
	c := p.peekByte()
	if c == '-' || c == '+' || c == '~' {
		if byteAt(p.src, p.pos+1) == '=' {
			return nil, p.errf("unexpected %q", string(c)+"=")
		}
		p.pos++
		ws, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOperation{Operator: UnaryOp{Token: string(c), WhitespaceAfter: ws}, Expression: operand}, nil
	}
	if p.peekIdent() == "not" && !p.at("not in") {
		p.pos += len("not")
		ws, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		operand, err := p.parseExpr(4)
		if err != nil {
			return nil, err
		}
		return &UnaryOperation{Operator: UnaryOp{Token: "not", WhitespaceAfter: ws}, Expression: operand}, nil
	}
	return p.parseAtomTrailer()
}

func (p *parser) parseAtomTrailer() (Expression, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		ws, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		switch {
		case p.peekByte() == '.' && !p.at("..."):
			p.pos++
			wsAfterDot, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			attr, err := p.parseIdentName()
			if err != nil {
				return nil, err
			}
			expr = &Attribute{
				Value: expr,
				Dot:   Dot{WhitespaceBefore: ws, WhitespaceAfter: wsAfterDot},
				Attr:  attr,
			}
		case p.peekByte() == '(':
			p.pos++
			p.parens++
			wsBeforeArgs, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if !p.take(")") {
				return nil, p.errf("expected ')' to close call")
			}
			p.parens--
			expr = &Call{
				Func:                 expr,
				WhitespaceAfterFunc:  ws,
				WhitespaceBeforeArgs: wsBeforeArgs,
				Args:                 args,
			}
		case p.peekByte() == '[':
			p.pos++
			p.parens++
			wsAfterBracket, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			index, err := p.parseExpressionList()
			if err != nil {
				return nil, err
			}
			wsBeforeClose, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			if !p.take("]") {
				return nil, p.errf("expected ']' to close subscript")
			}
			p.parens--
			expr = &Subscript{
				Value:                expr,
				WhitespaceAfterValue: ws,
				Lbracket:             LeftSquareBracket{WhitespaceAfter: wsAfterBracket},
				Index:                index,
				Rbracket:             RightSquareBracket{WhitespaceBefore: wsBeforeClose},
			}
		default:
			p.pos = save
			return expr, nil
		}
	}
}

func (p *parser) parseArgs() ([]Arg, error) {
	var args []Arg
	for {
		if p.peekByte() == ')' {
			return args, nil
		}
		arg := Arg{}
		if p.take("**") {
			arg.Star = "**"
		} else if p.take("*") {
			arg.Star = "*"
		}
		if arg.Star != "" {
			ws, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			arg.WhitespaceAfterStar = ws
		}
		value, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if name, ok := value.(*Name); ok && arg.Star == "" && len(name.Lpar) == 0 {
			save := p.pos
			ws, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			if p.peekByte() == '=' && !p.at("==") {
				p.pos++
				wsAfter, err := p.parseWS()
				if err != nil {
					return nil, err
				}
				arg.Keyword = name
				arg.Equal = &AssignEqual{WhitespaceBefore: ws, WhitespaceAfter: wsAfter}
				value, err = p.parseExpr(1)
				if err != nil {
					return nil, err
				}
			} else {
				p.pos = save
			}
		}
		arg.Value = value
		ws, err := p.parseWS()
		if err != nil {
			return nil, err
		}
		arg.WhitespaceAfterArg = ws
		if p.peekByte() == ',' {
			p.pos++
			wsAfterComma, err := p.parseWS()
			if err != nil {
				return nil, err
			}
			arg.Comma = &Comma{WhitespaceAfter: wsAfterComma}
			args = append(args, arg)
			continue
		}
		args = append(args, arg)
		if p.peekByte() != ')' {
			return nil, p.errf("expected ',' or ')' in call arguments")
		}
		return args, nil
	}
}

func (p *parser) parseAtom() (Expression, error) {
	c := p.peekByte()
	switch {
	case c == '(':
		return p.parseParenGroup()
	case p.at("..."):
		p.pos += 3
		return &Ellipsis{}, nil
	case isDigitByte(c) || (c == '.' && isDigitByte(byteAt(p.src, p.pos+1))):
		return p.parseNumber()
	case c == '\'' || c == '"':
		return p.parseString("")
	case isIdentStart(c):
		word := p.peekIdent()
		switch {
		case word == "lambda":
			return p.parseLambda()
		case isStringPrefix(word) && isQuote(byteAt(p.src, p.pos+len(word))):
			p.pos += len(word)
			return p.parseString(word)
		case pythonKeywords[word] && word != "True" && word != "False" && word != "None":
			return nil, p.errf("unexpected keyword %q", word)
		}
		return p.parseIdentName()
	}
	if p.atEOF() {
		return nil, p.errf("unexpected end of input, expected an expression")
	}
	return nil, p.errf("unexpected character %q", string(c))
}

func isQuote(c byte) bool { return c == '\'' || c == '"' }

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "b", "u", "f", "rb", "br", "rf", "fr":
		return true
	}
	return false
}

// parseParenGroup handles '(' … ')': a parenthesized expression, a
// parenthesized tuple, or the empty tuple. The parens attach to the inner
// expression's own lpar/rpar sequences.
func (p *parser) parseParenGroup() (Expression, error) {
	p.pos++ // '('
	p.parens++
	wsAfterOpen, err := p.parseWS()
	if err != nil {
		return nil, err
	}
	lpar := LeftParen{WhitespaceAfter: wsAfterOpen}
	if p.peekByte() == ')' {
		p.pos++
		p.parens--
		return &Tuple{Lpar: []LeftParen{lpar}, Rpar: []RightParen{{}}}, nil
	}
	inner, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	wsBeforeClose, err := p.parseWS()
	if err != nil {
		return nil, err
	}
	if !p.take(")") {
		return nil, p.errf("expected ')'")
	}
	p.parens--
	rpar := RightParen{WhitespaceBefore: wsBeforeClose}
	return withParens(inner, lpar, rpar), nil
}

// withParens wraps an expression in one more pair of parentheses,
// outermost first.
func withParens(e Expression, lp LeftParen, rp RightParen) Expression {
	push := func(lpar []LeftParen, rpar []RightParen) ([]LeftParen, []RightParen) {
		return append([]LeftParen{lp}, lpar...), append(append([]RightParen{}, rpar...), rp)
	}
	switch v := e.(type) {
	case *Name:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Integer:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Float:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *SimpleString:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Ellipsis:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Tuple:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Attribute:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Subscript:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Call:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *BinaryOperation:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *UnaryOperation:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	case *Lambda:
		out := *v
		out.Lpar, out.Rpar = push(v.Lpar, v.Rpar)
		return &out
	default:
		return e
	}
}

func (p *parser) parseNumber() (Expression, error) {
	start := p.pos
	isFloat := false
	if p.at("0x") || p.at("0X") || p.at("0o") || p.at("0O") || p.at("0b") || p.at("0B") {
		p.pos += 2
		for !p.atEOF() && (isIdentByte(p.src[p.pos]) || p.src[p.pos] == '_') {
			p.pos++
		}
		return &Integer{Value: p.src[start:p.pos]}, nil
	}
	consumeDigits := func() {
		for !p.atEOF() && (isDigitByte(p.src[p.pos]) || p.src[p.pos] == '_') {
			p.pos++
		}
	}
	consumeDigits()
	if p.peekByte() == '.' && !p.at("...") {
		isFloat = true
		p.pos++
		consumeDigits()
	}
	if c := p.peekByte(); c == 'e' || c == 'E' {
		next := byteAt(p.src, p.pos+1)
		if isDigitByte(next) || ((next == '+' || next == '-') && isDigitByte(byteAt(p.src, p.pos+2))) {
			isFloat = true
			p.pos++
			if c := p.peekByte(); c == '+' || c == '-' {
				p.pos++
			}
			consumeDigits()
		}
	}
	value := p.src[start:p.pos]
	if value == "" {
		return nil, p.errf("expected a number")
	}
	if isFloat {
		return &Float{Value: value}, nil
	}
	return &Integer{Value: value}, nil
}

func (p *parser) parseString(prefix string) (Expression, error) {
	start := p.pos - len(prefix)
	quote := string(p.peekByte())
	triple := quote + quote + quote
	if p.take(triple) {
		end := strings.Index(p.src[p.pos:], triple)
		if end < 0 {
			return nil, p.errf("unterminated triple-quoted string")
		}
		p.pos += end + 3
		return &SimpleString{Value: p.src[start:p.pos]}, nil
	}
	p.pos++ // opening quote
	for {
		if p.atEOF() || isNewlineByte(p.peekByte()) {
			return nil, p.errf("unterminated string literal")
		}
		c := p.src[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
		if string(c) == quote {
			return &SimpleString{Value: p.src[start:p.pos]}, nil
		}
	}
}

func (p *parser) parseLambda() (Expression, error) {
	p.pos += len("lambda")
	ws, err := p.parseWS()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams(false)
	if err != nil {
		return nil, err
	}
	if !p.take(":") {
		return nil, p.errf("expected ':' in lambda")
	}
	wsAfterColon, err := p.parseWS()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	return &Lambda{
		WhitespaceAfterLambda: ws,
		Params:                params,
		Colon:                 Colon{WhitespaceAfter: wsAfterColon},
		Body:                  body,
	}, nil
}
