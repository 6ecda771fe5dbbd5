// stmt.go — statement node variants, suites and the module root.
//
// Statements come in two layers: small statements (assignments,
// declarations, expression statements …) that live inside a simple
// statement line, and line-level statements (simple lines and compound
// statements). A compound statement owns its header formatting and a Suite
// holding its body; the IndentedBlock suite records the indentation delta
// its lines add over the enclosing block.
package pycst

/* ===========================
   SMALL STATEMENTS
   =========================== */

// AssignTarget is one "target =" unit of an assignment; a multi-target
// assignment like "x = y = 1" carries one AssignTarget per '='.
type AssignTarget struct {
	Target                Expression
	WhitespaceBeforeEqual Whitespace // default " "
	WhitespaceAfterEqual  Whitespace // default " "
}

// Assign is an unannotated assignment statement.
type Assign struct {
	Targets   []AssignTarget
	Value     Expression
	Semicolon *Semicolon
}

func (*Assign) smallStatementNode() {}

func (a *Assign) validate() error {
	if len(a.Targets) == 0 {
		return invalidf("Assign", "An Assign statement must have at least one AssignTarget")
	}
	for i := range a.Targets {
		if a.Targets[i].Target == nil {
			return invalidf("Assign", "AssignTarget must have a target")
		}
	}
	if a.Value == nil {
		return invalidf("Assign", "An Assign statement must have a value")
	}
	return nil
}

// AnnAssign is an annotated assignment or bare type declaration:
// "x: T = v" or "x: T". An explicit AssignEqual requires a value; a value
// with a nil AssignEqual renders the conventional " = ".
type AnnAssign struct {
	Target     Expression
	Annotation Annotation
	Equal      *AssignEqual
	Value      Expression
	Semicolon  *Semicolon
}

func (*AnnAssign) smallStatementNode() {}

func (a *AnnAssign) validate() error {
	if a.Target == nil {
		return invalidf("AnnAssign", "An AnnAssign statement must have a target")
	}
	if err := a.Annotation.validate(); err != nil {
		return err
	}
	if a.Equal != nil && a.Value == nil {
		return invalidf("AnnAssign", "Must have a value when specifying an AssignEqual.")
	}
	return nil
}

// Expr is a bare expression in statement position.
type Expr struct {
	Value     Expression
	Semicolon *Semicolon
}

func (*Expr) smallStatementNode() {}

func (e *Expr) validate() error {
	if e.Value == nil {
		return invalidf("Expr", "An Expr statement must have a value")
	}
	return nil
}

// Pass is the 'pass' statement.
type Pass struct {
	Semicolon *Semicolon
}

func (*Pass) smallStatementNode() {}

func (p *Pass) validate() error { return nil }

// Return is the 'return' statement with an optional value.
type Return struct {
	WhitespaceAfterReturn Whitespace // default " " when a value follows
	Value                 Expression
	Semicolon             *Semicolon
}

func (*Return) smallStatementNode() {}

func (r *Return) validate() error {
	if r.Value != nil {
		if ws, ok := r.WhitespaceAfterReturn.(SimpleWhitespace); ok && ws == "" && !parenthesized(r.Value) {
			return invalidf("Return", "Must have at least one space after 'return' keyword")
		}
	}
	return nil
}

// NameItem is one identifier of a global/nonlocal declaration. The names
// may not be parenthesized.
type NameItem struct {
	Name  *Name
	Comma *Comma
}

func validateNameItems(kind string, names []NameItem) error {
	if len(names) == 0 {
		return invalidf(kind, "A %s statement must have at least one NameItem", kind)
	}
	for i := range names {
		item := &names[i]
		if item.Name == nil {
			return invalidf(kind, "NameItem must have a name")
		}
		if len(item.Name.Lpar) > 0 || len(item.Name.Rpar) > 0 {
			return invalidf(kind, "Cannot have parens around names in NameItem")
		}
		if i == len(names)-1 && item.Comma != nil {
			return invalidf(kind, "The last NameItem in a %s cannot have a trailing comma", kind)
		}
	}
	return nil
}

// Global is the 'global name, …' declaration.
type Global struct {
	WhitespaceAfterGlobal Whitespace // default " ", at least one space
	Names                 []NameItem
	Semicolon             *Semicolon
}

func (*Global) smallStatementNode() {}

func (g *Global) validate() error {
	if ws, ok := g.WhitespaceAfterGlobal.(SimpleWhitespace); ok && ws == "" {
		return invalidf("Global", "Must have at least one space after 'global' keyword")
	}
	return validateNameItems("Global", g.Names)
}

// Nonlocal is the 'nonlocal name, …' declaration.
type Nonlocal struct {
	WhitespaceAfterNonlocal Whitespace // default " ", at least one space
	Names                   []NameItem
	Semicolon               *Semicolon
}

func (*Nonlocal) smallStatementNode() {}

func (n *Nonlocal) validate() error {
	if ws, ok := n.WhitespaceAfterNonlocal.(SimpleWhitespace); ok && ws == "" {
		return invalidf("Nonlocal", "Must have at least one space after 'nonlocal' keyword")
	}
	return validateNameItems("Nonlocal", n.Names)
}

/* ===========================
   SUITES
   =========================== */

// IndentedBlock is the usual compound-statement body: a header line ending
// after the colon, then one or more statements indented by Indent relative
// to the surrounding block. An empty Indent renders the module default.
type IndentedBlock struct {
	Header TrailingWhitespace
	Indent string
	Body   []Statement
	Footer []EmptyLine
}

func (*IndentedBlock) suiteNode() {}

func (b *IndentedBlock) validate() error {
	if len(b.Body) == 0 {
		return invalidf("IndentedBlock", "An IndentedBlock must have at least one statement")
	}
	for _, r := range b.Indent {
		if r != ' ' && r != '\t' {
			return invalidf("IndentedBlock", "An indent must be composed of only whitespace characters")
		}
	}
	return nil
}

// SimpleStatementSuite is a body on the header line itself: "if x: pass".
type SimpleStatementSuite struct {
	LeadingWhitespace  Whitespace // default " "
	Body               []SmallStatement
	TrailingWhitespace TrailingWhitespace
}

func (*SimpleStatementSuite) suiteNode() {}

func (s *SimpleStatementSuite) validate() error {
	if len(s.Body) == 0 {
		return invalidf("SimpleStatementSuite", "A SimpleStatementSuite must have at least one statement")
	}
	return nil
}

/* ===========================
   LINE-LEVEL STATEMENTS
   =========================== */

// SimpleStatementLine is a logical line of one or more small statements
// separated by semicolons, with its leading blank/comment lines and its
// trailing whitespace (where an inline comment lives).
type SimpleStatementLine struct {
	LeadingLines       []EmptyLine
	Body               []SmallStatement
	TrailingWhitespace TrailingWhitespace
}

func (*SimpleStatementLine) statementNode() {}

func (s *SimpleStatementLine) validate() error {
	if len(s.Body) == 0 {
		return invalidf("SimpleStatementLine", "A SimpleStatementLine must have at least one statement")
	}
	return nil
}

// FunctionDef is a 'def name(params) -> returns:' statement.
type FunctionDef struct {
	LeadingLines           []EmptyLine
	WhitespaceAfterDef     Whitespace // default " ", at least one space
	Name                   *Name
	WhitespaceAfterName    Whitespace
	WhitespaceBeforeParams Whitespace // after the '('
	Params                 Parameters
	Returns                *Annotation // rendered with '->'
	WhitespaceBeforeColon  Whitespace
	Body                   Suite
}

func (*FunctionDef) statementNode() {}

func (f *FunctionDef) validate() error {
	if f.Name == nil {
		return invalidf("FunctionDef", "A FunctionDef must have a name")
	}
	if ws, ok := f.WhitespaceAfterDef.(SimpleWhitespace); ok && ws == "" {
		return invalidf("FunctionDef", "Must have at least one space after 'def' keyword")
	}
	if err := f.Params.validate(); err != nil {
		return err
	}
	if f.Body == nil {
		return invalidf("FunctionDef", "A FunctionDef must have a body")
	}
	return nil
}

// For is a 'for target in iter:' loop. Loop targets cannot carry inline
// annotations, which is why type comments were the legacy escape hatch.
type For struct {
	LeadingLines          []EmptyLine
	WhitespaceAfterFor    Whitespace // default " "
	Target                Expression
	WhitespaceBeforeIn    Whitespace // default " "
	WhitespaceAfterIn     Whitespace // default " "
	Iter                  Expression
	WhitespaceBeforeColon Whitespace
	Body                  Suite
}

func (*For) statementNode() {}

func (f *For) validate() error {
	if f.Target == nil || f.Iter == nil {
		return invalidf("For", "A For statement must have a target and an iterable")
	}
	if ws, ok := f.WhitespaceAfterFor.(SimpleWhitespace); ok && ws == "" && !parenthesized(f.Target) {
		return invalidf("For", "Must have at least one space after 'for' keyword")
	}
	if ws, ok := f.WhitespaceBeforeIn.(SimpleWhitespace); ok && ws == "" && !parenthesized(f.Target) {
		return invalidf("For", "Must have at least one space before 'in' keyword")
	}
	if ws, ok := f.WhitespaceAfterIn.(SimpleWhitespace); ok && ws == "" && !parenthesized(f.Iter) {
		return invalidf("For", "Must have at least one space after 'in' keyword")
	}
	if f.Body == nil {
		return invalidf("For", "A For statement must have a body")
	}
	return nil
}

// While is a 'while test:' loop.
type While struct {
	LeadingLines          []EmptyLine
	WhitespaceAfterWhile  Whitespace // default " "
	Test                  Expression
	WhitespaceBeforeColon Whitespace
	Body                  Suite
}

func (*While) statementNode() {}

func (w *While) validate() error {
	if w.Test == nil {
		return invalidf("While", "A While statement must have a test")
	}
	if ws, ok := w.WhitespaceAfterWhile.(SimpleWhitespace); ok && ws == "" && !parenthesized(w.Test) {
		return invalidf("While", "Must have at least one space after 'while' keyword")
	}
	if w.Body == nil {
		return invalidf("While", "A While statement must have a body")
	}
	return nil
}

// AsName is the 'as target' clause of a with item.
type AsName struct {
	WhitespaceBeforeAs Whitespace // default " "
	WhitespaceAfterAs  Whitespace // default " "
	Name               Expression
}

// WithItem is one context manager of a with statement, with its optional
// binding and separating comma.
type WithItem struct {
	Item  Expression
	AsName *AsName
	Comma *Comma
}

// With is a 'with item, …:' statement.
type With struct {
	LeadingLines          []EmptyLine
	WhitespaceAfterWith   Whitespace // default " "
	Items                 []WithItem
	WhitespaceBeforeColon Whitespace
	Body                  Suite
}

func (*With) statementNode() {}

func (w *With) validate() error {
	if len(w.Items) == 0 {
		return invalidf("With", "A With statement must have at least one WithItem")
	}
	for i := range w.Items {
		item := &w.Items[i]
		if item.Item == nil {
			return invalidf("With", "WithItem must have an item")
		}
		if item.AsName != nil && item.AsName.Name == nil {
			return invalidf("With", "AsName must have a name")
		}
		if i == len(w.Items)-1 && item.Comma != nil {
			return invalidf("With", "The last WithItem in a With cannot have a trailing comma")
		}
	}
	if ws, ok := w.WhitespaceAfterWith.(SimpleWhitespace); ok && ws == "" && !parenthesized(w.Items[0].Item) {
		return invalidf("With", "Must have at least one space after 'with' keyword")
	}
	if w.Body == nil {
		return invalidf("With", "A With statement must have a body")
	}
	return nil
}

// OrElse is what can follow an if body: an elif chain (*If) or an *Else.
type OrElse interface {
	orElseNode()
}

// If is an 'if test:' statement; a nested If in the Orelse slot renders as
// 'elif'.
type If struct {
	LeadingLines        []EmptyLine
	WhitespaceBeforeTest Whitespace // default " "
	Test                Expression
	WhitespaceAfterTest Whitespace // precedes the colon
	Body                Suite
	Orelse              OrElse
}

func (*If) statementNode() {}
func (*If) orElseNode()    {}

func (i *If) validate() error {
	if i.Test == nil {
		return invalidf("If", "An If statement must have a test")
	}
	if ws, ok := i.WhitespaceBeforeTest.(SimpleWhitespace); ok && ws == "" && !parenthesized(i.Test) {
		return invalidf("If", "Must have at least one space after 'if' keyword")
	}
	if i.Body == nil {
		return invalidf("If", "An If statement must have a body")
	}
	return nil
}

// Else is the final 'else:' clause of an if chain.
type Else struct {
	LeadingLines          []EmptyLine
	WhitespaceBeforeColon Whitespace
	Body                  Suite
}

func (*Else) orElseNode() {}

func (e *Else) validate() error {
	if e.Body == nil {
		return invalidf("Else", "An Else clause must have a body")
	}
	return nil
}

/* ===========================
   MODULE
   =========================== */

// Module is the root of a parsed file: leading header lines, the statement
// body, trailing footer lines, and the file-wide formatting conventions
// used as defaults when rendering synthesized nodes.
type Module struct {
	Header []EmptyLine
	Body   []Statement
	Footer []EmptyLine

	DefaultIndent      string // "" means four spaces
	DefaultNewline     string // "" means "\n"
	HasTrailingNewline bool   // parser sets this; hand-built modules usually want true
}

func (m *Module) validate() error {
	for _, r := range m.DefaultIndent {
		if r != ' ' && r != '\t' {
			return invalidf("Module", "An indent must be composed of only whitespace characters")
		}
	}
	return nil
}

// parenthesized reports whether an expression carries at least one pair of
// its own enclosing parentheses.
func parenthesized(e Expression) bool {
	switch v := e.(type) {
	case *Name:
		return len(v.Lpar) > 0
	case *Integer:
		return len(v.Lpar) > 0
	case *Float:
		return len(v.Lpar) > 0
	case *SimpleString:
		return len(v.Lpar) > 0
	case *Ellipsis:
		return len(v.Lpar) > 0
	case *Tuple:
		return len(v.Lpar) > 0
	case *Attribute:
		return len(v.Lpar) > 0
	case *Subscript:
		return len(v.Lpar) > 0
	case *Call:
		return len(v.Lpar) > 0
	case *BinaryOperation:
		return len(v.Lpar) > 0
	case *UnaryOperation:
		return len(v.Lpar) > 0
	case *Lambda:
		return len(v.Lpar) > 0
	default:
		return false
	}
}
