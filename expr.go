// expr.go — expression node variants, including the parameter collection
// shared by function definitions and lambdas.
//
// Each expression that the grammar allows to be parenthesized carries its
// own Lpar/Rpar sequences; the pairing rule is validated per node. The
// parameter collection keeps the four mutually exclusive groups (plain,
// defaulted, keyword-only, and the two variadic slots) in separate fields
// so their invariants can be checked at construction rather than at render
// time.
package pycst

/* ===========================
   ATOMS
   =========================== */

// Name is an identifier.
type Name struct {
	Lpar  []LeftParen
	Rpar  []RightParen
	Value string
}

func (*Name) expressionNode() {}

func (n *Name) validate() error {
	if !isIdentifier(n.Value) {
		return invalidf("Name", "Name %q is not a valid identifier", n.Value)
	}
	return validParens("Name", n.Lpar, n.Rpar)
}

// Integer is an integer literal, stored as its raw text.
type Integer struct {
	Lpar  []LeftParen
	Rpar  []RightParen
	Value string
}

func (*Integer) expressionNode() {}

func (n *Integer) validate() error {
	if n.Value == "" {
		return invalidf("Integer", "Must have a value")
	}
	return validParens("Integer", n.Lpar, n.Rpar)
}

// Float is a floating point literal, stored as its raw text.
type Float struct {
	Lpar  []LeftParen
	Rpar  []RightParen
	Value string
}

func (*Float) expressionNode() {}

func (n *Float) validate() error {
	if n.Value == "" {
		return invalidf("Float", "Must have a value")
	}
	return validParens("Float", n.Lpar, n.Rpar)
}

// SimpleString is a string literal stored raw, including prefix and quotes.
type SimpleString struct {
	Lpar  []LeftParen
	Rpar  []RightParen
	Value string
}

func (*SimpleString) expressionNode() {}

func (s *SimpleString) validate() error {
	if len(s.Value) < 2 {
		return invalidf("SimpleString", "String must include quotes")
	}
	return validParens("SimpleString", s.Lpar, s.Rpar)
}

// Ellipsis is the '...' literal.
type Ellipsis struct {
	Lpar []LeftParen
	Rpar []RightParen
}

func (*Ellipsis) expressionNode() {}

func (e *Ellipsis) validate() error { return validParens("Ellipsis", e.Lpar, e.Rpar) }

/* ===========================
   COMPOUND EXPRESSIONS
   =========================== */

// Element is one member of a tuple, with its trailing comma if present.
type Element struct {
	Value Expression
	Comma *Comma
}

// Tuple is a comma-separated expression sequence, parenthesized or bare.
type Tuple struct {
	Lpar     []LeftParen
	Rpar     []RightParen
	Elements []Element
}

func (*Tuple) expressionNode() {}

func (t *Tuple) validate() error {
	for i := range t.Elements {
		if t.Elements[i].Value == nil {
			return invalidf("Tuple", "Element must have a value")
		}
	}
	return validParens("Tuple", t.Lpar, t.Rpar)
}

// Attribute is a dotted access: value '.' attr.
type Attribute struct {
	Lpar  []LeftParen
	Rpar  []RightParen
	Value Expression
	Dot   Dot
	Attr  *Name
}

func (*Attribute) expressionNode() {}

func (a *Attribute) validate() error {
	if a.Value == nil || a.Attr == nil {
		return invalidf("Attribute", "Must have both a value and an attr")
	}
	return validParens("Attribute", a.Lpar, a.Rpar)
}

// Subscript is an index access: value '[' index ']'.
type Subscript struct {
	Lpar                 []LeftParen
	Rpar                 []RightParen
	Value                Expression
	WhitespaceAfterValue Whitespace
	Lbracket             LeftSquareBracket
	Index                Expression
	Rbracket             RightSquareBracket
}

func (*Subscript) expressionNode() {}

func (s *Subscript) validate() error {
	if s.Value == nil || s.Index == nil {
		return invalidf("Subscript", "Must have both a value and an index")
	}
	return validParens("Subscript", s.Lpar, s.Rpar)
}

// Arg is one call argument, positional or keyword, with optional star.
type Arg struct {
	Star                string // "", "*" or "**"
	WhitespaceAfterStar Whitespace
	Keyword             *Name
	Equal               *AssignEqual
	Value               Expression
	Comma               *Comma
	WhitespaceAfterArg  Whitespace
}

func (a *Arg) validate() error {
	switch a.Star {
	case "", "*", "**":
	default:
		return invalidf("Arg", "Must specify either '', '*' or '**' for star.")
	}
	if a.Keyword != nil && a.Star != "" {
		return invalidf("Arg", "Cannot have both a star and a keyword")
	}
	if a.Value == nil {
		return invalidf("Arg", "Must have a value")
	}
	return nil
}

// Call is a function call: func '(' args ')'.
type Call struct {
	Lpar                 []LeftParen
	Rpar                 []RightParen
	Func                 Expression
	WhitespaceAfterFunc  Whitespace
	WhitespaceBeforeArgs Whitespace
	Args                 []Arg
}

func (*Call) expressionNode() {}

func (c *Call) validate() error {
	if c.Func == nil {
		return invalidf("Call", "Must have a function to call")
	}
	for i := range c.Args {
		if err := c.Args[i].validate(); err != nil {
			return err
		}
	}
	return validParens("Call", c.Lpar, c.Rpar)
}

// BinaryOp is the operator token of a BinaryOperation with its spacing.
// Both whitespace slots default to a single space.
type BinaryOp struct {
	WhitespaceBefore Whitespace
	WhitespaceAfter  Whitespace
	Token            string
}

var binaryOpTokens = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true,
	"**": true, "@": true, "<<": true, ">>": true, "&": true, "|": true,
	"^": true, "==": true, "!=": true, "<": true, "<=": true, ">": true,
	">=": true, "and": true, "or": true, "in": true, "not in": true,
	"is": true, "is not": true,
}

// BinaryOperation is left op right. Comparison chains are folded
// left-associatively into nested operations; rendering is identical.
type BinaryOperation struct {
	Lpar     []LeftParen
	Rpar     []RightParen
	Left     Expression
	Operator BinaryOp
	Right    Expression
}

func (*BinaryOperation) expressionNode() {}

func (b *BinaryOperation) validate() error {
	if b.Left == nil || b.Right == nil {
		return invalidf("BinaryOperation", "Must have both a left and a right operand")
	}
	if !binaryOpTokens[b.Operator.Token] {
		return invalidf("BinaryOperation", "Unknown operator %q", b.Operator.Token)
	}
	return validParens("BinaryOperation", b.Lpar, b.Rpar)
}

// UnaryOp is the operator token of a UnaryOperation. The whitespace after
// defaults to "" for symbol operators and " " for 'not'.
type UnaryOp struct {
	Token           string
	WhitespaceAfter Whitespace
}

// UnaryOperation is a prefixed expression: '-x', 'not x', '~x', '+x'.
type UnaryOperation struct {
	Lpar       []LeftParen
	Rpar       []RightParen
	Operator   UnaryOp
	Expression Expression
}

func (*UnaryOperation) expressionNode() {}

func (u *UnaryOperation) validate() error {
	switch u.Operator.Token {
	case "-", "+", "~", "not":
	default:
		return invalidf("UnaryOperation", "Unknown operator %q", u.Operator.Token)
	}
	if u.Expression == nil {
		return invalidf("UnaryOperation", "Must have an expression")
	}
	return validParens("UnaryOperation", u.Lpar, u.Rpar)
}

/* ===========================
   PARAMETERS
   =========================== */

// Param is a single parameter. Star must agree with the Parameters group
// that holds it; Equal may only appear together with a Default. A nil
// Equal next to a present Default renders the conventional " = ".
type Param struct {
	Star                string // "", "*" or "**"
	WhitespaceAfterStar Whitespace
	Name                *Name
	Annotation          *Annotation
	Equal               *AssignEqual
	Default             Expression
	Comma               *Comma
	WhitespaceAfter     Whitespace // precedes ')' or ':' when last
}

func (p *Param) validate() error {
	switch p.Star {
	case "", "*", "**":
	default:
		return invalidf("Param", "Must specify either '', '*' or '**' for star.")
	}
	if p.Name == nil {
		return invalidf("Param", "Must have a name")
	}
	if p.Equal != nil && p.Default == nil {
		return invalidf("Param", "Must have a default when specifying an AssignEqual.")
	}
	return nil
}

// ParamStar is the bare '*' separator introducing keyword-only parameters.
type ParamStar struct {
	Comma *Comma
}

func (p *ParamStar) validate() error { return nil }

// StarArg is the variadic-positional slot of Parameters: either a *Param
// carrying a '*' prefix or a bare *ParamStar separator.
type StarArg interface {
	starArgNode()
}

func (*Param) starArgNode()     {}
func (*ParamStar) starArgNode() {}

// Parameters groups a signature's parameters into the ordered,
// content-exclusive collections the grammar distinguishes.
type Parameters struct {
	Params        []*Param // plain positional, no defaults
	DefaultParams []*Param // positional with mandatory defaults
	StarArg       StarArg  // *Param ("*args") or bare *ParamStar, optional
	KwonlyParams  []*Param
	StarKwarg     *Param // "**kwargs", optional
}

// IsEmpty reports whether no parameter or separator is present.
func (p *Parameters) IsEmpty() bool {
	return len(p.Params) == 0 && len(p.DefaultParams) == 0 && p.StarArg == nil &&
		len(p.KwonlyParams) == 0 && p.StarKwarg == nil
}

func (p *Parameters) validate() error {
	for _, param := range p.Params {
		if err := param.validate(); err != nil {
			return err
		}
		if param.Star != "" {
			return invalidf("Parameters", "Expecting a star prefix of '' for a param; got %q", param.Star)
		}
		if param.Default != nil {
			return invalidf("Parameters", "Cannot have defaults for params")
		}
	}
	for _, param := range p.DefaultParams {
		if err := param.validate(); err != nil {
			return err
		}
		if param.Star != "" {
			return invalidf("Parameters", "Expecting a star prefix of '' for a default_param; got %q", param.Star)
		}
		if param.Default == nil {
			return invalidf("Parameters", "Must have defaults for default_params")
		}
	}
	switch star := p.StarArg.(type) {
	case nil:
	case *ParamStar:
		if len(p.KwonlyParams) == 0 {
			return invalidf("Parameters", "Must have at least one kwonly param if ParamStar is used.")
		}
	case *Param:
		if err := star.validate(); err != nil {
			return err
		}
		if star.Star != "*" {
			return invalidf("Parameters", "Expecting a star prefix of '*' for star_arg; got %q", star.Star)
		}
	}
	for _, param := range p.KwonlyParams {
		if err := param.validate(); err != nil {
			return err
		}
		if param.Star != "" {
			return invalidf("Parameters", "Expecting a star prefix of '' for a kwonly_param; got %q", param.Star)
		}
	}
	if p.StarKwarg != nil {
		if err := p.StarKwarg.validate(); err != nil {
			return err
		}
		if p.StarKwarg.Star != "**" {
			return invalidf("Parameters", "Expecting a star prefix of '**' for star_kwarg; got %q", p.StarKwarg.Star)
		}
	}
	return nil
}

// declarationOrder returns every named parameter in signature order:
// positional, defaulted, variadic positional, keyword-only, variadic
// keyword. The bare ParamStar separator is not a parameter and is skipped.
func (p *Parameters) declarationOrder() []*Param {
	var out []*Param
	out = append(out, p.Params...)
	out = append(out, p.DefaultParams...)
	if star, ok := p.StarArg.(*Param); ok {
		out = append(out, star)
	}
	out = append(out, p.KwonlyParams...)
	if p.StarKwarg != nil {
		out = append(out, p.StarKwarg)
	}
	return out
}

func (p *Parameters) annotated() bool {
	for _, param := range p.declarationOrder() {
		if param.Annotation != nil {
			return true
		}
	}
	return false
}

/* ===========================
   LAMBDA
   =========================== */

// Lambda is an inline function expression. Its parameters may not carry
// annotations, and a non-empty parameter list needs at least one space
// after the keyword.
type Lambda struct {
	Lpar                  []LeftParen
	Rpar                  []RightParen
	WhitespaceAfterLambda Whitespace // default " "
	Params                Parameters
	Colon                 Colon
	Body                  Expression
}

func (*Lambda) expressionNode() {}

func (l *Lambda) validate() error {
	if err := l.Params.validate(); err != nil {
		return err
	}
	if l.Params.annotated() {
		return invalidf("Lambda", "Lambda params cannot have type annotations")
	}
	if ws, ok := l.WhitespaceAfterLambda.(SimpleWhitespace); ok && ws == "" && !l.Params.IsEmpty() {
		return invalidf("Lambda", "Must have at least one space after lambda when specifying params")
	}
	if l.Body == nil {
		return invalidf("Lambda", "Must have a body")
	}
	return validParens("Lambda", l.Lpar, l.Rpar)
}
