// parser_test.go
package pycst

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Module {
	t.Helper()
	mod, err := ParseModule(src)
	if err != nil {
		t.Fatalf("ParseModule error:\n%s\nsource:\n%s", err, src)
	}
	return mod
}

func wantRoundTrip(t *testing.T, src string) *Module {
	t.Helper()
	mod := mustParse(t, src)
	if got := mod.Code(); got != src {
		t.Fatalf("round trip mismatch\nsource: %q\ngot:    %q", src, got)
	}
	return mod
}

func wantParseError(t *testing.T, src, fragment string) {
	t.Helper()
	_, err := ParseModule(src)
	if err == nil {
		t.Fatalf("expected parse error for %q", src)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("error %q does not mention %q", err.Error(), fragment)
	}
}

func Test_Parser_RoundTrip_SimpleStatements(t *testing.T) {
	sources := []string{
		"x = 1\n",
		"x = y = 2\n",
		"x: int = 5\n",
		"x:int=5\n",
		"x : int\n",
		"pass\n",
		"x = 1; y = 2\n",
		"x = 1 ;y = 2\n",
		"x = 1;\n",
		"x = 1;  # trailing\n",
		"x = 1  # aligned comment\n",
		"return_value = f()\n",
		"global a, b\n",
		"global  a ,  b\n",
	}
	for _, src := range sources {
		wantRoundTrip(t, src)
	}
}

func Test_Parser_RoundTrip_Expressions(t *testing.T) {
	sources := []string{
		"x = (1 + 2) * 3\n",
		"x = ((a))\n",
		"x = a.b.c(1, 2).d[0]\n",
		"x = f( a , b = 1 , * args , ** kwargs )\n",
		"x = lambda a, b=2: a + b\n",
		"x = lambda: 0\n",
		"x = -y ** 2\n",
		"x = not a or b and c\n",
		"x = a is not b\n",
		"x = a not in b\n",
		"x = a < b <= c\n",
		"x = 0xFF + 0b101 + 0o17\n",
		"x = 1.5e-3 + .5 + 2.\n",
		"x = \"hi\" + r'raw' + b\"bytes\"\n",
		"x = \"\"\"multi\nline\"\"\"\n",
		"x = ...\n",
		"t = ()\n",
		"x = (1,)\n",
		"x = 1, 2,\n",
		"a, b = b, a\n",
		"x = ( a ) . b\n",
	}
	for _, src := range sources {
		wantRoundTrip(t, src)
	}
}

func Test_Parser_RoundTrip_ParenthesizedWhitespace(t *testing.T) {
	sources := []string{
		"x = (\n    1 +\n    2  # hi\n)\n",
		"x = f(\n    a,  # first\n    b,\n)\n",
		"x = (  # opening\n    a\n)\n",
		"x = f(a,\n      b)\n",
		"def f(a,  # type: int\n      b):\n    pass\n",
	}
	for _, src := range sources {
		wantRoundTrip(t, src)
	}
}

func Test_Parser_RoundTrip_CompoundStatements(t *testing.T) {
	sources := []string{
		"def f(a, b=1, *args, c, **kwargs):\n    return a\n",
		"def f(a, *, b):\n    pass\n",
		"def f() -> int:\n    return 0\n",
		"def f(): return 1\n",
		"def f():\n\tpass\n",
		"def outer():\n    def inner():\n        pass\n    return inner\n",
		"for i in xs:\n    total = total + i\n",
		"for a, b in pairs: pass\n",
		"while x < 10:\n    x = x + 1\n",
		"with open(path) as f, lock:\n    data = f.read()\n",
		"with ctx() as (a, b):\n    pass\n",
		"if a:\n    pass\nelif b:\n    pass\nelse:\n    pass\n",
		"if a : pass\nelse : pass\n",
		"def f():\n\n    pass\n",
	}
	for _, src := range sources {
		wantRoundTrip(t, src)
	}
}

func Test_Parser_RoundTrip_CommentsAndBlankLines(t *testing.T) {
	sources := []string{
		"# header\n\nx = 1\n",
		"x = 1\n\n# footer\n",
		"# only a comment\n",
		"\n\n\n",
		"",
		"def f():\n    # inside\n    pass\n\n# after\nx = 1\n",
		"if a:\n    pass\n# between\nelse:\n    pass\n",
		"def f():  # header comment\n    pass\n",
	}
	for _, src := range sources {
		wantRoundTrip(t, src)
	}
}

func Test_Parser_RoundTrip_NewlineConventions(t *testing.T) {
	wantRoundTrip(t, "x = 1\r\nif x:\r\n    pass\r\n")
	wantRoundTrip(t, "x = 1\rpass\r")

	// Missing trailing newline is preserved as absent.
	mod := wantRoundTrip(t, "x = 1")
	if mod.HasTrailingNewline {
		t.Fatalf("HasTrailingNewline = true for source without one")
	}

	mod = mustParse(t, "x = 1\r\ny = 2\r\n")
	if mod.DefaultNewline != "\r\n" {
		t.Fatalf("DefaultNewline = %q, want \\r\\n", mod.DefaultNewline)
	}
}

func Test_Parser_HeaderAndFooterOwnership(t *testing.T) {
	mod := mustParse(t, "# one\n# two\n\nx = 1\n# tail\n")
	if len(mod.Header) != 3 {
		t.Fatalf("Header has %d lines, want 3", len(mod.Header))
	}
	if mod.Header[0].Comment == nil || mod.Header[0].Comment.Value != "# one" {
		t.Fatalf("Header[0] = %+v", mod.Header[0])
	}
	if len(mod.Footer) != 1 || mod.Footer[0].Comment == nil || mod.Footer[0].Comment.Value != "# tail" {
		t.Fatalf("Footer = %+v", mod.Footer)
	}
	line, ok := mod.Body[0].(*SimpleStatementLine)
	if !ok {
		t.Fatalf("Body[0] is %T", mod.Body[0])
	}
	if len(line.LeadingLines) != 0 {
		t.Fatalf("first statement kept %d leading lines, want 0", len(line.LeadingLines))
	}

	// A module of only comments keeps them in Header.
	mod = mustParse(t, "# a\n# b\n")
	if len(mod.Body) != 0 || len(mod.Header) != 2 || len(mod.Footer) != 0 {
		t.Fatalf("comment-only module: header=%d body=%d footer=%d",
			len(mod.Header), len(mod.Body), len(mod.Footer))
	}
}

func Test_Parser_DedentCarriesCommentsToNextStatement(t *testing.T) {
	src := "def f():\n    pass\n# top level again\nx = 1\n"
	mod := wantRoundTrip(t, src)
	if len(mod.Body) != 2 {
		t.Fatalf("Body has %d statements, want 2", len(mod.Body))
	}
	line := mod.Body[1].(*SimpleStatementLine)
	if len(line.LeadingLines) != 1 || line.LeadingLines[0].Comment == nil {
		t.Fatalf("comment did not attach to following statement: %+v", line.LeadingLines)
	}
}

func Test_Parser_AssignShapes(t *testing.T) {
	mod := mustParse(t, "a = b = c\n")
	line := mod.Body[0].(*SimpleStatementLine)
	assign := line.Body[0].(*Assign)
	if len(assign.Targets) != 2 {
		t.Fatalf("chained assign has %d targets, want 2", len(assign.Targets))
	}
	if name, ok := assign.Value.(*Name); !ok || name.Value != "c" {
		t.Fatalf("assign value = %#v", assign.Value)
	}

	mod = mustParse(t, "x: int\n")
	ann := mod.Body[0].(*SimpleStatementLine).Body[0].(*AnnAssign)
	if ann.Value != nil || ann.Equal != nil {
		t.Fatalf("bare annotation grew a value: %+v", ann)
	}
}

func Test_Parser_ParameterGrouping(t *testing.T) {
	mod := mustParse(t, "def f(a, b=1, *args, c, d=2, **kw):\n    pass\n")
	fn := mod.Body[0].(*FunctionDef)
	ps := fn.Params
	if len(ps.Params) != 1 || ps.Params[0].Name.Value != "a" {
		t.Fatalf("Params = %+v", ps.Params)
	}
	if len(ps.DefaultParams) != 1 || ps.DefaultParams[0].Name.Value != "b" {
		t.Fatalf("DefaultParams = %+v", ps.DefaultParams)
	}
	star, ok := ps.StarArg.(*Param)
	if !ok || star.Name.Value != "args" || star.Star != "*" {
		t.Fatalf("StarArg = %#v", ps.StarArg)
	}
	if len(ps.KwonlyParams) != 2 {
		t.Fatalf("KwonlyParams = %+v", ps.KwonlyParams)
	}
	if ps.StarKwarg == nil || ps.StarKwarg.Name.Value != "kw" || ps.StarKwarg.Star != "**" {
		t.Fatalf("StarKwarg = %+v", ps.StarKwarg)
	}

	mod = mustParse(t, "def f(a, *, b):\n    pass\n")
	ps = mod.Body[0].(*FunctionDef).Params
	if _, ok := ps.StarArg.(*ParamStar); !ok {
		t.Fatalf("bare star separator parsed as %#v", ps.StarArg)
	}
	if len(ps.KwonlyParams) != 1 || ps.KwonlyParams[0].Name.Value != "b" {
		t.Fatalf("KwonlyParams = %+v", ps.KwonlyParams)
	}
}

func Test_Parser_Errors(t *testing.T) {
	cases := []struct {
		src      string
		fragment string
	}{
		{"class A: pass\n", `unsupported statement keyword "class"`},
		{"import os\n", `unsupported statement keyword "import"`},
		{"del x\n", `unsupported statement keyword "del"`},
		{"x += 1\n", "augmented assignment is not supported"},
		{"x = \n", "unexpected character"},
		{"def f():\n", "expected an indented block"},
		{"def f()\n    pass\n", "expected ':' after function signature"},
		{"for x in:\n    pass\n", "unexpected character"},
		{"x = (1\n", "unexpected end of file inside brackets"},
		{"x = 'open\n", "unterminated string literal"},
		{"x = \"\"\"open\n", "unterminated triple-quoted string"},
		{"  x = 1\n", "unexpected indent"},
		{"def f(a=1, b):\n    pass\n", "parameter without a default"},
		{"def f(*a, *b):\n    pass\n", "duplicate '*'"},
	}
	for _, tc := range cases {
		wantParseError(t, tc.src, tc.fragment)
	}
}

func Test_Parser_ErrorPositions(t *testing.T) {
	_, err := ParseModule("x = 1\ny = @\n")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Fatalf("Line = %d, want 2", pe.Line)
	}
	if pe.Col != 4 {
		t.Fatalf("Col = %d, want 4", pe.Col)
	}
	if !strings.HasPrefix(pe.Error(), "syntax error at 2:5") {
		t.Fatalf("Error() = %q", pe.Error())
	}
}

func Test_ParseStatement_ExactlyOne(t *testing.T) {
	st, err := ParseStatement("if a:\n    pass\n")
	if err != nil {
		t.Fatalf("ParseStatement error: %v", err)
	}
	if _, ok := st.(*If); !ok {
		t.Fatalf("statement is %T, want *If", st)
	}

	if _, err := ParseStatement("x = 1\ny = 2\n"); err == nil {
		t.Fatalf("expected error for two statements")
	}
	if _, err := ParseStatement("x = 1\n# stray\n"); err == nil {
		t.Fatalf("expected error for trailing comment")
	}
}

func Test_ParseExpression_Basics(t *testing.T) {
	e, err := ParseExpression("a + b")
	if err != nil {
		t.Fatalf("ParseExpression error: %v", err)
	}
	if _, ok := e.(*BinaryOperation); !ok {
		t.Fatalf("expression is %T, want *BinaryOperation", e)
	}
	if got := Render(e); got != "a + b" {
		t.Fatalf("Render = %q", got)
	}

	if _, err := ParseExpression("a +"); err == nil {
		t.Fatalf("expected error for truncated expression")
	}
	if _, err := ParseExpression("a b"); err == nil {
		t.Fatalf("expected error for juxtaposed names")
	}

	// Bare tuples are accepted, like eval input.
	e, err = ParseExpression("1, 2")
	if err != nil {
		t.Fatalf("ParseExpression error: %v", err)
	}
	if tup, ok := e.(*Tuple); !ok || len(tup.Elements) != 2 {
		t.Fatalf("expression = %#v", e)
	}
}

func Test_Parser_WholePrefixIndentation(t *testing.T) {
	// Mixed tab/space indents are fine as long as each block's prefix
	// extends its parent's prefix literally.
	wantRoundTrip(t, "if a:\n\tif b:\n\t    pass\n")

	// An inner line whose prefix does not extend the block's prefix ends
	// the block; here that leaves 'x' at an indent no open block owns.
	wantParseError(t, "if a:\n        pass\n    x = 1\n", "unexpected indent")

	// A tab-led inner line does not extend a space-led outer prefix, even
	// though it might look deeper; the inner block is taken as missing.
	wantParseError(t, "if a:\n  if b:\n\t pass\n", "expected an indented block")
}
