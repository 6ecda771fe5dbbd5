// render_test.go
package pycst

import "testing"

func name(s string) *Name       { return &Name{Value: s} }
func integer(s string) *Integer { return &Integer{Value: s} }

func wantRender(t *testing.T, n Node, want string) {
	t.Helper()
	if got := Render(n); got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func Test_Render_SentinelDefaults_Expressions(t *testing.T) {
	wantRender(t, &BinaryOperation{
		Left:     name("a"),
		Operator: BinaryOp{Token: "+"},
		Right:    name("b"),
	}, "a + b")

	wantRender(t, &UnaryOperation{
		Operator:   UnaryOp{Token: "-"},
		Expression: name("x"),
	}, "-x")
	wantRender(t, &UnaryOperation{
		Operator:   UnaryOp{Token: "not"},
		Expression: name("x"),
	}, "not x")

	wantRender(t, &Attribute{Value: name("a"), Attr: name("b")}, "a.b")
	wantRender(t, &Subscript{Value: name("a"), Index: name("i")}, "a[i]")

	wantRender(t, &Call{
		Func: name("f"),
		Args: []Arg{{Value: name("a")}, {Value: name("b")}},
	}, "f(a, b)")

	wantRender(t, &Call{
		Func: name("f"),
		Args: []Arg{{Keyword: name("k"), Value: integer("1")}},
	}, "f(k=1)")

	wantRender(t, &Tuple{
		Elements: []Element{{Value: name("a")}, {Value: name("b")}},
	}, "a, b")

	wantRender(t, &Lambda{Body: integer("0")}, "lambda: 0")
	wantRender(t, &Lambda{
		Params: Parameters{Params: []*Param{{Name: name("a")}}},
		Body:   name("a"),
	}, "lambda a: a")
}

func Test_Render_SentinelDefaults_Statements(t *testing.T) {
	wantRender(t, &Assign{
		Targets: []AssignTarget{{Target: name("x")}},
		Value:   integer("1"),
	}, "x = 1")

	wantRender(t, &Assign{
		Targets: []AssignTarget{{Target: name("x")}, {Target: name("y")}},
		Value:   integer("1"),
	}, "x = y = 1")

	wantRender(t, &AnnAssign{
		Target:     name("x"),
		Annotation: Annotation{Annotation: name("int")},
	}, "x: int")

	wantRender(t, &AnnAssign{
		Target:     name("x"),
		Annotation: Annotation{Annotation: name("int")},
		Value:      integer("5"),
	}, "x: int = 5")

	wantRender(t, &Return{Value: name("x")}, "return x")
	wantRender(t, &Return{}, "return")

	wantRender(t, &Global{
		Names: []NameItem{{Name: name("a")}, {Name: name("b")}},
	}, "global a, b")
}

func Test_Render_SemicolonSentinel(t *testing.T) {
	line := &SimpleStatementLine{
		Body: []SmallStatement{
			&Assign{Targets: []AssignTarget{{Target: name("x")}}, Value: integer("1")},
			&Pass{},
		},
	}
	wantRender(t, line, "x = 1; pass\n")

	// An explicit trailing semicolon renders even on the last statement.
	line = &SimpleStatementLine{
		Body: []SmallStatement{
			&Assign{
				Targets:   []AssignTarget{{Target: name("x")}},
				Value:     integer("1"),
				Semicolon: &Semicolon{},
			},
		},
	}
	wantRender(t, line, "x = 1;\n")
}

func Test_Render_SynthesizedFunctionDef(t *testing.T) {
	fn := &FunctionDef{
		Name: name("f"),
		Params: Parameters{
			Params:        []*Param{{Name: name("a")}},
			DefaultParams: []*Param{{Name: name("b"), Default: integer("2")}},
		},
		Body: &IndentedBlock{Body: []Statement{
			&SimpleStatementLine{Body: []SmallStatement{&Return{Value: name("a")}}},
		}},
	}
	wantRender(t, fn, "def f(a, b = 2):\n    return a\n")
}

func Test_Render_DefaultIndentAndNewline(t *testing.T) {
	mod := &Module{
		Body: []Statement{
			&If{
				Test: name("a"),
				Body: &IndentedBlock{Body: []Statement{
					&SimpleStatementLine{Body: []SmallStatement{&Pass{}}},
				}},
			},
		},
		DefaultIndent:      "\t",
		DefaultNewline:     "\r\n",
		HasTrailingNewline: true,
	}
	if got := mod.Code(); got != "if a:\r\n\tpass\r\n" {
		t.Fatalf("Code = %q", got)
	}
}

func Test_Render_NestedBlocksStackIndents(t *testing.T) {
	src := "if a:\n  if b:\n  \t pass\n"
	mod := mustParse(t, src)
	if got := mod.Code(); got != src {
		t.Fatalf("Code = %q, want %q", got, src)
	}
	outer := mod.Body[0].(*If).Body.(*IndentedBlock)
	if outer.Indent != "  " {
		t.Fatalf("outer Indent = %q", outer.Indent)
	}
	inner := outer.Body[0].(*If).Body.(*IndentedBlock)
	if inner.Indent != "\t " {
		t.Fatalf("inner Indent = %q", inner.Indent)
	}
}

func Test_Render_ParamStarAndArgStandalone(t *testing.T) {
	// Both side types render on their own through the Node interface.
	star, err := New(&ParamStar{})
	if err != nil {
		t.Fatalf("New(ParamStar): %v", err)
	}
	// A bare star is never the final parameter, so the nil comma renders
	// the separator.
	if got := Render(star); got != "*, " {
		t.Fatalf("ParamStar renders %q", got)
	}
	if got := Render(&ParamStar{Comma: &Comma{}}); got != "*," {
		t.Fatalf("ParamStar with explicit comma renders %q", got)
	}

	arg := &Arg{Keyword: &Name{Value: "k"}, Value: &Integer{Value: "1"}}
	if got := Render(arg); got != "k=1" {
		t.Fatalf("Arg renders %q", got)
	}
}

func Test_Render_CodeForNode_UsesModuleConventions(t *testing.T) {
	mod := mustParse(t, "x = 1\r\ny = 2\r\n")
	line := mod.Body[0].(*SimpleStatementLine)
	if got := mod.CodeForNode(line); got != "x = 1\r\n" {
		t.Fatalf("CodeForNode = %q", got)
	}
}
