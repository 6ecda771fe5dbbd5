// nodes_test.go
package pycst

import (
	"strings"
	"testing"
)

func wantInvalid(t *testing.T, n Node, fragment string) {
	t.Helper()
	err := n.validate()
	if err == nil {
		t.Fatalf("expected validation error for %#v", n)
	}
	var ve *ValidationError
	if !asValidation(err, &ve) {
		t.Fatalf("error is %T, want *ValidationError", err)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("error %q does not mention %q", err.Error(), fragment)
	}
}

func asValidation(err error, out **ValidationError) bool {
	ve, ok := err.(*ValidationError)
	if ok {
		*out = ve
	}
	return ok
}

func block(stmts ...Statement) *IndentedBlock {
	return &IndentedBlock{Body: stmts}
}

func passLine() *SimpleStatementLine {
	return &SimpleStatementLine{Body: []SmallStatement{&Pass{}}}
}

func Test_New_ReturnsValidNode(t *testing.T) {
	n, err := New(&Name{Value: "x"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if n.Value != "x" {
		t.Fatalf("Name = %+v", n)
	}
}

func Test_New_RejectsInvalidNode(t *testing.T) {
	_, err := New(&Name{Value: "not-an-identifier"})
	if err == nil {
		t.Fatalf("expected error")
	}
	want := `invalid Name node: Name "not-an-identifier" is not a valid identifier`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func Test_MustNew_PanicsOnInvalidNode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNew(&Integer{})
}

func Test_Validation_Expressions(t *testing.T) {
	cases := []struct {
		name     string
		node     Node
		fragment string
	}{
		{"empty name", &Name{}, "not a valid identifier"},
		{"digit-leading name", &Name{Value: "1abc"}, "not a valid identifier"},
		{"empty integer", &Integer{}, "Must have a value"},
		{"empty float", &Float{}, "Must have a value"},
		{"unquoted string", &SimpleString{Value: "hi"}, "String must include quotes"},
		{"tuple element without value", &Tuple{Elements: []Element{{}}}, "Element must have a value"},
		{"attribute without attr", &Attribute{Value: &Name{Value: "a"}}, "Must have both a value and an attr"},
		{"subscript without index", &Subscript{Value: &Name{Value: "a"}}, "Must have both a value and an index"},
		{"arg with bad star", &Arg{Star: "***", Value: &Name{Value: "a"}}, "Must specify either '', '*' or '**' for star."},
		{"arg with star and keyword", &Arg{Star: "*", Keyword: &Name{Value: "k"}, Value: &Name{Value: "a"}}, "Cannot have both a star and a keyword"},
		{"arg without value", &Arg{}, "Must have a value"},
		{"call without func", &Call{}, "Must have a function to call"},
		{"binary op without right", &BinaryOperation{Left: &Name{Value: "a"}, Operator: BinaryOp{Token: "+"}}, "Must have both a left and a right operand"},
		{"binary op unknown token", &BinaryOperation{Left: &Name{Value: "a"}, Right: &Name{Value: "b"}, Operator: BinaryOp{Token: "<>"}}, `Unknown operator "<>"`},
		{"unary op unknown token", &UnaryOperation{Operator: UnaryOp{Token: "!"}, Expression: &Name{Value: "a"}}, `Unknown operator "!"`},
		{"unary op without operand", &UnaryOperation{Operator: UnaryOp{Token: "-"}}, "Must have an expression"},
		{"param without name", &Param{}, "Must have a name"},
		{"param equal without default", &Param{Name: &Name{Value: "a"}, Equal: &AssignEqual{}}, "Must have a default when specifying an AssignEqual."},
		{"lambda without body", &Lambda{}, "Must have a body"},
		{"annotation without expression", &Annotation{}, "Must have an annotation expression"},
		{"unbalanced parens", &Name{Value: "a", Lpar: []LeftParen{{}}}, "Cannot have left paren without right paren"},
		{"comment without hash", &Comment{Value: "no hash"}, "Comment text must begin with '#'"},
		{"bad newline", &Newline{Value: "x"}, "Invalid newline sequence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantInvalid(t, tc.node, tc.fragment)
		})
	}
}

func Test_Validation_LambdaParamAnnotations(t *testing.T) {
	lam := &Lambda{
		Params: Parameters{Params: []*Param{
			{Name: &Name{Value: "a"}, Annotation: &Annotation{Annotation: &Name{Value: "int"}}},
		}},
		Body: &Name{Value: "a"},
	}
	wantInvalid(t, lam, "Lambda params cannot have type annotations")
}

func Test_Validation_ParameterGroups(t *testing.T) {
	name := func(s string) *Name { return &Name{Value: s} }
	cases := []struct {
		name     string
		params   Parameters
		fragment string
	}{
		{
			"starred plain param",
			Parameters{Params: []*Param{{Star: "*", Name: name("a")}}},
			"Expecting a star prefix of '' for a param",
		},
		{
			"default in plain params",
			Parameters{Params: []*Param{{Name: name("a"), Default: &Integer{Value: "1"}}}},
			"Cannot have defaults for params",
		},
		{
			"default param without default",
			Parameters{DefaultParams: []*Param{{Name: name("a")}}},
			"Must have defaults for default_params",
		},
		{
			"bare star without kwonly params",
			Parameters{StarArg: &ParamStar{}},
			"Must have at least one kwonly param if ParamStar is used.",
		},
		{
			"star arg with wrong prefix",
			Parameters{StarArg: &Param{Star: "**", Name: name("a")}},
			"Expecting a star prefix of '*' for star_arg",
		},
		{
			"star kwarg with wrong prefix",
			Parameters{StarKwarg: &Param{Star: "*", Name: name("kw")}},
			"Expecting a star prefix of '**' for star_kwarg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fn := &FunctionDef{
				WhitespaceAfterDef: SimpleWhitespace(" "),
				Name:               name("f"),
				Params:             tc.params,
				Body:               block(passLine()),
			}
			wantInvalid(t, fn, tc.fragment)
		})
	}
}

func Test_Validation_Statements(t *testing.T) {
	name := func(s string) *Name { return &Name{Value: s} }
	cases := []struct {
		name     string
		node     Node
		fragment string
	}{
		{"assign without targets", &Assign{Value: name("x")}, "must have at least one AssignTarget"},
		{"assign target without target", &Assign{Targets: []AssignTarget{{}}, Value: name("x")}, "AssignTarget must have a target"},
		{"assign without value", &Assign{Targets: []AssignTarget{{Target: name("x")}}}, "must have a value"},
		{"annassign without target", &AnnAssign{Annotation: Annotation{Annotation: name("int")}}, "must have a target"},
		{"annassign equal without value", &AnnAssign{Target: name("x"), Annotation: Annotation{Annotation: name("int")}, Equal: &AssignEqual{}}, "Must have a value when specifying an AssignEqual."},
		{"expr without value", &Expr{}, "must have a value"},
		{"return value without space", &Return{WhitespaceAfterReturn: SimpleWhitespace(""), Value: name("x")}, "Must have at least one space after 'return' keyword"},
		{"global without names", &Global{}, "must have at least one NameItem"},
		{"global without space", &Global{WhitespaceAfterGlobal: SimpleWhitespace(""), Names: []NameItem{{Name: name("a")}}}, "Must have at least one space after 'global' keyword"},
		{"global trailing comma", &Global{Names: []NameItem{{Name: name("a"), Comma: &Comma{}}}}, "cannot have a trailing comma"},
		{"nonlocal parenthesized name", &Nonlocal{Names: []NameItem{{Name: &Name{Value: "a", Lpar: []LeftParen{{}}, Rpar: []RightParen{{}}}}}}, "Cannot have parens around names"},
		{"empty indented block", &IndentedBlock{}, "must have at least one statement"},
		{"non-whitespace indent", &IndentedBlock{Indent: "ab", Body: []Statement{passLine()}}, "An indent must be composed of only whitespace characters"},
		{"empty simple suite", &SimpleStatementSuite{}, "must have at least one statement"},
		{"empty statement line", &SimpleStatementLine{}, "must have at least one statement"},
		{"functiondef without name", &FunctionDef{Body: block(passLine())}, "must have a name"},
		{"functiondef without space", &FunctionDef{WhitespaceAfterDef: SimpleWhitespace(""), Name: name("f"), Body: block(passLine())}, "Must have at least one space after 'def' keyword"},
		{"functiondef without body", &FunctionDef{Name: name("f")}, "must have a body"},
		{"for without iter", &For{Target: name("x"), Body: block(passLine())}, "must have a target and an iterable"},
		{"while without test", &While{Body: block(passLine())}, "must have a test"},
		{"with without items", &With{Body: block(passLine())}, "must have at least one WithItem"},
		{"with trailing comma", &With{Items: []WithItem{{Item: name("a"), Comma: &Comma{}}}, Body: block(passLine())}, "cannot have a trailing comma"},
		{"asname without name", &With{Items: []WithItem{{Item: name("a"), AsName: &AsName{}}}, Body: block(passLine())}, "AsName must have a name"},
		{"if without test", &If{Body: block(passLine())}, "must have a test"},
		{"else without body", &Else{}, "must have a body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantInvalid(t, tc.node, tc.fragment)
		})
	}
}

func Test_Validation_KeywordSpacingAcceptsNilDefault(t *testing.T) {
	// nil whitespace means "use the default", which is a single space, so
	// the at-least-one-space rules must not fire.
	nodes := []Node{
		&Return{Value: &Name{Value: "x"}},
		&Global{Names: []NameItem{{Name: &Name{Value: "a"}}}},
		&Nonlocal{Names: []NameItem{{Name: &Name{Value: "a"}}}},
		&FunctionDef{Name: &Name{Value: "f"}, Body: block(passLine())},
	}
	for _, n := range nodes {
		if err := n.validate(); err != nil {
			t.Fatalf("validate(%T) = %v, want nil", n, err)
		}
	}
}

func Test_Validation_ParenthesizedReturnValueNeedsNoSpace(t *testing.T) {
	ret := &Return{
		WhitespaceAfterReturn: SimpleWhitespace(""),
		Value: &Name{
			Value: "x",
			Lpar:  []LeftParen{{}},
			Rpar:  []RightParen{{}},
		},
	}
	if err := ret.validate(); err != nil {
		t.Fatalf("validate = %v, want nil", err)
	}
}
