// rewrite_test.go
package pycst

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type renameNames struct {
	TransformBase
	from, to string
}

func (r *renameNames) OnLeave(_, updated Node) Rewrite {
	if n, ok := updated.(*Name); ok && n.Value == r.from {
		out := *n
		out.Value = r.to
		return Replace(&out)
	}
	return Keep()
}

type dropPassLines struct{ TransformBase }

func (dropPassLines) OnLeave(_, updated Node) Rewrite {
	if line, ok := updated.(*SimpleStatementLine); ok && len(line.Body) == 1 {
		if _, isPass := line.Body[0].(*Pass); isPass {
			return Remove()
		}
	}
	return Keep()
}

func Test_Visit_KeepIsIdentity(t *testing.T) {
	src := "# header\nx = 1  # inline\n\ndef f(a):\n    return a\n"
	mod := mustParse(t, src)
	out, err := mod.Visit(TransformBase{})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := out.Code(); got != src {
		t.Fatalf("identity visit changed code:\n%q\n%q", src, got)
	}
}

func Test_Visit_ReplaceNames(t *testing.T) {
	src := "a = a + 1\nprint(a)\n"
	mod := mustParse(t, src)
	out, err := mod.Visit(&renameNames{from: "a", to: "b"})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := out.Code(); got != "b = b + 1\nprint(b)\n" {
		t.Fatalf("Code = %q", got)
	}
	// The input tree is untouched.
	if got := mod.Code(); got != src {
		t.Fatalf("original mutated: %q", got)
	}
}

func Test_Visit_RemoveStatementFromBody(t *testing.T) {
	mod := mustParse(t, "x = 1\npass\ny = 2\n")
	out, err := mod.Visit(dropPassLines{})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := out.Code(); got != "x = 1\ny = 2\n" {
		t.Fatalf("Code = %q", got)
	}
}

type expandPass struct{ TransformBase }

func (expandPass) OnLeave(_, updated Node) Rewrite {
	line, ok := updated.(*SimpleStatementLine)
	if !ok || len(line.Body) != 1 {
		return Keep()
	}
	if _, isPass := line.Body[0].(*Pass); !isPass {
		return Keep()
	}
	mk := func(name string) *SimpleStatementLine {
		return &SimpleStatementLine{Body: []SmallStatement{
			&Assign{
				Targets: []AssignTarget{{Target: &Name{Value: name}}},
				Value:   &Integer{Value: "0"},
			},
		}}
	}
	return Flatten(mk("a"), mk("b"))
}

func Test_Visit_FlattenStatement(t *testing.T) {
	mod := mustParse(t, "x = 1\npass\n")
	out, err := mod.Visit(expandPass{})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := out.Code(); got != "x = 1\na = 0\nb = 0\n" {
		t.Fatalf("Code = %q", got)
	}
}

func Test_Visit_FlattenInsideIndentedBlock(t *testing.T) {
	mod := mustParse(t, "def f():\n    pass\n")
	out, err := mod.Visit(expandPass{})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := out.Code(); got != "def f():\n    a = 0\n    b = 0\n" {
		t.Fatalf("Code = %q", got)
	}
}

type dropComments struct{ TransformBase }

func (dropComments) OnLeave(_, updated Node) Rewrite {
	if _, ok := updated.(*Comment); ok {
		return Remove()
	}
	return Keep()
}

func Test_Visit_RemoveComments(t *testing.T) {
	mod := mustParse(t, "# leading\nx = 1  # inline\n")
	out, err := mod.Visit(dropComments{})
	if err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	// The comment goes; the whitespace that carried it stays.
	if got := out.Code(); got != "\nx = 1  \n" {
		t.Fatalf("Code = %q", got)
	}
}

type removeAllNames struct{ TransformBase }

func (removeAllNames) OnLeave(_, updated Node) Rewrite {
	if _, ok := updated.(*Name); ok {
		return Remove()
	}
	return Keep()
}

type nameToPass struct{ TransformBase }

func (nameToPass) OnLeave(_, updated Node) Rewrite {
	if _, ok := updated.(*Name); ok {
		return Replace(&Pass{})
	}
	return Keep()
}

type removeModule struct{ TransformBase }

func (removeModule) OnLeave(_, updated Node) Rewrite {
	if _, ok := updated.(*Module); ok {
		return Remove()
	}
	return Keep()
}

func Test_Visit_ProtocolErrors(t *testing.T) {
	cases := []struct {
		name      string
		transform Transform
		fragment  string
	}{
		{"remove from required slot", removeAllNames{}, "cannot remove or flatten"},
		{"wrong replacement kind", nameToPass{}, "wrong kind"},
		{"remove the module", removeModule{}, "cannot be removed or flattened"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod := mustParse(t, "x = y\n")
			_, err := mod.Visit(tc.transform)
			if err == nil {
				t.Fatalf("expected protocol error")
			}
			var re *RewriteError
			if !errors.As(err, &re) {
				t.Fatalf("error is %T, want *RewriteError", err)
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.fragment)
			}
		})
	}
}

type hookRecorder struct {
	TransformBase
	events []string
}

func (h *hookRecorder) OnEnter(n Node) bool {
	if _, ok := n.(*FunctionDef); ok {
		h.events = append(h.events, "enter-def")
	}
	return true
}

func (h *hookRecorder) OnLeave(_, updated Node) Rewrite {
	switch updated.(type) {
	case *Param:
		h.events = append(h.events, "param")
	case *SimpleStatementLine:
		h.events = append(h.events, "stmt")
	case *FunctionDef:
		h.events = append(h.events, "leave-def")
	}
	return Keep()
}

func (h *hookRecorder) OnEnterBody(parent Node) {
	if _, ok := parent.(*FunctionDef); ok {
		h.events = append(h.events, "enter-body")
	}
}

func (h *hookRecorder) OnLeaveBody(parent Node) {
	if _, ok := parent.(*FunctionDef); ok {
		h.events = append(h.events, "leave-body")
	}
}

func Test_Visit_BodyHookOrdering(t *testing.T) {
	mod := mustParse(t, "def f(a, b):\n    x = 1\n    return x\n")
	rec := &hookRecorder{}
	if _, err := mod.Visit(rec); err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	want := []string{
		"enter-def",
		"param", "param",
		"enter-body",
		"stmt", "stmt",
		"leave-body",
		"leave-def",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
}

func Test_Visit_InputTreeSurvivesDestructiveTransform(t *testing.T) {
	src := "x = 1\ndef f():\n    pass\n"
	mod := mustParse(t, src)
	if _, err := mod.Visit(dropPassLines{}); err != nil {
		t.Fatalf("Visit error: %v", err)
	}
	if got := mod.Code(); got != src {
		t.Fatalf("input tree changed after visit: %q", got)
	}
}
