// typecomment.go — recognition and decoding of "# type:" comments.
//
// A type comment is a trailing comment whose text after the '#' starts
// with "type:". Two payload grammars exist:
//
//   - statement form: a single type expression, or a bare tuple of type
//     expressions ("int", "int, str") — decoded with the ordinary
//     expression grammar via ParseExpression;
//   - function form: "(T1, T2) -> R", where the argument list may be the
//     single placeholder "..." meaning unspecified argument types.
//
// "type: ignore" comments are suppression markers for type checkers, not
// annotations, and are never treated as type comments here.
//
// Decoding is always non-fatal: a malformed payload decodes to nothing,
// and callers leave the enclosing statement untouched.
package pycst

import "strings"

/* ===========================
   PUBLIC API
   =========================== */

// IsTypeComment reports whether the comment is a convertible type
// comment. "type: ignore" is excluded.
func IsTypeComment(c *Comment) bool {
	_, ok := TypeCommentPayload(c)
	return ok
}

// TypeCommentPayload returns the annotation text of a type comment: the
// trimmed remainder after "type:". ok is false for nil comments, ordinary
// comments, and "type: ignore".
func TypeCommentPayload(c *Comment) (string, bool) {
	if c == nil {
		return "", false
	}
	value := strings.TrimSpace(strings.TrimPrefix(c.Value, "#"))
	if !strings.HasPrefix(value, "type:") {
		return "", false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(value, "type:"))
	if fields := strings.Fields(payload); len(fields) > 0 && fields[0] == "ignore" {
		return "", false
	}
	return payload, true
}

// DecodeTypeComment parses a statement-form type comment payload into an
// expression. A bare tuple payload ("int, str") decodes to a Tuple. The
// second result is false when the payload does not parse.
func DecodeTypeComment(payload string) (Expression, bool) {
	if payload == "" {
		return nil, false
	}
	expr, err := ParseExpression(payload)
	if err != nil {
		return nil, false
	}
	return expr, true
}

// FuncTypeComment is the decoded function-form payload "(T1, T2) -> R".
type FuncTypeComment struct {
	// ArgTypes are the declared parameter types in order. Empty when
	// EllipsisArgs is set.
	ArgTypes []Expression
	// EllipsisArgs marks the "(...) -> R" placeholder form, which
	// declares only the return type.
	EllipsisArgs bool
	Returns      Expression
}

// DecodeFuncTypeComment parses a function-form type comment payload. The
// second result is false when the payload does not parse.
func DecodeFuncTypeComment(payload string) (*FuncTypeComment, bool) {
	p := &parser{src: payload}
	p.parseSimpleWS()
	if !p.take("(") {
		return nil, false
	}
	p.parens++
	out := &FuncTypeComment{}
	if _, err := p.parseWS(); err != nil {
		return nil, false
	}
	for p.peekByte() != ')' {
		expr, err := p.parseExpr(1)
		if err != nil {
			return nil, false
		}
		out.ArgTypes = append(out.ArgTypes, expr)
		if _, err := p.parseWS(); err != nil {
			return nil, false
		}
		if p.peekByte() == ',' {
			p.pos++
			if _, err := p.parseWS(); err != nil {
				return nil, false
			}
			continue
		}
		break
	}
	if !p.take(")") {
		return nil, false
	}
	p.parens--
	if len(out.ArgTypes) == 1 {
		if _, isEllipsis := out.ArgTypes[0].(*Ellipsis); isEllipsis {
			out.EllipsisArgs = true
			out.ArgTypes = nil
		}
	}
	p.parseSimpleWS()
	if !p.take("->") {
		return nil, false
	}
	p.parseSimpleWS()
	returns, err := p.parseExpr(1)
	if err != nil {
		return nil, false
	}
	out.Returns = returns
	p.parseSimpleWS()
	if !p.atEOF() {
		return nil, false
	}
	return out, true
}
