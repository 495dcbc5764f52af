package faq

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// Filter is a compiled CEL predicate over an entry. Available variables:
// question, answer, category (string) and tags (list of string).
//
//	category == "fees" || "admissions" in tags
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter parses and type-checks expr. The expression must be boolean.
func CompileFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("question", cel.StringType),
		cel.Variable("answer", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the predicate for e.
func (f *Filter) Match(e store.FAQEntry) (bool, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := f.prg.Eval(map[string]any{
		"question": e.Question,
		"answer":   e.Answer,
		"category": e.Category,
		"tags":     tags,
	})
	if err != nil {
		return false, fmt.Errorf("eval filter: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T", out.Value())
	}
	return b, nil
}

// Apply keeps the entries the predicate accepts, preserving order.
func (f *Filter) Apply(entries []store.FAQEntry) ([]store.FAQEntry, error) {
	out := entries[:0:0]
	for _, e := range entries {
		ok, err := f.Match(e)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}
