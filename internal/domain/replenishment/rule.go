// Package replenishment flags products whose stock needs reordering.
// The trigger condition is a configurable CEL expression, so operators
// can tune it without a redeploy.
package replenishment

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"lotledger/internal/core/apperror"
	"lotledger/internal/domain/catalogs/product"
)

// DefaultExpression triggers when stock falls to the reorder point.
const DefaultExpression = `reorder_point > 0.0 && current_stock <= reorder_point`

// Rule is a compiled replenishment trigger.
//
// The expression sees these variables:
//
//	current_stock  double  cached stock of the product
//	reorder_point  double  configured reorder point
//	category       string  product category
type Rule struct {
	expression string
	program    cel.Program
}

// Compile parses and type-checks the expression. The expression must
// evaluate to a boolean.
func Compile(expression string) (*Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("current_stock", cel.DoubleType),
		cel.Variable("reorder_point", cel.DoubleType),
		cel.Variable("category", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid replenishment rule").
			WithDetail("expression", expression).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("replenishment rule must evaluate to a boolean").
			WithDetail("expression", expression).
			WithDetail("type", ast.OutputType().String())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}

	return &Rule{expression: expression, program: program}, nil
}

// MustCompile compiles the expression or panics. For package defaults.
func MustCompile(expression string) *Rule {
	r, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return r
}

// Expression returns the source expression of the rule.
func (r *Rule) Expression() string {
	return r.expression
}

// Matches evaluates the rule against a product.
func (r *Rule) Matches(p *product.Product) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{
		"current_stock": p.CurrentStock.Float64(),
		"reorder_point": p.ReorderPoint.Float64(),
		"category":      string(p.Category),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate replenishment rule: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewInvariantViolation("replenishment rule returned non-boolean").
			WithDetail("expression", r.expression)
	}
	return matched, nil
}
