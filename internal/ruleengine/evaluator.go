package ruleengine

import (
	"context"
	"strings"

	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
)

// Evaluator applies a registered operator to two normalized operands.
type Evaluator struct {
	registry *Registry
}

func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// NormalizeOperand trims and lower-cases an operand. Empty input stays the
// empty string, so absent fields compare like empty values.
func NormalizeOperand(operand string) string {
	return strings.ToLower(strings.TrimSpace(operand))
}

// EvaluateCondition looks up the named operator and invokes it with both
// operands normalized. A missing operator is a hard failure: matching
// cannot proceed without it and the caller must not swallow it.
func (e *Evaluator) EvaluateCondition(ctx context.Context, operator, operand1, operand2 string, integ *Integrations) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fn, ok := e.registry.Operator(operator)
	if !ok {
		return false, pkgerrors.ErrUnknownOperator.WithDetail("operator", operator)
	}

	return fn(NormalizeOperand(operand1), NormalizeOperand(operand2), integ)
}
