package ruleengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
)

func TestNormalizeOperand(t *testing.T) {
	tests := []struct {
		name    string
		operand string
		want    string
	}{
		{name: "trims whitespace", operand: "  resolved  ", want: "resolved"},
		{name: "lowercases", operand: "RESOLVED", want: "resolved"},
		{name: "both", operand: " Foo Bar ", want: "foo bar"},
		{name: "empty stays empty", operand: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOperand(tt.operand))
		})
	}
}

func TestEvaluateConditionNormalizesBothOperands(t *testing.T) {
	r := NewRegistry(Plugin{
		Operators: map[string]OperatorFunc{
			"equals": func(op1, op2 string, _ *Integrations) (bool, error) {
				return op1 == op2, nil
			},
		},
	})
	e := NewEvaluator(r)

	matched, err := e.EvaluateCondition(context.Background(), "equals", " Foo ", "foo", nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestEvaluateConditionUnknownOperator(t *testing.T) {
	e := NewEvaluator(NewRegistry())

	matched, err := e.EvaluateCondition(context.Background(), "fuzzy_match", "a", "b", nil)
	assert.False(t, matched)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUnknownOperator(err))
}

func TestEvaluateConditionCancelledContext(t *testing.T) {
	r := NewRegistry(Plugin{
		Operators: map[string]OperatorFunc{
			"equals": func(op1, op2 string, _ *Integrations) (bool, error) {
				return op1 == op2, nil
			},
		},
	})
	e := NewEvaluator(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EvaluateCondition(ctx, "equals", "a", "a", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
