package plugins

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/freshdesk/jaya-lib/internal/ruleengine"
)

// Operators are pure predicates over two already-normalized operands.
func operators() map[string]ruleengine.OperatorFunc {
	return map[string]ruleengine.OperatorFunc{
		"equals": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return op1 == op2, nil
		},
		"not_equals": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return op1 != op2, nil
		},
		"contains": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return strings.Contains(op1, op2), nil
		},
		"does_not_contain": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return !strings.Contains(op1, op2), nil
		},
		"starts_with": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return strings.HasPrefix(op1, op2), nil
		},
		"ends_with": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			return strings.HasSuffix(op1, op2), nil
		},
		"is_null": func(op1, _ string, _ *ruleengine.Integrations) (bool, error) {
			return op1 == "", nil
		},
		"is_not_null": func(op1, _ string, _ *ruleengine.Integrations) (bool, error) {
			return op1 != "", nil
		},
		"matches_regex": func(op1, op2 string, _ *ruleengine.Integrations) (bool, error) {
			re, err := regexp.Compile(op2)
			if err != nil {
				return false, fmt.Errorf("invalid regex %q: %w", op2, err)
			}
			return re.MatchString(op1), nil
		},
	}
}
