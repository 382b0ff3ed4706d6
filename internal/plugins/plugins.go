// Package plugins provides the default capability bundle registered into
// a rule-engine registry at startup: operators, trigger-actions,
// conditions, actions and dynamic placeholders.
package plugins

import (
	"github.com/freshdesk/jaya-lib/internal/ruleengine"
)

// Deps carries what the default bundle needs beyond the per-event
// integrations.
type Deps struct {
	Registry  *ruleengine.Registry
	Resolver  *ruleengine.PlaceholderResolver
	EmailFrom string
}

// Default assembles the recommended plugin bundle.
func Default(deps Deps) ruleengine.Plugin {
	evaluator := ruleengine.NewEvaluator(deps.Registry)

	return ruleengine.Plugin{
		Operators:           operators(),
		TriggerActions:      triggerActions(),
		Conditions:          conditions(evaluator),
		Actions:             actions(deps.Resolver, deps.EmailFrom),
		DynamicPlaceholders: dynamicPlaceholders(),
	}
}
