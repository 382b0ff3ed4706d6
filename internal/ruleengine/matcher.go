package ruleengine

import (
	"context"

	"github.com/freshdesk/jaya-lib/internal/logger"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// Matcher decides whether a rule's trigger-action and condition sets match
// an incoming event. The (bool, error) return distinguishes "condition
// false" from "evaluator failed": a false condition is (false, nil), an
// unregistered operator or a cancelled context is (false, err).
type Matcher struct {
	registry *Registry
	logger   logger.Logger
}

func NewMatcher(registry *Registry, log logger.Logger) *Matcher {
	return &Matcher{registry: registry, logger: log}
}

// IsTriggerConditionMatching reports whether every trigger-action and
// every condition in the set evaluates true for the event. An empty set
// matches trivially. A condition check that fails at runtime counts as a
// non-match; only misconfiguration (unknown operator) surfaces as error.
func (m *Matcher) IsTriggerConditionMatching(ctx context.Context, event models.Event, data *models.ProductEventData, set ConditionSet, integ *Integrations) (bool, error) {
	for _, name := range set.TriggerActions {
		fn, ok := m.registry.TriggerAction(name)
		if !ok {
			m.logger.WarnwCtx(ctx, "Trigger action is not registered", "trigger_action", name)
			return false, nil
		}
		if !fn(event, data) {
			return false, nil
		}
	}

	for _, cond := range set.Conditions {
		matched, err := m.checkCondition(ctx, cond, data, integ)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}

	return true, nil
}

func (m *Matcher) checkCondition(ctx context.Context, cond Condition, data *models.ProductEventData, integ *Integrations) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fn, ok := m.registry.Condition(cond.Name)
	if !ok {
		m.logger.WarnwCtx(ctx, "Condition check is not registered", "condition", cond.Name)
		return false, nil
	}

	matched, err := fn(ctx, cond, data, integ)
	if err != nil {
		if pkgerrors.IsUnknownOperator(err) {
			return false, err
		}
		// A crashed condition check is a non-match, not a fatal error.
		m.logger.WarnwCtx(ctx, "Condition check failed, treating as non-match",
			"condition", cond.Name,
			"operator", cond.Operator,
			"error", err,
		)
		return false, nil
	}
	return matched, nil
}

// IsRuleMatching combines trigger-action and condition matching for one
// rule against the incoming event.
func (m *Matcher) IsRuleMatching(ctx context.Context, event models.Event, data *models.ProductEventData, rule Rule, integ *Integrations) (bool, error) {
	set := ConditionSet{
		TriggerActions: rule.TriggerActions,
		Conditions:     rule.Conditions,
	}

	matched, err := m.IsTriggerConditionMatching(ctx, event, data, set, integ)
	if err != nil {
		metrics.RulesMatchedTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if matched {
		metrics.RulesMatchedTotal.WithLabelValues("match").Inc()
	} else {
		metrics.RulesMatchedTotal.WithLabelValues("no_match").Inc()
	}
	return matched, nil
}
