package ruleengine

import (
	"context"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// Executor resolves and invokes a rule's ordered action list. Actions run
// strictly sequentially: later actions may depend on placeholders produced
// by earlier ones.
type Executor struct {
	registry *Registry
	logger   logger.Logger
}

func NewExecutor(registry *Registry, log logger.Logger) *Executor {
	return &Executor{registry: registry, logger: log}
}

// HandleActions dispatches each action in order. An unresolved action name
// is skipped and logged so one misconfigured action cannot block the rest
// of the rule; the same applies to an action that fails at runtime.
// Actions share a placeholder scope seeded with the registry's statics:
// fragments returned by earlier actions merge into it and are visible to
// later ones, then the scope dies with the invocation. Fragments also
// accumulate into the returned map. The only hard failure is context
// cancellation.
func (e *Executor) HandleActions(ctx context.Context, integ *Integrations, actions []Action, payload *models.ProductEventPayload) (models.PlaceholdersMap, error) {
	combined := make(models.PlaceholdersMap)
	scope := e.registry.Placeholders()

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return combined, err
		}

		fn, ok := e.registry.Action(action.Name)
		if !ok {
			e.logger.WarnwCtx(ctx, "Action is not registered, skipping", "action", action.Name)
			metrics.ActionsExecutedTotal.WithLabelValues(action.Name, "skipped").Inc()
			continue
		}

		fragment, err := fn(ctx, integ, payload, action.Value, scope)
		if err != nil {
			e.logger.ErrorwCtx(ctx, "Action failed",
				"action", action.Name,
				"error", err,
			)
			metrics.ActionsExecutedTotal.WithLabelValues(action.Name, "error").Inc()
			continue
		}

		metrics.ActionsExecutedTotal.WithLabelValues(action.Name, "ok").Inc()

		if len(fragment) > 0 {
			combined.Merge(fragment)
			scope.Merge(fragment)
		}
	}

	return combined, nil
}
