package plugins

import (
	"context"

	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// fieldCondition evaluates the configured operator against one normalized
// model field.
func fieldCondition(evaluator *ruleengine.Evaluator, field func(*models.ProductEventData) (string, error)) ruleengine.ConditionFunc {
	return func(ctx context.Context, cond ruleengine.Condition, data *models.ProductEventData, integ *ruleengine.Integrations) (bool, error) {
		value, err := field(data)
		if err != nil {
			return false, err
		}
		return evaluator.EvaluateCondition(ctx, cond.Operator, value, cond.Value, integ)
	}
}

func modelField(pick func(*models.ModelProperties) string) func(*models.ProductEventData) (string, error) {
	return func(data *models.ProductEventData) (string, error) {
		props, err := data.ModelProperties()
		if err != nil {
			return "", err
		}
		return pick(props), nil
	}
}

func conditions(evaluator *ruleengine.Evaluator) map[string]ruleengine.ConditionFunc {
	return map[string]ruleengine.ConditionFunc{
		"status": fieldCondition(evaluator, modelField(func(p *models.ModelProperties) string {
			return string(p.Status)
		})),
		"assigned_agent_id": fieldCondition(evaluator, modelField(func(p *models.ModelProperties) string {
			return p.AssignedAgentID
		})),
		"assigned_group_id": fieldCondition(evaluator, modelField(func(p *models.ModelProperties) string {
			return p.AssignedGroupID
		})),
		"channel": fieldCondition(evaluator, modelField(func(p *models.ModelProperties) string {
			return p.ChannelID
		})),
		"message_text": fieldCondition(evaluator, modelField(func(p *models.ModelProperties) string {
			return p.MessageText
		})),
		"user_email": fieldCondition(evaluator, func(data *models.ProductEventData) (string, error) {
			return data.Associations.User.Email, nil
		}),
		"actor_type": fieldCondition(evaluator, func(data *models.ProductEventData) (string, error) {
			return string(data.Actor.Type), nil
		}),
		"cel": celCondition(),
	}
}
