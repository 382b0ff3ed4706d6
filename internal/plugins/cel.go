package plugins

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// celCondition evaluates the condition value as a CEL expression over the
// event snapshot, for rules that need more than one field/operator pair.
// The expression must produce a bool.
func celCondition() ruleengine.ConditionFunc {
	env, envErr := cel.NewEnv(
		cel.Variable("actor_type", cel.StringType),
		cel.Variable("actor_id", cel.StringType),
		cel.Variable("app_id", cel.StringType),
		cel.Variable("conversation_id", cel.StringType),
		cel.Variable("channel_id", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("assigned_agent_id", cel.StringType),
		cel.Variable("assigned_group_id", cel.StringType),
		cel.Variable("message_text", cel.StringType),
		cel.Variable("user", cel.MapType(cel.StringType, cel.StringType)),
	)

	return func(ctx context.Context, cond ruleengine.Condition, data *models.ProductEventData, _ *ruleengine.Integrations) (bool, error) {
		if envErr != nil {
			return false, fmt.Errorf("failed to create CEL environment: %w", envErr)
		}

		props, err := data.ModelProperties()
		if err != nil {
			return false, err
		}

		ast, issues := env.Compile(cond.Value)
		if issues != nil && issues.Err() != nil {
			return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return false, fmt.Errorf("CEL condition must return bool, got %v", ast.OutputType())
		}

		program, err := env.Program(ast)
		if err != nil {
			return false, fmt.Errorf("failed to create CEL program: %w", err)
		}

		user := map[string]string{
			"id":         data.Associations.User.ID,
			"email":      data.Associations.User.Email,
			"first_name": data.Associations.User.FirstName,
			"last_name":  data.Associations.User.LastName,
		}
		for k, v := range data.Associations.User.Properties {
			user[k] = v
		}

		vars := map[string]interface{}{
			"actor_type":        string(data.Actor.Type),
			"actor_id":          data.Actor.ID,
			"app_id":            props.AppID,
			"conversation_id":   props.ConversationID,
			"channel_id":        props.ChannelID,
			"status":            string(props.Status),
			"assigned_agent_id": props.AssignedAgentID,
			"assigned_group_id": props.AssignedGroupID,
			"message_text":      props.MessageText,
			"user":              user,
		}

		result, _, err := program.ContextEval(ctx, vars)
		if err != nil {
			return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
		}

		boolVal, ok := result.Value().(bool)
		if !ok {
			return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
		}
		return boolVal, nil
	}
}
