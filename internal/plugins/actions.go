package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freshdesk/jaya-lib/internal/email"
	"github.com/freshdesk/jaya-lib/internal/freshchat"
	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// SendEmailValue is the configured value of the send_email_anyone action.
type SendEmailValue struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

func actions(resolver *ruleengine.PlaceholderResolver, emailFrom string) map[string]ruleengine.ActionFunc {
	return map[string]ruleengine.ActionFunc{
		"assign_to_agent":      assignToAgent,
		"send_message":         sendMessage(resolver),
		"send_message_once":    sendMessageOnce(resolver),
		"send_private_note":    sendPrivateNote(resolver),
		"send_email_anyone":    sendEmailAnyone(resolver, emailFrom),
		"update_user_email":    updateUserEmail(resolver),
		"resolve_conversation": statusUpdate(models.ConversationStatusResolved),
		"reopen_conversation":  statusUpdate(models.ConversationStatusNew),
	}
}

// assignToAgent assigns the conversation. Sentinel values: "-2" assigns to
// the acting agent (an error when the actor is a user), "-1" unassigns and
// moves the conversation back to new, anything else is an agent id.
func assignToAgent(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, actionValue interface{}, _ models.PlaceholdersMap) (models.PlaceholdersMap, error) {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return nil, err
	}

	value := fmt.Sprintf("%v", actionValue)
	assignedAgentID := ""
	status := models.ConversationStatusAssigned

	switch value {
	case "-2":
		if payload.Data.Actor.Type != models.ActorTypeAgent {
			return nil, fmt.Errorf("event performing actor is a user, cannot assign conversation to user")
		}
		assignedAgentID = payload.Data.Actor.ID
	case "-1":
		status = models.ConversationStatusNew
	default:
		assignedAgentID = value
	}

	_, err = integ.Freshchat.ConversationAssign(ctx, props.ConversationID, assignedAgentID, freshchat.AssignToAgent, status)
	return nil, err
}

func sendMessage(resolver *ruleengine.PlaceholderResolver) ruleengine.ActionFunc {
	return postMessage(resolver, freshchat.MessageTypeNormal)
}

func sendPrivateNote(resolver *ruleengine.PlaceholderResolver) ruleengine.ActionFunc {
	return postMessage(resolver, freshchat.MessageTypePrivate)
}

// sendMessageOnce posts the configured message at most once per
// conversation, so a rule firing on every message cannot greet the same
// visitor repeatedly. The guard key lives in the key/value store.
func sendMessageOnce(resolver *ruleengine.PlaceholderResolver) ruleengine.ActionFunc {
	send := postMessage(resolver, freshchat.MessageTypeNormal)

	return func(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, actionValue interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
		if integ.Storage == nil {
			return send(ctx, integ, payload, actionValue, scope)
		}

		props, err := payload.Data.ModelProperties()
		if err != nil {
			return nil, err
		}

		key := fmt.Sprintf("sent_once:%s_%s_%v", props.AppID, props.ConversationID, actionValue)
		sent, err := integ.Storage.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if sent != "" {
			return nil, nil
		}

		fragment, err := send(ctx, integ, payload, actionValue, scope)
		if err != nil {
			return nil, err
		}
		return fragment, integ.Storage.Save(ctx, key, "1")
	}
}

func postMessage(resolver *ruleengine.PlaceholderResolver, messageType freshchat.MessageType) ruleengine.ActionFunc {
	return func(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, actionValue interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
		props, err := payload.Data.ModelProperties()
		if err != nil {
			return nil, err
		}

		template := fmt.Sprintf("%v", actionValue)
		resolver.SetupDynamicPlaceholders(ctx, template, payload, integ, scope)
		text := ruleengine.FindAndReplacePlaceholders(template, scope)

		_, err = integ.Freshchat.PostMessage(ctx, props.ConversationID, text, messageType)
		return nil, err
	}
}

func sendEmailAnyone(resolver *ruleengine.PlaceholderResolver, emailFrom string) ruleengine.ActionFunc {
	return func(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, actionValue interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
		if integ.Email == nil {
			return nil, fmt.Errorf("no email service integration")
		}

		props, err := payload.Data.ModelProperties()
		if err != nil {
			return nil, err
		}

		var value SendEmailValue
		if err := decodeActionValue(actionValue, &value); err != nil {
			return nil, err
		}

		scanText := strings.Join(append([]string{value.Subject, value.Body}, value.To...), " ")
		resolver.SetupDynamicPlaceholders(ctx, scanText, payload, integ, scope)

		to := make([]email.Recipient, 0, len(value.To))
		for _, addr := range value.To {
			to = append(to, email.Recipient{
				Email: ruleengine.FindAndReplacePlaceholders(addr, scope),
			})
		}

		// Keep configured line breaks visible in HTML mail.
		body := strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>").Replace(value.Body)

		return nil, integ.Email.Send(ctx, email.SendRequest{
			AccountID: props.AppID,
			From: email.Recipient{
				Email: emailFrom,
				Name:  "Freshchat Automations",
			},
			To:      to,
			Subject: ruleengine.FindAndReplacePlaceholders(value.Subject, scope),
			HTML:    ruleengine.FindAndReplacePlaceholders(body, scope),
		})
	}
}

func updateUserEmail(resolver *ruleengine.PlaceholderResolver) ruleengine.ActionFunc {
	return func(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, actionValue interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
		template := fmt.Sprintf("%v", actionValue)
		resolver.SetupDynamicPlaceholders(ctx, template, payload, integ, scope)
		address := ruleengine.FindAndReplacePlaceholders(template, scope)

		return nil, integ.Freshchat.UpdateUser(ctx, payload.Data.Associations.User.ID, map[string]string{
			"email": address,
		})
	}
}

func statusUpdate(status models.ConversationStatus) ruleengine.ActionFunc {
	return func(ctx context.Context, integ *ruleengine.Integrations, payload *models.ProductEventPayload, _ interface{}, _ models.PlaceholdersMap) (models.PlaceholdersMap, error) {
		props, err := payload.Data.ModelProperties()
		if err != nil {
			return nil, err
		}
		_, err = integ.Freshchat.ConversationStatusUpdate(ctx, props.ConversationID, status)
		return nil, err
	}
}

// decodeActionValue converts a stored action value (bson/json map) into a
// typed struct via a JSON round trip.
func decodeActionValue(value interface{}, out interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("invalid action value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid action value: %w", err)
	}
	return nil
}
