package plugins

import (
	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

func triggerFor(want models.Event) ruleengine.TriggerActionFunc {
	return func(event models.Event, _ *models.ProductEventData) bool {
		return event == want
	}
}

func triggerActions() map[string]ruleengine.TriggerActionFunc {
	return map[string]ruleengine.TriggerActionFunc{
		"conversation_create":     triggerFor(models.EventConversationCreate),
		"conversation_update":     triggerFor(models.EventConversationUpdate),
		"conversation_resolution": triggerFor(models.EventConversationResolve),
		"conversation_reopen":     triggerFor(models.EventConversationReopen),
		"message_create":          triggerFor(models.EventMessageCreate),
		"user_create":             triggerFor(models.EventUserCreate),
		"message_create_by_user": func(event models.Event, data *models.ProductEventData) bool {
			return event == models.EventMessageCreate && data.Actor.Type == models.ActorTypeUser
		},
		"message_create_by_agent": func(event models.Event, data *models.ProductEventData) bool {
			return event == models.EventMessageCreate && data.Actor.Type == models.ActorTypeAgent
		},
	}
}
