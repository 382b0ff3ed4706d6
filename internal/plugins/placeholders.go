package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freshdesk/jaya-lib/internal/freshchat"
	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

func dynamicPlaceholders() map[string]ruleengine.DynamicPlaceholderFunc {
	return map[string]ruleengine.DynamicPlaceholderFunc{
		"transcript.entire_conversation": transcriptPlaceholder,
		"metrics.average_wait_time":      averageWaitTimePlaceholder,
		"metrics.unassigned_count":       unassignedCountPlaceholder,
		"user.first_name":                userFirstNamePlaceholder,
		"user.email": func(_ context.Context, payload *models.ProductEventPayload, _ *ruleengine.Integrations) (string, error) {
			return payload.Data.Associations.User.Email, nil
		},
	}
}

func transcriptPlaceholder(ctx context.Context, payload *models.ProductEventPayload, integ *ruleengine.Integrations) (string, error) {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return "", err
	}

	return integ.Freshchat.GetConversationTranscript(ctx,
		"https://"+payload.Domain,
		props.AppID,
		props.ConversationID,
		freshchat.TranscriptOptions{
			IncludeFreshchatLink: true,
			Output:               "text",
			TimezoneOffset:       integ.TimezoneOffset,
		},
	)
}

func averageWaitTimePlaceholder(ctx context.Context, payload *models.ProductEventPayload, integ *ruleengine.Integrations) (string, error) {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return "", err
	}

	waitTime, err := integ.Freshchat.GetAverageWaitTimeGivenGroupID(ctx, props.AssignedGroupID)
	if err != nil {
		return "", err
	}
	return waitTime.Round(time.Second).String(), nil
}

func unassignedCountPlaceholder(ctx context.Context, payload *models.ProductEventPayload, integ *ruleengine.Integrations) (string, error) {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return "", err
	}

	count, err := integ.Freshchat.GetUnassignedCountGivenGroupID(ctx, props.AssignedGroupID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", count), nil
}

// userFirstNamePlaceholder falls back to "there" so greeting templates
// stay usable for anonymous visitors.
func userFirstNamePlaceholder(_ context.Context, payload *models.ProductEventPayload, _ *ruleengine.Integrations) (string, error) {
	name := strings.TrimSpace(payload.Data.Associations.User.FirstName)
	if name == "" {
		return "there", nil
	}
	return name, nil
}
