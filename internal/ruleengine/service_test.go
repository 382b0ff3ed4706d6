package ruleengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

type fakeRepository struct {
	rules   []Rule
	created []*Rule
	err     error
}

func (f *fakeRepository) GetRulesByApp(_ context.Context, appID string) ([]Rule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Rule
	for _, r := range f.rules {
		if r.AppID == appID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateRule(_ context.Context, rule *Rule) error {
	f.created = append(f.created, rule)
	return nil
}

func serviceFixture(t *testing.T, rules []Rule) (*Service, *fakeSchedulerAPI, *Registry) {
	t.Helper()

	registry := NewRegistry(Plugin{
		TriggerActions: map[string]TriggerActionFunc{
			"message_create": func(event models.Event, _ *models.ProductEventData) bool {
				return event == models.EventMessageCreate
			},
			"conversation_resolution": func(event models.Event, _ *models.ProductEventData) bool {
				return event == models.EventConversationResolve
			},
		},
	})

	repo := &fakeRepository{rules: rules}
	api := &fakeSchedulerAPI{existing: make(map[string]*scheduler.Schedule)}

	svc := NewService(repo, registry, api, newFakeClaimer(), nil, "https://engine.example.com/hooks/timer-callback", logger.NopLogger())
	return svc, api, registry
}

func TestProcessEventRunsImmediateRules(t *testing.T) {
	var ran []string
	rules := []Rule{
		{ID: "r1", AppID: "app1", IsEnabled: true, TriggerActions: []string{"message_create"}, Actions: []Action{{Name: "mark"}}},
		{ID: "r2", AppID: "app1", IsEnabled: false, TriggerActions: []string{"message_create"}, Actions: []Action{{Name: "mark"}}},
		{ID: "r3", AppID: "other", IsEnabled: true, TriggerActions: []string{"message_create"}, Actions: []Action{{Name: "mark"}}},
	}

	svc, _, registry := serviceFixture(t, rules)
	registry.RegisterPlugins(Plugin{
		Actions: map[string]ActionFunc{
			"mark": func(_ context.Context, _ *Integrations, payload *models.ProductEventPayload, _ interface{}, _ models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				props, err := payload.Data.ModelProperties()
				require.NoError(t, err)
				ran = append(ran, props.AppID)
				return nil, nil
			},
		},
	})

	require.NoError(t, svc.ProcessEvent(context.Background(), messageEvent()))

	// Only the enabled rule for this app runs.
	assert.Equal(t, []string{"app1"}, ran)
}

func TestProcessEventSchedulesTimerRules(t *testing.T) {
	rules := []Rule{
		{ID: "r1", AppID: "app1", IsEnabled: true, IsTimer: true, TimerValue: 120, TriggerActions: []string{"message_create"}},
	}

	svc, api, _ := serviceFixture(t, rules)
	require.NoError(t, svc.ProcessEvent(context.Background(), messageEvent()))

	require.Len(t, api.created, 1)
	assert.Equal(t, "app1_conv1_r1", api.created[0].JobID)
	assert.Equal(t, "https://engine.example.com/hooks/timer-callback", api.created[0].WebhookURL)
}

func TestProcessEventInvalidatesBeforeScheduling(t *testing.T) {
	rules := []Rule{
		{
			ID:         "r1",
			AppID:      "app1",
			IsEnabled:  true,
			IsTimer:    true,
			TimerValue: 60,
			// Trigger and invalidator both match message_create: the
			// pending schedule is cancelled and a fresh one created.
			TriggerActions: []string{"message_create"},
			Invalidators:   &ConditionSet{TriggerActions: []string{"message_create"}},
		},
	}

	svc, api, _ := serviceFixture(t, rules)
	require.NoError(t, svc.ProcessEvent(context.Background(), messageEvent()))

	require.Len(t, api.bulkDel, 1)
	assert.Equal(t, []string{"app1_conv1_r1"}, api.bulkDel[0])
	require.Len(t, api.created, 1)
}

func TestProcessEventInvalidPayload(t *testing.T) {
	svc, _, _ := serviceFixture(t, nil)

	err := svc.ProcessEvent(context.Background(), &models.ProductEventPayload{Event: models.EventMessageCreate})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrInvalidEvent.Code))
}

func TestHandleTimerCallback(t *testing.T) {
	var ran bool
	rules := []Rule{
		{ID: "r1", AppID: "app1", IsEnabled: true, IsTimer: true, TimerValue: 60, Actions: []Action{{Name: "mark"}}},
	}

	svc, api, registry := serviceFixture(t, rules)
	registry.RegisterPlugins(Plugin{
		Actions: map[string]ActionFunc{
			"mark": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				ran = true
				return nil, nil
			},
		},
	})

	require.NoError(t, svc.HandleTimerCallback(context.Background(), firedCallback("r1", 0)))
	assert.True(t, ran)
	assert.Equal(t, []string{"app1_conv1_x"}, api.deleted)
}

func TestServiceRuleCRUD(t *testing.T) {
	svc, _, _ := serviceFixture(t, []Rule{{ID: "r1", AppID: "app1"}})

	rules, err := svc.ListRules(context.Background(), "app1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)

	require.NoError(t, svc.CreateRule(context.Background(), &Rule{AppID: "app1", Name: "greet"}))
}

func TestCreateRuleAssignsNextPosition(t *testing.T) {
	svc, _, _ := serviceFixture(t, []Rule{
		{ID: "r1", AppID: "app1", Position: 1},
		{ID: "r2", AppID: "app1", Position: 2},
		{ID: "r9", AppID: "other", Position: 9},
	})

	appended := &Rule{AppID: "app1", Name: "greet"}
	require.NoError(t, svc.CreateRule(context.Background(), appended))
	assert.Equal(t, 3, appended.Position, "new rule must evaluate after the app's existing rules")

	// An explicit position is kept as configured.
	pinned := &Rule{AppID: "app1", Name: "escalate", Position: 1}
	require.NoError(t, svc.CreateRule(context.Background(), pinned))
	assert.Equal(t, 1, pinned.Position)
}
