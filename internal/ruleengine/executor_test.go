package ruleengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

func TestHandleActionsRunsSequentially(t *testing.T) {
	var order []string
	registry := NewRegistry(Plugin{
		Actions: map[string]ActionFunc{
			"first": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				order = append(order, "first")
				return nil, nil
			},
			"second": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				order = append(order, "second")
				return nil, nil
			},
		},
	})
	e := NewExecutor(registry, logger.NopLogger())

	actions := []Action{{Name: "first"}, {Name: "second"}, {Name: "first"}}
	_, err := e.HandleActions(context.Background(), nil, actions, &models.ProductEventPayload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestHandleActionsSkipsUnknownAndContinuesOnError(t *testing.T) {
	var ran []string
	registry := NewRegistry(Plugin{
		Actions: map[string]ActionFunc{
			"boom": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				ran = append(ran, "boom")
				return nil, errors.New("platform rejected the call")
			},
			"ok": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				ran = append(ran, "ok")
				return nil, nil
			},
		},
	})
	e := NewExecutor(registry, logger.NopLogger())

	actions := []Action{{Name: "missing"}, {Name: "boom"}, {Name: "ok"}}
	_, err := e.HandleActions(context.Background(), nil, actions, &models.ProductEventPayload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"boom", "ok"}, ran)
}

func TestHandleActionsAccumulatesPlaceholderFragments(t *testing.T) {
	// The second action must see what the first one produced, plus the
	// statics the registry was configured with.
	var seenTicket, seenBrand string
	registry := NewRegistry(Plugin{
		Placeholders: models.PlaceholdersMap{"brand.name": "Acme"},
		Actions: map[string]ActionFunc{
			"produce": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				return models.PlaceholdersMap{"ticket.id": "42"}, nil
			},
			"consume": func(_ context.Context, _ *Integrations, _ *models.ProductEventPayload, _ interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				seenTicket = scope["ticket.id"]
				seenBrand = scope["brand.name"]
				return models.PlaceholdersMap{"reply.sent": "yes"}, nil
			},
		},
	})

	e := NewExecutor(registry, logger.NopLogger())
	combined, err := e.HandleActions(context.Background(), nil, []Action{{Name: "produce"}, {Name: "consume"}}, &models.ProductEventPayload{})
	require.NoError(t, err)

	assert.Equal(t, "42", seenTicket)
	assert.Equal(t, "Acme", seenBrand)
	assert.Equal(t, models.PlaceholdersMap{"ticket.id": "42", "reply.sent": "yes"}, combined)
}

func TestHandleActionsFragmentsDoNotOutliveInvocation(t *testing.T) {
	registry := NewRegistry(Plugin{
		Actions: map[string]ActionFunc{
			"produce": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				return models.PlaceholdersMap{"ticket.id": "42"}, nil
			},
		},
	})
	e := NewExecutor(registry, logger.NopLogger())

	_, err := e.HandleActions(context.Background(), nil, []Action{{Name: "produce"}}, &models.ProductEventPayload{})
	require.NoError(t, err)

	// A fragment from one event's execution must not leak into the shared
	// registry where the next event would pick it up.
	_, ok := registry.Placeholder("ticket.id")
	assert.False(t, ok)

	var second models.PlaceholdersMap
	registry.RegisterPlugins(Plugin{
		Actions: map[string]ActionFunc{
			"observe": func(_ context.Context, _ *Integrations, _ *models.ProductEventPayload, _ interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				second = scope.Clone()
				return nil, nil
			},
		},
	})
	_, err = e.HandleActions(context.Background(), nil, []Action{{Name: "observe"}}, &models.ProductEventPayload{})
	require.NoError(t, err)
	assert.NotContains(t, second, "ticket.id")
}

func TestHandleActionsStopsOnCancelledContext(t *testing.T) {
	var ran int
	registry := NewRegistry(Plugin{
		Actions: map[string]ActionFunc{
			"count": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				ran++
				return nil, nil
			},
		},
	})
	e := NewExecutor(registry, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.HandleActions(ctx, nil, []Action{{Name: "count"}, {Name: "count"}}, &models.ProductEventPayload{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ran)
}
