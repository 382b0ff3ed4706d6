package ruleengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshdesk/jaya-lib/pkg/models"
)

func TestRegistryMergesPlugins(t *testing.T) {
	first := Plugin{
		Operators: map[string]OperatorFunc{
			"equals": func(op1, op2 string, _ *Integrations) (bool, error) {
				return op1 == op2, nil
			},
		},
		Placeholders: models.PlaceholdersMap{"agent.name": "Ann"},
	}
	second := Plugin{
		Operators: map[string]OperatorFunc{
			"contains": func(op1, op2 string, _ *Integrations) (bool, error) {
				return false, nil
			},
		},
		Placeholders: models.PlaceholdersMap{"agent.email": "ann@example.com"},
	}

	r := NewRegistry(first, second)

	_, ok := r.Operator("equals")
	assert.True(t, ok)
	_, ok = r.Operator("contains")
	assert.True(t, ok)

	v, ok := r.Placeholder("agent.name")
	require.True(t, ok)
	assert.Equal(t, "Ann", v)
	v, ok = r.Placeholder("agent.email")
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", v)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry(Plugin{
		Placeholders: models.PlaceholdersMap{"user.first_name": "old"},
	})
	r.RegisterPlugins(Plugin{
		Placeholders: models.PlaceholdersMap{"user.first_name": "new"},
	})

	v, ok := r.Placeholder("user.first_name")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry(Plugin{
		Actions: map[string]ActionFunc{
			"noop": func(context.Context, *Integrations, *models.ProductEventPayload, interface{}, models.PlaceholdersMap) (models.PlaceholdersMap, error) {
				return nil, nil
			},
		},
		Placeholders: models.PlaceholdersMap{"k": "v"},
	})

	r.Reset()

	_, ok := r.Action("noop")
	assert.False(t, ok)
	_, ok = r.Placeholder("k")
	assert.False(t, ok)
	assert.Empty(t, r.Placeholders())
}

func TestRegistryPlaceholdersReturnsCopy(t *testing.T) {
	r := NewRegistry(Plugin{
		Placeholders: models.PlaceholdersMap{"k": "v"},
	})

	snapshot := r.Placeholders()
	snapshot["k"] = "mutated"
	snapshot["extra"] = "x"

	v, ok := r.Placeholder("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	_, ok = r.Placeholder("extra")
	assert.False(t, ok)
}

func TestRegistryDynamicPlaceholderKeys(t *testing.T) {
	r := NewRegistry(Plugin{
		DynamicPlaceholders: map[string]DynamicPlaceholderFunc{
			"user.email": func(context.Context, *models.ProductEventPayload, *Integrations) (string, error) {
				return "", nil
			},
			"user.first_name": func(context.Context, *models.ProductEventPayload, *Integrations) (string, error) {
				return "", nil
			},
		},
	})

	assert.ElementsMatch(t, []string{"user.email", "user.first_name"}, r.DynamicPlaceholderKeys())
}
