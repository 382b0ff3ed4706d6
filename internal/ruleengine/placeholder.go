package ruleengine

import (
	"context"
	"strings"

	"github.com/freshdesk/jaya-lib/internal/constants"
	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// Resolution records the outcome of one dynamic placeholder lookup. A
// failed lookup leaves Err set; the batch as a whole never aborts on a
// single key.
type Resolution struct {
	Key   string
	Value string
	Err   error
}

// PlaceholderResolver resolves dynamic placeholder tokens found in free
// text and substitutes known tokens into templates.
type PlaceholderResolver struct {
	registry *Registry
	logger   logger.Logger
}

func NewPlaceholderResolver(registry *Registry, log logger.Logger) *PlaceholderResolver {
	return &PlaceholderResolver{registry: registry, logger: log}
}

// NewScope builds a fresh per-event placeholder scope seeded with the
// registry's static placeholders. Every value a resolver or action adds
// while handling one event lands in the scope and is discarded with it, so
// one conversation's transcript or user name can never bleed into the
// next.
func (r *PlaceholderResolver) NewScope() models.PlaceholdersMap {
	return r.registry.Placeholders()
}

// SetupDynamicPlaceholders scans text for registered dynamic keys, invokes
// each matching resolver, and records successful values into scope. Keys
// already present in scope, statically configured or resolved earlier for
// this event, are skipped. Per-key failures are reported in the result but
// swallowed: a missing value beats aborting the whole batch.
func (r *PlaceholderResolver) SetupDynamicPlaceholders(ctx context.Context, text string, payload *models.ProductEventPayload, integ *Integrations, scope models.PlaceholdersMap) []Resolution {
	var results []Resolution

	for _, key := range r.registry.DynamicPlaceholderKeys() {
		if !strings.Contains(text, constants.PlaceholderOpen+key+constants.PlaceholderClose) {
			continue
		}
		if _, ok := scope[key]; ok {
			continue
		}

		fn, _ := r.registry.DynamicPlaceholder(key)
		value, err := fn(ctx, payload, integ)
		if err != nil {
			r.logger.WarnwCtx(ctx, "Dynamic placeholder resolution failed",
				"placeholder", key,
				"error", err,
			)
			results = append(results, Resolution{Key: key, Err: err})
			continue
		}

		scope[key] = value
		results = append(results, Resolution{Key: key, Value: value})
	}

	return results
}

// FindAndReplacePlaceholders substitutes every known {{token}} in text.
// Unknown tokens are left verbatim.
func FindAndReplacePlaceholders(text string, placeholders models.PlaceholdersMap) string {
	if len(placeholders) == 0 {
		return text
	}

	pairs := make([]string, 0, len(placeholders)*2)
	for key, value := range placeholders {
		pairs = append(pairs, constants.PlaceholderOpen+key+constants.PlaceholderClose, value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
