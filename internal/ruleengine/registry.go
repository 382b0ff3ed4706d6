package ruleengine

import (
	"context"
	"sync"

	"github.com/freshdesk/jaya-lib/pkg/models"
)

// ActionFunc performs one configured action against event data. scope
// holds the placeholder values resolved so far for the current event; a
// returned fragment is merged into it and becomes visible to later actions
// in the same rule invocation.
type ActionFunc func(ctx context.Context, integ *Integrations, payload *models.ProductEventPayload, actionValue interface{}, scope models.PlaceholdersMap) (models.PlaceholdersMap, error)

// OperatorFunc is a pure predicate over two normalized operand strings.
type OperatorFunc func(op1, op2 string, integ *Integrations) (bool, error)

// TriggerActionFunc is a predicate over the event tag itself.
type TriggerActionFunc func(event models.Event, data *models.ProductEventData) bool

// ConditionFunc checks a named condition against event data.
type ConditionFunc func(ctx context.Context, cond Condition, data *models.ProductEventData, integ *Integrations) (bool, error)

// DynamicPlaceholderFunc resolves a placeholder value at evaluation time
// via an external lookup.
type DynamicPlaceholderFunc func(ctx context.Context, payload *models.ProductEventPayload, integ *Integrations) (string, error)

// Plugin is one bundle of capabilities to merge into a Registry. Absent
// maps leave the corresponding registry map untouched.
type Plugin struct {
	Actions             map[string]ActionFunc
	Operators           map[string]OperatorFunc
	TriggerActions      map[string]TriggerActionFunc
	Conditions          map[string]ConditionFunc
	Placeholders        models.PlaceholdersMap
	DynamicPlaceholders map[string]DynamicPlaceholderFunc
}

// Registry holds the merged capability maps consulted during matching and
// execution. It is constructed once at startup and passed by reference;
// there is no package-level shared instance. Its placeholder map carries
// only startup-configured statics; values resolved while handling an event
// live in a per-event scope and never flow back here.
type Registry struct {
	mu                  sync.RWMutex
	actions             map[string]ActionFunc
	operators           map[string]OperatorFunc
	triggerActions      map[string]TriggerActionFunc
	conditions          map[string]ConditionFunc
	placeholders        models.PlaceholdersMap
	dynamicPlaceholders map[string]DynamicPlaceholderFunc
}

func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{}
	r.Reset()
	r.RegisterPlugins(plugins...)
	return r
}

// Reset clears all six maps.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = make(map[string]ActionFunc)
	r.operators = make(map[string]OperatorFunc)
	r.triggerActions = make(map[string]TriggerActionFunc)
	r.conditions = make(map[string]ConditionFunc)
	r.placeholders = make(models.PlaceholdersMap)
	r.dynamicPlaceholders = make(map[string]DynamicPlaceholderFunc)
}

// RegisterPlugins merges each present map of each bundle key-by-key,
// last write wins. There is no removal operation.
func (r *Registry) RegisterPlugins(plugins ...Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range plugins {
		for k, v := range p.Actions {
			r.actions[k] = v
		}
		for k, v := range p.Operators {
			r.operators[k] = v
		}
		for k, v := range p.TriggerActions {
			r.triggerActions[k] = v
		}
		for k, v := range p.Conditions {
			r.conditions[k] = v
		}
		for k, v := range p.Placeholders {
			r.placeholders[k] = v
		}
		for k, v := range p.DynamicPlaceholders {
			r.dynamicPlaceholders[k] = v
		}
	}
}

func (r *Registry) Action(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

func (r *Registry) Operator(name string) (OperatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.operators[name]
	return fn, ok
}

func (r *Registry) TriggerAction(name string) (TriggerActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.triggerActions[name]
	return fn, ok
}

func (r *Registry) Condition(name string) (ConditionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.conditions[name]
	return fn, ok
}

func (r *Registry) Placeholder(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.placeholders[key]
	return v, ok
}

// Placeholders returns a copy of the static placeholder map, suitable as
// the seed for a per-event resolution scope.
func (r *Registry) Placeholders() models.PlaceholdersMap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.placeholders.Clone()
}

func (r *Registry) DynamicPlaceholder(key string) (DynamicPlaceholderFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.dynamicPlaceholders[key]
	return fn, ok
}

// DynamicPlaceholderKeys returns the registered dynamic keys.
func (r *Registry) DynamicPlaceholderKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.dynamicPlaceholders))
	for k := range r.dynamicPlaceholders {
		keys = append(keys, k)
	}
	return keys
}
