package ruleengine

import (
	"github.com/freshdesk/jaya-lib/internal/email"
	"github.com/freshdesk/jaya-lib/internal/freshchat"
	"github.com/freshdesk/jaya-lib/internal/storage"
)

// Condition is a named predicate over event data and a configured
// operator/value pair, e.g. {Name: "status", Operator: "equals",
// Value: "resolved"}.
type Condition struct {
	Name     string `json:"name" bson:"name"`
	Operator string `json:"operator" bson:"operator"`
	Value    string `json:"value" bson:"value"`
}

// ConditionSet groups trigger-actions and conditions. Trigger-actions are
// predicates over the event tag itself; conditions inspect event data.
// All members are ANDed; an empty set matches trivially.
type ConditionSet struct {
	TriggerActions []string    `json:"trigger_actions" bson:"trigger_actions"`
	Conditions     []Condition `json:"conditions" bson:"conditions"`
}

func (s ConditionSet) IsEmpty() bool {
	return len(s.TriggerActions) == 0 && len(s.Conditions) == 0
}

// Action names a registered action plus its configured value.
type Action struct {
	Name  string      `json:"name" bson:"name"`
	Value interface{} `json:"value" bson:"value"`
}

// Rule is one user-defined automation unit. Rules are immutable
// configuration; the engine never mutates a Rule. Position fixes the
// evaluation order within an app; legacy job identities embed the list
// index, so the order must be stable across loads.
type Rule struct {
	ID             string        `json:"id" bson:"_id,omitempty"`
	AppID          string        `json:"app_id" bson:"app_id"`
	Name           string        `json:"name" bson:"name"`
	Position       int           `json:"position" bson:"position"`
	IsEnabled      bool          `json:"is_enabled" bson:"is_enabled"`
	IsTimer        bool          `json:"is_timer" bson:"is_timer"`
	TimerValue     int           `json:"timer_value,omitempty" bson:"timer_value,omitempty"` // seconds
	TriggerActions []string      `json:"trigger_actions" bson:"trigger_actions"`
	Conditions     []Condition   `json:"conditions" bson:"conditions"`
	Invalidators   *ConditionSet `json:"invalidators,omitempty" bson:"invalidators,omitempty"`
	Actions        []Action      `json:"actions" bson:"actions"`
}

// Schedulable reports whether the rule may ever create a timer schedule.
// A timer rule without a positive timer value must never be scheduled.
func (r Rule) Schedulable() bool {
	return r.IsEnabled && r.IsTimer && r.TimerValue > 0
}

// Integrations bundles the external collaborators actions and conditions
// reach out to. It is passed by reference through every evaluation.
type Integrations struct {
	Freshchat      freshchat.API
	Email          email.Sender
	Storage        storage.Store
	Domain         string
	TimezoneOffset int
}
