package models

import (
	"fmt"
	"time"
)

// Event tags the kind of product change that occurred.
type Event string

const (
	EventConversationCreate  Event = "conversation_create"
	EventConversationUpdate  Event = "conversation_update"
	EventConversationResolve Event = "conversation_resolution"
	EventConversationReopen  Event = "conversation_reopen"
	EventMessageCreate       Event = "message_create"
	EventUserCreate          Event = "user_create"
)

type ActorType string

const (
	ActorTypeAgent  ActorType = "agent"
	ActorTypeUser   ActorType = "user"
	ActorTypeBot    ActorType = "bot"
	ActorTypeSystem ActorType = "system"
)

type Actor struct {
	Type ActorType `json:"type"`
	ID   string    `json:"id"`
}

type ConversationStatus string

const (
	ConversationStatusNew      ConversationStatus = "new"
	ConversationStatusAssigned ConversationStatus = "assigned"
	ConversationStatusResolved ConversationStatus = "resolved"
	ConversationStatusReopened ConversationStatus = "reopened"
)

// ModelProperties is the normalized subset of a conversation or message
// snapshot that rules evaluate against.
type ModelProperties struct {
	AppID           string             `json:"app_id"`
	ConversationID  string             `json:"conversation_id"`
	ChannelID       string             `json:"channel_id,omitempty"`
	Status          ConversationStatus `json:"status,omitempty"`
	AssignedAgentID string             `json:"assigned_agent_id,omitempty"`
	AssignedGroupID string             `json:"assigned_group_id,omitempty"`
	MessageText     string             `json:"message_text,omitempty"`
	MessageType     string             `json:"message_type,omitempty"`
}

type User struct {
	ID         string            `json:"id"`
	Email      string            `json:"email,omitempty"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type Agent struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Associations carries the user/agent records related to the event.
type Associations struct {
	User  User  `json:"user"`
	Agent Agent `json:"agent,omitempty"`
}

// ProductEventData holds exactly one of a conversation or a message
// snapshot. A payload with neither is invalid input.
type ProductEventData struct {
	Conversation *ModelProperties `json:"conversation,omitempty"`
	Message      *ModelProperties `json:"message,omitempty"`
	Associations Associations     `json:"associations"`
	Actor        Actor            `json:"actor"`
}

// ModelProperties returns the conversation snapshot when present, the
// message snapshot otherwise.
func (d *ProductEventData) ModelProperties() (*ModelProperties, error) {
	if d.Conversation != nil {
		return d.Conversation, nil
	}
	if d.Message != nil {
		return d.Message, nil
	}
	return nil, fmt.Errorf("product event data has neither conversation nor message")
}

// ProductEventPayload is the envelope delivered for every product event.
type ProductEventPayload struct {
	Event     Event            `json:"event"`
	Data      ProductEventData `json:"data"`
	Domain    string           `json:"domain"`
	Region    string           `json:"region,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
}
