package freshchat

import "github.com/freshdesk/jaya-lib/pkg/models"

type Conversation struct {
	ConversationID  string                    `json:"conversation_id"`
	AppID           string                    `json:"app_id"`
	Status          models.ConversationStatus `json:"status"`
	AssignedAgentID string                    `json:"assigned_agent_id,omitempty"`
	AssignedGroupID string                    `json:"assigned_group_id,omitempty"`
}

type MessagePart struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type Message struct {
	ID             string        `json:"id,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	ActorType      string        `json:"actor_type"`
	ActorID        string        `json:"actor_id,omitempty"`
	MessageParts   []MessagePart `json:"message_parts"`
	MessageType    MessageType   `json:"message_type"`
}

// MessageType distinguishes customer-visible messages from private notes.
type MessageType string

const (
	MessageTypeNormal  MessageType = "normal"
	MessageTypePrivate MessageType = "private"
)

type AssignTo string

const (
	AssignToAgent AssignTo = "agent"
	AssignToGroup AssignTo = "group"
)

// TranscriptOptions controls transcript rendering.
type TranscriptOptions struct {
	IncludeFreshchatLink bool
	Output               string // "text" or "html"
	TimezoneOffset       int
}
