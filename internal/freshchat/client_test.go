package freshchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshdesk/jaya-lib/pkg/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "token-123", 100, 100)
}

func TestPostMessageDefaultsToBotActor(t *testing.T) {
	var received Message
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/conversations/conv1/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(Message{ID: "m1"})
	})

	msg, err := c.PostMessage(context.Background(), "conv1", "hello", MessageTypeNormal)
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	assert.Equal(t, string(models.ActorTypeBot), received.ActorType)
	assert.Equal(t, MessageTypeNormal, received.MessageType)
	require.Len(t, received.MessageParts, 1)
	assert.Equal(t, "hello", received.MessageParts[0].Text.Content)
}

func TestPostMessageExplicitActor(t *testing.T) {
	var received Message
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(Message{})
	})

	_, err := c.PostMessage(context.Background(), "conv1", "note", MessageTypePrivate,
		models.Actor{Type: models.ActorTypeAgent, ID: "agent-7"})
	require.NoError(t, err)

	assert.Equal(t, string(models.ActorTypeAgent), received.ActorType)
	assert.Equal(t, "agent-7", received.ActorID)
}

func TestConversationAssign(t *testing.T) {
	var received map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/conversations/conv1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(Conversation{ConversationID: "conv1"})
	})

	_, err := c.ConversationAssign(context.Background(), "conv1", "agent-7", AssignToAgent, models.ConversationStatusAssigned)
	require.NoError(t, err)

	assert.Equal(t, "agent-7", received["assigned_agent_id"])
	assert.Equal(t, "assigned", received["status"])
	assert.NotContains(t, received, "assigned_group_id")
}

func TestGetAverageWaitTime(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "group-3", r.URL.Query().Get("group_id"))
		json.NewEncoder(w).Encode(map[string]int{"average_wait_time_seconds": 300})
	})

	waitTime, err := c.GetAverageWaitTimeGivenGroupID(context.Background(), "group-3")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, waitTime)
}

func TestGetConversationTranscript(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/conv1/transcript", r.URL.Path)
		assert.Equal(t, "app1", r.URL.Query().Get("app_id"))
		assert.Equal(t, "text", r.URL.Query().Get("output"))
		json.NewEncoder(w).Encode(map[string]string{"transcript": "User: hi\nAgent: hello"})
	})

	transcript, err := c.GetConversationTranscript(context.Background(), "https://acme.example.com", "app1", "conv1", TranscriptOptions{Output: "text"})
	require.NoError(t, err)
	assert.Equal(t, "User: hi\nAgent: hello", transcript)
}

func TestNon2xxIsAnError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PostMessage(context.Background(), "conv1", "hello", MessageTypeNormal)
	assert.Error(t, err)
}
