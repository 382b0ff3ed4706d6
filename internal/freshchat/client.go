package freshchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/freshdesk/jaya-lib/internal/constants"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// API is the chat-platform contract consumed by actions, conditions and
// dynamic placeholders.
type API interface {
	ConversationAssign(ctx context.Context, conversationID, resourceID string, assignTo AssignTo, status models.ConversationStatus) (*Conversation, error)
	PostMessage(ctx context.Context, conversationID, text string, messageType MessageType, actor ...models.Actor) (*Message, error)
	ConversationStatusUpdate(ctx context.Context, conversationID string, status models.ConversationStatus) (*Conversation, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]string) error
	GetConversationTranscript(ctx context.Context, domain, appID, conversationID string, opts TranscriptOptions) (string, error)
	GetAverageWaitTimeGivenGroupID(ctx context.Context, groupID string) (time.Duration, error)
	GetUnassignedCountGivenGroupID(ctx context.Context, groupID string) (int, error)
}

// Client calls the chat-platform REST API. Outbound traffic is rate
// limited and circuit broken so a misbehaving rule set cannot hammer the
// platform.
type Client struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(apiURL, apiToken string, rps float64, burst int) *Client {
	return &Client{
		apiURL:   apiURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "freshchat",
			Interval: time.Minute,
			Timeout:  time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.5
			},
		}),
	}
}

func (c *Client) ConversationAssign(ctx context.Context, conversationID, resourceID string, assignTo AssignTo, status models.ConversationStatus) (*Conversation, error) {
	body := map[string]interface{}{
		"status": status,
	}
	switch assignTo {
	case AssignToAgent:
		body["assigned_agent_id"] = resourceID
	case AssignToGroup:
		body["assigned_group_id"] = resourceID
	}

	var conv Conversation
	err := c.do(ctx, "conversation_assign", http.MethodPut, "/conversations/"+url.PathEscape(conversationID), body, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// PostMessage creates a message in the conversation. Without an explicit
// actor the message is posted as the automation bot.
func (c *Client) PostMessage(ctx context.Context, conversationID, text string, messageType MessageType, actor ...models.Actor) (*Message, error) {
	actorType := string(models.ActorTypeBot)
	actorID := ""
	if len(actor) > 0 {
		actorType = string(actor[0].Type)
		actorID = actor[0].ID
	}

	part := MessagePart{}
	part.Text.Content = text

	body := Message{
		ActorType:    actorType,
		ActorID:      actorID,
		MessageParts: []MessagePart{part},
		MessageType:  messageType,
	}

	var msg Message
	err := c.do(ctx, "post_message", http.MethodPost, "/conversations/"+url.PathEscape(conversationID)+"/messages", body, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) ConversationStatusUpdate(ctx context.Context, conversationID string, status models.ConversationStatus) (*Conversation, error) {
	body := map[string]interface{}{
		"status": status,
	}

	var conv Conversation
	err := c.do(ctx, "conversation_status_update", http.MethodPut, "/conversations/"+url.PathEscape(conversationID), body, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]string) error {
	return c.do(ctx, "update_user", http.MethodPut, "/users/"+url.PathEscape(userID), fields, nil)
}

func (c *Client) GetConversationTranscript(ctx context.Context, domain, appID, conversationID string, opts TranscriptOptions) (string, error) {
	path := fmt.Sprintf("/conversations/%s/transcript?app_id=%s&output=%s&include_freshchat_link=%t&timezone_offset=%d&domain=%s",
		url.PathEscape(conversationID),
		url.QueryEscape(appID),
		url.QueryEscape(opts.Output),
		opts.IncludeFreshchatLink,
		opts.TimezoneOffset,
		url.QueryEscape(domain),
	)

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := c.do(ctx, "get_conversation_transcript", http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Transcript, nil
}

func (c *Client) GetAverageWaitTimeGivenGroupID(ctx context.Context, groupID string) (time.Duration, error) {
	var out struct {
		AverageWaitTimeSeconds int `json:"average_wait_time_seconds"`
	}
	path := "/metrics/average_wait_time?group_id=" + url.QueryEscape(groupID)
	if err := c.do(ctx, "get_average_wait_time", http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return time.Duration(out.AverageWaitTimeSeconds) * time.Second, nil
}

func (c *Client) GetUnassignedCountGivenGroupID(ctx context.Context, groupID string) (int, error) {
	var out struct {
		UnassignedCount int `json:"unassigned_count"`
	}
	path := "/metrics/unassigned_count?group_id=" + url.QueryEscape(groupID)
	if err := c.do(ctx, "get_unassigned_count", http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.UnassignedCount, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	metrics.ObserveExternalCall("freshchat", operation, time.Since(start), err)

	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return fmt.Errorf("freshchat returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
