package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/freshdesk/jaya-lib/internal/constants"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
)

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendRequest struct {
	AccountID string      `json:"account_id"`
	From      Recipient   `json:"from"`
	To        []Recipient `json:"to"`
	Subject   string      `json:"subject"`
	HTML      string      `json:"html"`
}

// Sender is the email-send service contract.
type Sender interface {
	Send(ctx context.Context, req SendRequest) error
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
	}
}

func (c *Client) Send(ctx context.Context, req SendRequest) error {
	start := time.Now()
	err := c.send(ctx, req)
	metrics.ObserveExternalCall("email", "send", time.Since(start), err)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req SendRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/email/send", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	return nil
}
