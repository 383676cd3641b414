package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiURL = "https://api.resend.com/emails"

// Client sends transactional email through the Resend API
type Client struct {
	apiKey     string
	fromEmail  string
	httpClient *http.Client
}

func NewClient(apiKey, fromEmail string) *Client {
	return &Client{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers a single HTML email
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    c.fromEmail,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
