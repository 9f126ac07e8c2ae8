// Package mailtrap is a minimal client for the Mailtrap send API.
package mailtrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://send.api.mailtrap.io"

// Address is an email participant
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is the send API payload
type Message struct {
	From     Address   `json:"from"`
	To       []Address `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html,omitempty"`
	Text     string    `json:"text,omitempty"`
	Category string    `json:"category,omitempty"`
}

// Client talks to the Mailtrap send API
type Client struct {
	token   string
	baseURL string
	sender  Address
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, used for tests
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a Mailtrap client for the given API token and sender
func New(token string, sender Address, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		sender:  sender,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Send delivers a single HTML email. The category shows up in the Mailtrap
// dashboard and groups transactional streams.
func (c *Client) Send(ctx context.Context, to, subject, html, category string) error {
	msg := Message{
		From:     c.sender,
		To:       []Address{{Email: to}},
		Subject:  subject,
		HTML:     html,
		Category: category,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mailtrap: failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailtrap: failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailtrap: failed to send email: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("mailtrap: send failed with status %d: %s", res.StatusCode, string(detail))
	}

	return nil
}
