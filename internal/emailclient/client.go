// Package emailclient sends transactional email through a Postmark-style
// HTTP API: one JSON POST to {base_url}/email per message.
package emailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/service/subscription"
)

const providerName = "email_api"

// AuthHeader carries the server token on every request.
const AuthHeader = "X-Postmark-Server-Token"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// SendEmailRequest is the JSON body of POST /email.
type SendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// Client is an email API client. It implements subscription.Notifier.
type Client struct {
	baseURL    string
	sender     domain.SubscriberEmail
	token      string
	timeout    time.Duration
	httpClient httpretry.HTTPDoer
}

var _ subscription.Notifier = (*Client)(nil)

// New creates a client that sends each message once. The sender address is
// validated with the same rules as subscriber addresses.
func New(cfg config.EmailClientConfig) (*Client, error) {
	return NewWithDoer(cfg, &http.Client{Timeout: cfg.Timeout()})
}

// NewWithDoer creates a client on top of doer, e.g. an httpretry.Client for
// background sends.
func NewWithDoer(cfg config.EmailClientConfig, doer httpretry.HTTPDoer) (*Client, error) {
	sender, err := domain.ParseEmail(cfg.SenderEmail)
	if err != nil {
		return nil, fmt.Errorf("email client sender: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		sender:     sender,
		token:      cfg.AuthorizationToken,
		timeout:    cfg.Timeout(),
		httpClient: doer,
	}, nil
}

// SendEmail posts one message. Any transport failure or non-2xx response is
// a *subscription.NotifierError.
func (c *Client) SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(SendEmailRequest{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return c.fail(0, fmt.Errorf("encoding request: %w", err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return c.fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(AuthHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(0, fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.fail(resp.StatusCode, fmt.Errorf("API error: %s", strings.TrimSpace(string(body))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) fail(status int, err error) error {
	return &subscription.NotifierError{Provider: providerName, StatusCode: status, Err: err}
}
