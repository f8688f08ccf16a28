// Package gateway wraps the SMS messaging provider. Sends are
// fire-and-forget: callers log failures and move on, a dropped
// message never affects the ticket write that triggered it.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/config"
)

// Gateway sends a text message to a phone number.
type Gateway interface {
	Send(ctx context.Context, phone, text string) error
}

// NewGateway returns the HTTP gateway when an endpoint is configured,
// otherwise a noop that only logs. Startup never fails on this.
func NewGateway(cfg config.GatewayConfig, logger *zap.Logger) Gateway {
	if strings.TrimSpace(cfg.URL) == "" {
		logger.Warn("GATEWAY_URL not configured; messages will be dropped")
		return &noopGateway{logger: logger}
	}
	return &httpGateway{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		sender: cfg.Sender,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type httpGateway struct {
	url    string
	apiKey string
	sender string
	client *http.Client
	logger *zap.Logger
}

// Send posts one message to the provider. Non-2xx responses are
// errors so callers can count failures, but nothing retries here.
func (g *httpGateway) Send(ctx context.Context, phone, text string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("gateway: empty phone number")
	}

	form := url.Values{}
	form.Set("to", phone)
	form.Set("message", text)
	form.Set("sender", g.sender)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	g.logger.Debug("message sent", zap.String("to", phone))
	return nil
}

type noopGateway struct {
	logger *zap.Logger
}

func (g *noopGateway) Send(ctx context.Context, phone, text string) error {
	g.logger.Debug("dropping message, gateway unconfigured", zap.String("to", phone))
	return nil
}
