// Package sms is the reminder/invitation dispatch capability. The core
// only depends on the Sender interface; whether the message actually
// leaves the machine is the configured implementation's business.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "agentbook/internal/log"
)

// Sender delivers a single SMS to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// ConsoleSender logs messages instead of delivering them. It is the
// default when no gateway is configured.
type ConsoleSender struct{}

func (ConsoleSender) Send(_ context.Context, phone, message string) error {
	appLog.Info("sms (console): message not actually delivered", "phone", phone, "chars", len(message))
	return nil
}

// GatewaySender POSTs messages to an HTTP SMS gateway as JSON:
//
//	{"to": "+48123456789", "message": "..."}
//
// Any non-2xx response is a delivery failure.
type GatewaySender struct {
	client *http.Client
	url    string
	token  string
}

// NewGatewaySender builds a GatewaySender. timeout bounds the whole
// request; it defaults to 15 seconds when non-positive.
func NewGatewaySender(url, token string, timeout time.Duration) (*GatewaySender, error) {
	if url == "" {
		return nil, errors.New("sms: gateway url is empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GatewaySender{
		client: &http.Client{Timeout: timeout},
		url:    url,
		token:  token,
	}, nil
}

type gatewayPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (g *GatewaySender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(gatewayPayload{To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("sms: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the error; gateways tend to
		// explain rejections there.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sms: gateway returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	return nil
}
