// Package notify delivers short messages to engineers.
package notify

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/logging"
)

// ErrRejected is returned when the gateway answers with an error result.
var ErrRejected = errors.New("notify: message rejected")

// cyrillicEncoding asks the gateway to send the text as UTF-8 Cyrillic.
const cyrillicEncoding = "5"

// SMS posts messages to an HTTP form based SMS gateway.
type SMS struct {
	cfg    config.SMSConfig
	client *http.Client
	logger *slog.Logger
}

// NewSMS builds an SMS notifier. A nil client gets a ten second timeout.
func NewSMS(cfg config.SMSConfig, client *http.Client, logger *slog.Logger) *SMS {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMS{cfg: cfg, client: client, logger: logger}
}

type reply struct {
	Result      string `xml:"result"`
	Code        string `xml:"code"`
	Description string `xml:"description"`
}

// Send delivers text to phone.
func (s *SMS) Send(ctx context.Context, phone, text string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("notify: phone is required")
	}

	form := url.Values{
		"login":      {s.cfg.Login},
		"password":   {s.cfg.Password},
		"phones":     {phone},
		"message":    {text},
		"rus":        {cyrillicEncoding},
		"originator": {s.cfg.Originator},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("notify: read reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: unexpected status %d", resp.StatusCode)
	}

	var r reply
	if err := xml.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("notify: decode reply: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(r.Result), "OK") {
		return fmt.Errorf("%w: %s %s", ErrRejected, strings.TrimSpace(r.Code), strings.TrimSpace(r.Description))
	}

	logging.Default(ctx, s.logger).DebugContext(ctx, "sms sent", "phone", phone, "code", strings.TrimSpace(r.Code))
	return nil
}

// Noop drops every message. It is used when no gateway is configured.
type Noop struct{}

// Send implements the notifier interface.
func (Noop) Send(context.Context, string, string) error { return nil }
