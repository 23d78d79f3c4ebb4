package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// LogSender writes emails to the process log. Used when no mail provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, email Email) (string, error) {
	log.Printf("[DEV-EMAIL] to=%s subject=%q", email.To, email.Subject)
	return "local-dev-mode", nil
}

const brevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoSender posts to the Brevo transactional email API.
type BrevoSender struct {
	apiKey   string
	from     string
	fromName string
	url      string
	client   *http.Client
}

func NewBrevoSender(apiKey, from string) *BrevoSender {
	return &BrevoSender{
		apiKey:   apiKey,
		from:     from,
		fromName: "VaultShare",
		url:      brevoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (s *BrevoSender) Send(ctx context.Context, email Email) (string, error) {
	payload, err := json.Marshal(brevoRequest{
		Sender:      brevoAddress{Name: s.fromName, Email: s.from},
		To:          []brevoAddress{{Email: email.To}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("brevo api error: status=%d body=%s", resp.StatusCode, body)
	}

	var out struct {
		MessageID string `json:"messageId"`
	}
	_ = json.Unmarshal(body, &out)
	return out.MessageID, nil
}
