package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"learnhub-backend/internal/models"
)

// MailClient posts transactional mail to an HTTP mail provider. With no
// endpoint configured it logs and succeeds, so local setups work without a
// provider account.
type MailClient struct {
	endpoint string
	apiKey   string
	baseURL  string
	client   *http.Client
}

func NewMailClient() *MailClient {
	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &MailClient{
		endpoint: os.Getenv("MAIL_API_URL"),
		apiKey:   os.Getenv("MAIL_API_KEY"),
		baseURL:  baseURL,
		client:   &http.Client{},
	}
}

type mailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendSetupLink mails the invite or password-setup link carrying the
// plaintext token. This is the token's only trip outside the system.
func (m *MailClient) SendSetupLink(ctx context.Context, email, name, purpose, token string) error {
	subject := "Set up your LearnHub password"
	if purpose == models.TokenPurposeInvite {
		subject = "You are invited to LearnHub"
	}

	link := fmt.Sprintf("%s/setup-password?token=%s", m.baseURL, token)
	text := fmt.Sprintf("Hi %s,\n\nUse the link below to set your password:\n%s\n", name, link)

	if m.endpoint == "" {
		log.Printf("INFO Mail delivery skipped (MAIL_API_URL not set): to=%s purpose=%s", email, purpose)
		return nil
	}

	payload, err := json.Marshal(mailRequest{To: email, Subject: subject, Text: text})
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
