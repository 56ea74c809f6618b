package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"learnhub-backend/internal/models"
)

type SlackClient struct {
	webhookURL string
	client     *http.Client
}

type SlackMessage struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewSlackClient() *SlackClient {
	return &SlackClient{
		webhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		client:     &http.Client{},
	}
}

// OrgLifecycleAlert posts a webhook message when an organization is disabled
// or re-enabled. Purely operational; callers discard the error.
func (s *SlackClient) OrgLifecycleAlert(org *models.Organization, actor *models.User, active bool) error {
	if s.webhookURL == "" {
		return nil
	}

	verb := "disabled"
	if active {
		verb = "enabled"
	}
	actorLabel := "system"
	if actor != nil {
		actorLabel = actor.Email
	}

	msg := SlackMessage{
		Blocks: []Block{
			{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: fmt.Sprintf(":office: Organization *%s* (`%s`) was %s by %s", org.Name, org.Slug, verb, actorLabel),
				},
			},
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
