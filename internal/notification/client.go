package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// UserCreatedEvent is the payload announcing a new identity to the
// notification service.
type UserCreatedEvent struct {
	EventID string `json:"event_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// NewUserCreatedEvent builds an event with a fresh delivery ID.
func NewUserCreatedEvent(name, email string) UserCreatedEvent {
	return UserCreatedEvent{
		EventID: uuid.NewString(),
		Name:    name,
		Email:   email,
	}
}

// Client talks to the notification microservice. Delivery is best-effort:
// callers decide what to do with errors, the client just reports them.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendUserCreated posts a user-created event to the notification service.
func (c *Client) SendUserCreated(ctx context.Context, event UserCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	url := c.baseURL + "/api/v1/notification/user-created/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	return nil
}
