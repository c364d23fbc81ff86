package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPNotifier POSTs events as JSON to a webhook URL
type HTTPNotifier struct {
	URL    string
	Client *http.Client
}

// NewHTTPNotifier creates an HTTPNotifier with its own client timeout
func NewHTTPNotifier(url string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Notify sends the event and expects a 2xx response
func (n *HTTPNotifier) Notify(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Order-Event-ID", event.EventID)

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send notify request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body is not read
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify failed: unexpected status %d", resp.StatusCode)
	}
	return nil
}
