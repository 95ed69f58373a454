// Package notifier dispatches newly ingested content outward, either to a
// chat webhook or to a Telegram channel. Dispatch is best-effort and
// per-item: one failed delivery is logged and does not stop the rest.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/HSMDove/feedpulse/internal/model"
)

type ContentMarker interface {
	MarkNotified(ctx context.Context, id int64) error
}

type WebhookNotifier struct {
	client     *http.Client
	defaultURL string
	contents   ContentMarker
}

// NewWebhookNotifier posts new items as JSON chat messages. A folder's own
// webhook URL wins over the default, which lets each folder route to its
// own channel.
func NewWebhookNotifier(defaultURL string, contents ContentMarker, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookNotifier{
		client:     &http.Client{Timeout: timeout},
		defaultURL: defaultURL,
		contents:   contents,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, folder model.Folder, contents []model.Content) error {
	url := folder.WebhookURL
	if url == "" {
		url = n.defaultURL
	}
	if url == "" {
		return nil
	}

	for _, c := range contents {
		if err := n.send(ctx, url, folder, c); err != nil {
			log.Printf("[ERROR] webhook delivery failed for content %d: %v", c.ID, err)
			continue
		}
		if err := n.contents.MarkNotified(ctx, c.ID); err != nil {
			log.Printf("[ERROR] failed to mark content %d notified: %v", c.ID, err)
		}
	}
	return nil
}

func (n *WebhookNotifier) send(ctx context.Context, url string, folder model.Folder, c model.Content) error {
	payload := map[string]string{
		"content": fmt.Sprintf("**%s**\n%s", c.Title, c.Link),
		"folder":  folder.Name,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
