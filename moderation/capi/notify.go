package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/communitykit/scrub/moderation"
)

// NotifyClient triggers user-facing alerts through the notification service.
// Delivery beyond the trigger call is the service's problem.
type NotifyClient struct {
	Host string
	// TriggerPath is the notification trigger endpoint path.
	TriggerPath string
	APIKey      string
	HTTPClient  *http.Client
}

const defaultTriggerPath = "notification/v1/trigger"

func (c *NotifyClient) Trigger(ctx context.Context, req moderation.NotificationRequest) error {
	path := c.TriggerPath
	if path == "" {
		path = defaultTriggerPath
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/"+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = RobustHTTPClient()
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("failed notification trigger request, status=%d", resp.StatusCode)
	}
	return nil
}
