package capi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UserClient resolves user display details from the profile service.
type UserClient struct {
	Host string
	// ProfilePath is the read endpoint; the user id is appended as the last
	// path segment.
	ProfilePath string
	APIKey      string
	HTTPClient  *http.Client
}

const defaultProfilePath = "user/v1/read"

type userProfileResponse struct {
	FirstName string `json:"firstName"`
}

func (c *UserClient) FirstName(ctx context.Context, userID string) (string, error) {
	path := c.ProfilePath
	if path == "" {
		path = defaultProfilePath
	}
	url := c.Host + "/" + path + "/" + userID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = RobustHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read profile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile lookup error, code=%d", resp.StatusCode)
	}
	var out userProfileResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse profile response: %w", err)
	}
	return out.FirstName, nil
}
