// Package capi holds the HTTP clients for the pipeline's external
// collaborators: the content moderation API (language detection and
// profanity check dispatch), the user profile service, and the notification
// trigger service.
package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/communitykit/scrub/moderation"
)

// Client talks to the content moderation API. Both calls block for the HTTP
// round trip and are never retried: a failed language detection takes the
// same path as "no language detected", and the profanity dispatch is
// fire-and-forget.
type Client struct {
	// Host is the base URL of the moderation service (language detection).
	Host string
	// LanguageDetectPath is appended to Host for the detect call.
	LanguageDetectPath string
	// RegistryHost is the base URL of the service registry fronting the
	// text moderation endpoint.
	RegistryHost string
	// ModerationPath is appended to RegistryHost for the profanity dispatch.
	ModerationPath string
	// APIKey goes into the Authorization header of every request.
	APIKey string
	// ServiceCode identifies this consumer to the registry.
	ServiceCode string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

const DefaultServiceCode = "profanity_check"

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default().With("system", "capi")
}

type languageDetectResponse struct {
	DetectedLanguage *string `json:"detectedLanguage"`
}

// DetectLanguage asks the moderation service for the language of text. A
// response without a detectedLanguage value returns ("", nil); transport and
// HTTP-level failures return an error. Callers treat both as the detection
// failure path.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	var out languageDetectResponse
	url := c.Host + "/" + c.LanguageDetectPath
	if err := c.postJSON(ctx, url, map[string]any{"text": text}, &out); err != nil {
		return "", err
	}
	if out.DetectedLanguage == nil {
		return "", nil
	}
	return *out.DetectedLanguage, nil
}

// DispatchCheck sends an annotated content event to the text moderation
// endpoint. The verdict arrives later on the moderation-verdict topic, not
// in this call's response, so the response body is discarded.
func (c *Client) DispatchCheck(ctx context.Context, ev *moderation.ContentEvent) error {
	headerMap := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": c.APIKey,
	}
	serviceCode := c.ServiceCode
	if serviceCode == "" {
		serviceCode = DefaultServiceCode
	}
	payload := map[string]any{
		"headerMap": headerMap,
		"requestBody": map[string]any{
			"text":     ev.Text,
			"language": ev.Language,
			"metadata": map[string]any{
				"postId": ev.ContentID,
				"type":   ev.Type,
			},
		},
		"serviceCode": serviceCode,
	}
	url := c.RegistryHost + "/" + c.ModerationPath
	return c.postJSON(ctx, url, payload, nil)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		c.logger().Warn("moderation API error response", "url", url, "status_code", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("moderation API error, code=%d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
