package capi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/communitykit/scrub/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"detectedLanguage":"hi"}`))
	}))
	defer srv.Close()

	c := &Client{
		Host:               srv.URL,
		LanguageDetectPath: "v1/language/detect",
		APIKey:             "sekrit",
	}
	lang, err := c.DetectLanguage(ctx, "नमस्ते")
	require.NoError(err)
	assert.Equal("hi", lang)
	assert.Equal("sekrit", gotAuth)
	assert.Equal("नमस्ते", gotBody["text"])
}

func TestDetectLanguageMissingKey(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &Client{Host: srv.URL, LanguageDetectPath: "detect"}
	lang, err := c.DetectLanguage(ctx, "??")
	assert.NoError(err)
	assert.Equal("", lang)
}

func TestDetectLanguageNullValue(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detectedLanguage":null}`))
	}))
	defer srv.Close()

	c := &Client{Host: srv.URL, LanguageDetectPath: "detect"}
	lang, err := c.DetectLanguage(ctx, "??")
	assert.NoError(err)
	assert.Equal("", lang)
}

func TestDetectLanguageServerError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{Host: srv.URL, LanguageDetectPath: "detect"}
	lang, err := c.DetectLanguage(ctx, "text")
	assert.Error(err)
	assert.Equal("", lang)
}

func TestDispatchCheckRequestShape(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"status":"accepted"}`))
	}))
	defer srv.Close()

	c := &Client{
		RegistryHost:   srv.URL,
		ModerationPath: "v1/text/moderate",
		APIKey:         "sekrit",
	}
	ev := &moderation.ContentEvent{
		ContentID: "post123",
		Text:      "some text",
		Type:      "QUESTION",
		Language:  "en",
	}
	require.NoError(c.DispatchCheck(ctx, ev))

	assert.Equal(DefaultServiceCode, gotBody["serviceCode"])
	reqBody := gotBody["requestBody"].(map[string]any)
	assert.Equal("some text", reqBody["text"])
	assert.Equal("en", reqBody["language"])
	meta := reqBody["metadata"].(map[string]any)
	assert.Equal("post123", meta["postId"])
	assert.Equal("QUESTION", meta["type"])
	headerMap := gotBody["headerMap"].(map[string]any)
	assert.Equal("sekrit", headerMap["Authorization"])
}

func TestUserClientFirstName(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/user/v1/read/u1", r.URL.Path)
		w.Write([]byte(`{"firstName":"Asha"}`))
	}))
	defer srv.Close()

	c := &UserClient{Host: srv.URL, HTTPClient: srv.Client()}
	name, err := c.FirstName(ctx, "u1")
	require.NoError(err)
	assert.Equal("Asha", name)
}

func TestNotifyClientTrigger(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var got moderation.NotificationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &NotifyClient{Host: srv.URL, HTTPClient: srv.Client()}
	req := moderation.NotificationRequest{
		AlertType:  moderation.AlertTypeProfanityCheck,
		Severity:   moderation.SeverityAlert,
		Recipients: []string{"u1"},
		Title:      moderation.NotificationTitle,
		TitleParam: "Asha",
		Data:       map[string]any{"communityId": "c1"},
	}
	require.NoError(c.Trigger(ctx, req))
	assert.Equal(req.AlertType, got.AlertType)
	assert.Equal(req.Recipients, got.Recipients)
}
