package searchsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	es "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	escli, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewClient(escli, nil)
}

func TestUpsert(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var gotPath string
	var gotDoc map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(json.NewDecoder(r.Body).Decode(&gotDoc))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	doc := map[string]any{"communityId": "c1", "isProfane": true}
	require.NoError(c.Upsert(ctx, "discussions", "post123", doc))
	assert.Equal("/discussions/_doc/post123", gotPath)
	assert.Equal(true, gotDoc["isProfane"])
}

func TestUpsertIndexError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"}}`))
	})

	err := c.Upsert(ctx, "discussions", "bad", map[string]any{"x": 1})
	assert.Error(err)
}

func TestCommunityPage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var gotQuery map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(json.NewDecoder(r.Body).Decode(&gotQuery))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":{"hits":[{"_source":{"discussionId":"d1"}},{"_source":{"discussionId":"d2"}}]}}`))
	})

	docs, err := c.CommunityPage(ctx, "discussions", "c1", 2, 10)
	require.NoError(err)
	require.Len(docs, 2)
	assert.Equal("d1", docs[0]["discussionId"])

	assert.Equal(float64(10), gotQuery["from"])
	assert.Equal(float64(10), gotQuery["size"])
}
