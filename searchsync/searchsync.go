// Package searchsync maintains the denormalized search copy of content
// records in OpenSearch. The pipeline only ever writes whole documents; it
// never reads them back, so upserts are plain index requests keyed by the
// record id.
package searchsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	es "github.com/opensearch-project/opensearch-go/v2"
	esapi "github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

type Client struct {
	escli  *es.Client
	logger *slog.Logger
}

func NewClient(escli *es.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		escli:  escli,
		logger: logger.With("system", "searchsync"),
	}
}

// NewESClient connects to the search cluster and verifies it with an info
// call.
func NewESClient(hosts []string, username, password string) (*es.Client, error) {
	cfg := es.Config{
		Addresses: hosts,
		Username:  username,
		Password:  password,
	}
	escli, err := es.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up search client: %w", err)
	}
	info, err := escli.Info()
	if err != nil {
		return nil, fmt.Errorf("cannot get search cluster info: %w", err)
	}
	defer info.Body.Close()
	return escli, nil
}

// Upsert writes the document under id, replacing any previous version.
func (c *Client) Upsert(ctx context.Context, index, id string, fields map[string]any) error {
	log := c.logger.With("index", index, "docId", id, "op", "upsert")

	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	log.Debug("indexing document")
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(b),
	}

	res, err := req.Do(ctx, c.escli)
	if err != nil {
		return fmt.Errorf("failed to send indexing request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read indexing response: %w", err)
	}
	if res.IsError() {
		log.Warn("opensearch indexing error", "status_code", res.StatusCode, "body", string(body))
		return fmt.Errorf("indexing error, code=%d", res.StatusCode)
	}
	return nil
}

// CommunityPage fetches one page of a community's active discussions, newest
// first. The feed cache recompute uses this as its page loader.
func (c *Client) CommunityPage(ctx context.Context, index, communityID string, page, pageSize int) ([]map[string]any, error) {
	if page < 1 {
		page = 1
	}
	query := map[string]any{
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"communityId": communityID}},
				},
			},
		},
		"sort": []map[string]any{
			{"createdOn": map[string]any{"order": "desc"}},
		},
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := c.escli.Search(
		c.escli.Search.WithContext(ctx),
		c.escli.Search.WithIndex(index),
		c.escli.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if res.IsError() {
		c.logger.Warn("opensearch query error", "index", index, "status_code", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("search error, code=%d", res.StatusCode)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	docs := make([]map[string]any, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}
