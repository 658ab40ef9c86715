package services

import (
	"context"
	"fmt"
	"net/http"
)

// SearchResult is one chunk returned by a knowledge-base search.
type SearchResult struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Source returns the originating filename recorded in the chunk metadata.
func (r SearchResult) Source() string {
	for _, key := range []string{"source_filename", "source"} {
		if v, ok := r.Metadata[key].(string); ok {
			return v
		}
	}
	return ""
}

// PageLabel returns the page the chunk came from, or the empty string.
func (r SearchResult) PageLabel() string {
	for _, key := range []string{"page_label", "page"} {
		switch v := r.Metadata[key].(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%g", v)
		}
	}
	return ""
}

// SearchResponse is the backend's answer to a knowledge search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type searchRequest struct {
	Query          string `json:"query"`
	K              int    `json:"k"`
	SourceFilename string `json:"source_filename,omitempty"`
}

// SearchKnowledge runs a similarity search over the indexed knowledge base.
// k bounds the number of chunks returned; sourceFilename, when non-empty,
// restricts the search to one document.
func (c Client) SearchKnowledge(ctx context.Context, sess Session, query string, k int, sourceFilename string) (SearchResponse, error) {
	if k <= 0 {
		k = 5
	}
	var res SearchResponse
	req := searchRequest{Query: query, K: k, SourceFilename: sourceFilename}
	if err := c.doJSON(ctx, sess, http.MethodPost, "/knowledge/search", nil, req, &res); err != nil {
		return SearchResponse{}, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	return res, nil
}

// KnowledgeSources lists the filenames currently indexed.
func (c Client) KnowledgeSources(ctx context.Context, sess Session) ([]string, error) {
	var res struct {
		Sources []string `json:"sources"`
	}
	if err := c.doJSON(ctx, sess, http.MethodGet, "/knowledge/sources", nil, nil, &res); err != nil {
		return nil, fmt.Errorf("failed to list knowledge sources: %w", err)
	}
	return res.Sources, nil
}
