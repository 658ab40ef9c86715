package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// DocumentFilter narrows document listings. Zero values mean "no filter"; a
// zero Limit falls back to the backend default.
type DocumentFilter struct {
	Offset   int
	Limit    int
	Search   string
	Category string
}

func (f DocumentFilter) query(paged bool) url.Values {
	query := url.Values{}
	if paged {
		query.Set("offset", strconv.Itoa(f.Offset))
		if f.Limit > 0 {
			query.Set("limit", strconv.Itoa(f.Limit))
		}
	}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.Category != "" {
		query.Set("categoria", f.Category)
	}
	return query
}

// Documents lists knowledge-base documents matching the filter.
func (c Client) Documents(ctx context.Context, sess Session, filter DocumentFilter) ([]models.Document, error) {
	var docs []models.Document
	if err := c.doJSON(ctx, sess, http.MethodGet, "/conocimiento/", filter.query(true), nil, &docs); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// DocumentsCount returns how many documents match the filter's search and
// category, ignoring paging.
func (c Client) DocumentsCount(ctx context.Context, sess Session, filter DocumentFilter) (int, error) {
	var res struct {
		Total int `json:"total"`
	}
	if err := c.doJSON(ctx, sess, http.MethodGet, "/conocimiento/count", filter.query(false), nil, &res); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return res.Total, nil
}

// Document fetches one document record by id.
func (c Client) Document(ctx context.Context, sess Session, id int) (models.Document, error) {
	var doc models.Document
	if err := c.doJSON(ctx, sess, http.MethodGet, fmt.Sprintf("/conocimiento/%d", id), nil, nil, &doc); err != nil {
		return models.Document{}, fmt.Errorf("failed to fetch document %d: %w", id, err)
	}
	return doc, nil
}

// UploadDocument sends a file plus its metadata as multipart form data and
// returns the created record. Indexing happens asynchronously on the backend;
// watch the record's IndexStatus.
func (c Client) UploadDocument(
	ctx context.Context,
	sess Session,
	upload models.DocumentUpload,
	filename string,
	file io.Reader,
) (models.Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("archivo", filename)
	if err != nil {
		return models.Document{}, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return models.Document{}, fmt.Errorf("error copying file: %w", err)
	}

	fields := map[string]string{
		"titulo":      upload.Title,
		"categoria":   upload.Category,
		"descripcion": upload.Description,
		"etiquetas":   upload.Tags,
	}
	for name, value := range fields {
		if name != "titulo" && value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return models.Document{}, fmt.Errorf("error writing form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return models.Document{}, fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/conocimiento/", nil), &buf)
	if err != nil {
		return models.Document{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Document{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return models.Document{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var doc models.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return models.Document{}, fmt.Errorf("error decoding response: %w", err)
	}
	return doc, nil
}

// UpdateDocument applies a partial update to a document's metadata.
func (c Client) UpdateDocument(ctx context.Context, sess Session, id int, update models.DocumentUpdate) (models.Document, error) {
	var doc models.Document
	if err := c.doJSON(ctx, sess, http.MethodPatch, fmt.Sprintf("/conocimiento/%d", id), nil, update, &doc); err != nil {
		return models.Document{}, fmt.Errorf("failed to update document %d: %w", id, err)
	}
	return doc, nil
}

// DeleteDocument removes a document and its index entries.
func (c Client) DeleteDocument(ctx context.Context, sess Session, id int) error {
	if err := c.doJSON(ctx, sess, http.MethodDelete, fmt.Sprintf("/conocimiento/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	return nil
}

// DocumentDownloadURL returns the backend URL serving the raw file. The caller
// still needs the bearer token to fetch it.
func (c Client) DocumentDownloadURL(id int) string {
	return c.endpoint(fmt.Sprintf("/conocimiento/%d/download", id), nil)
}
