package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// PromptFilter narrows prompt listings.
type PromptFilter struct {
	Offset int
	Limit  int
	Search string
	Active *bool
}

func (f PromptFilter) query(paged bool) url.Values {
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
	if f.Active != nil {
		query.Set("es_activo", strconv.FormatBool(*f.Active))
	}
	return query
}

// Prompts lists system prompts matching the filter.
func (c Client) Prompts(ctx context.Context, sess Session, filter PromptFilter) ([]models.SystemPrompt, error) {
	var prompts []models.SystemPrompt
	if err := c.doJSON(ctx, sess, http.MethodGet, "/prompts/", filter.query(true), nil, &prompts); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

// ActivePrompts lists the prompts currently enabled for chat sessions.
func (c Client) ActivePrompts(ctx context.Context, sess Session) ([]models.SystemPrompt, error) {
	active := true
	return c.Prompts(ctx, sess, PromptFilter{Active: &active, Limit: 100})
}

// PromptsCount returns how many prompts match the filter's search and active
// flag, ignoring paging.
func (c Client) PromptsCount(ctx context.Context, sess Session, filter PromptFilter) (int, error) {
	var res struct {
		Total int `json:"total"`
	}
	if err := c.doJSON(ctx, sess, http.MethodGet, "/prompts/count", filter.query(false), nil, &res); err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return res.Total, nil
}

// Prompt fetches one prompt by id.
func (c Client) Prompt(ctx context.Context, sess Session, id int) (models.SystemPrompt, error) {
	var prompt models.SystemPrompt
	if err := c.doJSON(ctx, sess, http.MethodGet, fmt.Sprintf("/prompts/%d", id), nil, nil, &prompt); err != nil {
		return models.SystemPrompt{}, fmt.Errorf("failed to fetch prompt %d: %w", id, err)
	}
	return prompt, nil
}

// CreatePrompt registers a new prompt.
func (c Client) CreatePrompt(ctx context.Context, sess Session, create models.SystemPromptCreate) (models.SystemPrompt, error) {
	var prompt models.SystemPrompt
	if err := c.doJSON(ctx, sess, http.MethodPost, "/prompts/", nil, create, &prompt); err != nil {
		return models.SystemPrompt{}, fmt.Errorf("failed to create prompt: %w", err)
	}
	return prompt, nil
}

// UpdatePrompt applies a partial update to a prompt.
func (c Client) UpdatePrompt(ctx context.Context, sess Session, id int, update models.SystemPromptUpdate) (models.SystemPrompt, error) {
	var prompt models.SystemPrompt
	if err := c.doJSON(ctx, sess, http.MethodPatch, fmt.Sprintf("/prompts/%d", id), nil, update, &prompt); err != nil {
		return models.SystemPrompt{}, fmt.Errorf("failed to update prompt %d: %w", id, err)
	}
	return prompt, nil
}

// DeletePrompt removes a prompt; the backend returns the deleted record.
func (c Client) DeletePrompt(ctx context.Context, sess Session, id int) (models.SystemPrompt, error) {
	var prompt models.SystemPrompt
	if err := c.doJSON(ctx, sess, http.MethodDelete, fmt.Sprintf("/prompts/%d", id), nil, nil, &prompt); err != nil {
		return models.SystemPrompt{}, fmt.Errorf("failed to delete prompt %d: %w", id, err)
	}
	return prompt, nil
}
