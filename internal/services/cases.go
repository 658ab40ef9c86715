package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// Cases lists cases with offset/limit paging.
func (c Client) Cases(ctx context.Context, sess Session, offset, limit int) ([]models.Case, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var cases []models.Case
	if err := c.doJSON(ctx, sess, http.MethodGet, "/casos/", query, nil, &cases); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// RecentCases lists the caller's most recently touched cases.
func (c Client) RecentCases(ctx context.Context, sess Session) ([]models.Case, error) {
	var cases []models.Case
	if err := c.doJSON(ctx, sess, http.MethodGet, "/casos/recent", nil, nil, &cases); err != nil {
		return nil, fmt.Errorf("failed to list recent cases: %w", err)
	}
	return cases, nil
}

// RecentActiveCases is RecentCases restricted to open cases.
func (c Client) RecentActiveCases(ctx context.Context, sess Session) ([]models.Case, error) {
	var cases []models.Case
	if err := c.doJSON(ctx, sess, http.MethodGet, "/casos/recent/active", nil, nil, &cases); err != nil {
		return nil, fmt.Errorf("failed to list recent active cases: %w", err)
	}
	return cases, nil
}

// Case fetches one case by id.
func (c Client) Case(ctx context.Context, sess Session, id int) (models.Case, error) {
	var cs models.Case
	if err := c.doJSON(ctx, sess, http.MethodGet, fmt.Sprintf("/casos/%d", id), nil, nil, &cs); err != nil {
		return models.Case{}, fmt.Errorf("failed to fetch case %d: %w", id, err)
	}
	return cs, nil
}

// CaseDetail fetches the expanded view of a case.
func (c Client) CaseDetail(ctx context.Context, sess Session, id int) (models.CaseDetail, error) {
	var detail models.CaseDetail
	if err := c.doJSON(ctx, sess, http.MethodGet, fmt.Sprintf("/casos/%d/detail", id), nil, nil, &detail); err != nil {
		return models.CaseDetail{}, fmt.Errorf("failed to fetch case detail %d: %w", id, err)
	}
	return detail, nil
}

// CreateCase opens a new case.
func (c Client) CreateCase(ctx context.Context, sess Session, create models.CaseCreate) (models.Case, error) {
	var cs models.Case
	if err := c.doJSON(ctx, sess, http.MethodPost, "/casos/", nil, create, &cs); err != nil {
		return models.Case{}, fmt.Errorf("failed to create case: %w", err)
	}
	return cs, nil
}

// UpdateCase applies a partial update to a case.
func (c Client) UpdateCase(ctx context.Context, sess Session, id int, update models.CaseUpdate) (models.Case, error) {
	var cs models.Case
	if err := c.doJSON(ctx, sess, http.MethodPatch, fmt.Sprintf("/casos/%d", id), nil, update, &cs); err != nil {
		return models.Case{}, fmt.Errorf("failed to update case %d: %w", id, err)
	}
	return cs, nil
}

// ArchiveCase soft-deletes a case; the backend returns the archived record.
func (c Client) ArchiveCase(ctx context.Context, sess Session, id int) (models.Case, error) {
	var cs models.Case
	if err := c.doJSON(ctx, sess, http.MethodDelete, fmt.Sprintf("/casos/%d", id), nil, nil, &cs); err != nil {
		return models.Case{}, fmt.Errorf("failed to archive case %d: %w", id, err)
	}
	return cs, nil
}
