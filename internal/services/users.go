package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// Users lists accounts with offset/limit paging.
func (c Client) Users(ctx context.Context, sess Session, offset, limit int) ([]models.User, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var users []models.User
	if err := c.doJSON(ctx, sess, http.MethodGet, "/users/", query, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UsersCount returns the total number of accounts.
func (c Client) UsersCount(ctx context.Context, sess Session) (int, error) {
	var res struct {
		Total int `json:"total"`
	}
	if err := c.doJSON(ctx, sess, http.MethodGet, "/users/count", nil, nil, &res); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return res.Total, nil
}

// CreateUser registers a new account.
func (c Client) CreateUser(ctx context.Context, sess Session, create models.UserCreate) (models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, sess, http.MethodPost, "/users/", nil, create, &user); err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial update to an account.
func (c Client) UpdateUser(ctx context.Context, sess Session, id int, update models.UserUpdate) (models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, sess, http.MethodPatch, fmt.Sprintf("/users/%d", id), nil, update, &user); err != nil {
		return models.User{}, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

// Roles lists the assignable roles.
func (c Client) Roles(ctx context.Context, sess Session) ([]models.UserRole, error) {
	var roles []models.UserRole
	if err := c.doJSON(ctx, sess, http.MethodGet, "/roles/", nil, nil, &roles); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// Actions lists every grantable permission.
func (c Client) Actions(ctx context.Context, sess Session) ([]models.UserAction, error) {
	var actions []models.UserAction
	if err := c.doJSON(ctx, sess, http.MethodGet, "/actions/", nil, nil, &actions); err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return actions, nil
}

// UserActions lists the permissions granted to one account.
func (c Client) UserActions(ctx context.Context, sess Session, userID int) ([]models.UserAction, error) {
	var actions []models.UserAction
	path := fmt.Sprintf("/users/%d/actions", userID)
	if err := c.doJSON(ctx, sess, http.MethodGet, path, nil, nil, &actions); err != nil {
		return nil, fmt.Errorf("failed to list actions for user %d: %w", userID, err)
	}
	return actions, nil
}

// AssignAction grants a permission to an account.
func (c Client) AssignAction(ctx context.Context, sess Session, userID, actionID int) error {
	path := fmt.Sprintf("/users/%d/actions/%d", userID, actionID)
	if err := c.doJSON(ctx, sess, http.MethodPost, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to assign action %d to user %d: %w", actionID, userID, err)
	}
	return nil
}

// RemoveAction revokes a permission from an account.
func (c Client) RemoveAction(ctx context.Context, sess Session, userID, actionID int) error {
	path := fmt.Sprintf("/users/%d/actions/%d", userID, actionID)
	if err := c.doJSON(ctx, sess, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to remove action %d from user %d: %w", actionID, userID, err)
	}
	return nil
}
