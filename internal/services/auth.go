package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserData    struct {
		Name     string   `json:"nombre"`
		Email    string   `json:"email"`
		RoleName *string  `json:"rol_nombre"`
		Actions  []string `json:"actions"`
	} `json:"user_data"`
}

// Login exchanges credentials for a Session. The backend expects the OAuth2
// password-grant form encoding on this endpoint rather than JSON.
func (c Client) Login(ctx context.Context, username, password string) (Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/token", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Session{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var res loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Session{}, fmt.Errorf("error decoding response: %w", err)
	}

	profile := UserProfile{
		ID:      userIDFromToken(res.AccessToken),
		Name:    res.UserData.Name,
		Email:   res.UserData.Email,
		Actions: res.UserData.Actions,
	}
	if res.UserData.RoleName != nil {
		profile.Role = *res.UserData.RoleName
	}

	return Session{
		Token: res.AccessToken,
		User:  profile,
	}, nil
}
