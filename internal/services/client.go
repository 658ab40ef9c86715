package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Session carries the authenticated caller's token and profile. It is created
// by Login, held by the web layer for the lifetime of the browser session, and
// passed explicitly into every backend call.
type Session struct {
	Token string
	User  UserProfile
}

// UserProfile is the minimal identity attached to a Session.
type UserProfile struct {
	ID      int
	Name    string
	Email   string
	Role    string
	Actions []string
}

// Can reports whether the profile holds the named permission.
func (p UserProfile) Can(action string) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Client talks to the case-management backend over REST and SSE. All state
// lives on the backend; the client is stateless apart from its configuration.
type Client struct {
	baseURL string
	timeout time.Duration

	client *http.Client

	logger *slog.Logger
}

const errLoggerKey = "err"

// NewClient creates a Client for the backend reachable at baseURL. The URL is
// used as-is as a prefix for every endpoint path. The timeout bounds plain
// REST calls only; streaming requests run until the stream ends or the
// caller's context is cancelled.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) Client {
	return Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "backend")),
	}
}

func (c Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doJSON issues a JSON request against the backend and decodes the response
// into out when out is non-nil. Any non-2xx status is returned as an error
// carrying the response body.
func (c Client) doJSON(
	ctx context.Context,
	sess Session,
	method, path string,
	query url.Values,
	body, out any,
) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// userIDFromToken extracts the numeric subject claim from a JWT access token.
// The token is not verified here; the backend is the authority, the ID is only
// used to scope client-side conveniences like the recent-cases cache.
func userIDFromToken(token string) int {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0
	}
	id, err := strconv.Atoi(claims.Sub)
	if err != nil {
		return 0
	}
	return id
}
