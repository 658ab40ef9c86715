package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// AgentError is a failure reported by the agent itself inside the token
// stream, as opposed to a transport failure reaching it.
type AgentError struct {
	Message string
}

func (e AgentError) Error() string {
	return e.Message
}

// StreamOptions carries the optional per-send configuration. The zero value
// uses the session's defaults on the backend.
type StreamOptions struct {
	// PromptOverride replaces the session's configured system prompt for this
	// send only.
	PromptOverride *models.SystemPrompt
}

type streamRequest struct {
	Content      string               `json:"content"`
	SystemPrompt *models.SystemPrompt `json:"system_prompt,omitempty"`
}

type streamPayload struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// StreamChat sends content to a case-bound chat session and streams the
// agent's reply. It returns an iterator that yields response tokens in arrival
// order and potential errors. The context can be used to cancel the ongoing
// request; no token is yielded after cancellation.
//
// The stream ends successfully on a "[DONE]" sentinel, or on EOF without one,
// which the backend emits on some paths. A payload carrying an error field
// aborts the iteration with an AgentError; any non-2xx status before streaming
// begins is reported without yielding a single token. Keep-alive lines and
// payloads that are not valid JSON are skipped.
func (c Client) StreamChat(
	ctx context.Context,
	sess Session,
	sessionID, content string,
	opts StreamOptions,
) iter.Seq2[string, error] {
	path := fmt.Sprintf("/chat-agent/%s/stream", url.PathEscape(sessionID))
	return c.stream(ctx, sess, path, nil, streamRequest{
		Content:      content,
		SystemPrompt: opts.PromptOverride,
	})
}

// StreamGeneralChat sends content to the general-purpose chat endpoint, which
// needs no stored session; the thread id correlates turns instead. It behaves
// like StreamChat otherwise.
func (c Client) StreamGeneralChat(
	ctx context.Context,
	sess Session,
	threadID, content string,
) iter.Seq2[string, error] {
	query := url.Values{}
	query.Set("thread_id", threadID)
	return c.stream(ctx, sess, "/chat-agent/general/stream", query, streamRequest{
		Content: content,
	})
}

func (c Client) stream(
	ctx context.Context,
	sess Session,
	path string,
	query url.Values,
	body streamRequest,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			yield("", fmt.Errorf("error marshaling request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.endpoint(path, query), bytes.NewBuffer(jsonBody))
		if err != nil {
			yield("", fmt.Errorf("error creating request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if sess.Token != "" {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			yield("", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody)))
			return
		}

		// The backend frames events as single data lines, not always
		// separated by blank lines, so each complete line is processed on
		// its own regardless of event boundaries.
		reader := bufio.NewReader(resp.Body)
		for {
			line, readErr := reader.ReadString('\n')

			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				c.logger.Debug("Received event", slog.String("event", data))

				if data == "[DONE]" {
					return
				}

				var payload streamPayload
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					// Keep-alives and partial lines are expected protocol noise.
				} else if payload.Error != "" {
					yield("", AgentError{Message: payload.Error})
					return
				} else if payload.Token != "" && !yield(payload.Token, nil) {
					return
				}
			}

			if readErr != nil {
				if errors.Is(readErr, io.EOF) || errors.Is(readErr, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error reading response: %w", readErr))
				return
			}
		}
	}
}
