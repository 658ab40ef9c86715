package handlers

import (
	"context"
	"fmt"
	"html/template"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/tmaxmax/go-sse"

	lexviaui "github.com/lexvia/lexvia-web-ui"
	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

// AgentAPI is the slice of the backend client the chat core needs: streaming
// a reply and fetching the authoritative state afterwards.
type AgentAPI interface {
	StreamChat(
		ctx context.Context,
		sess services.Session,
		sessionID, content string,
		opts services.StreamOptions,
	) iter.Seq2[string, error]
	StreamGeneralChat(
		ctx context.Context,
		sess services.Session,
		threadID, content string,
	) iter.Seq2[string, error]
	Reconcile(ctx context.Context, sess services.Session, sessionID string) ([]models.ChatMessage, error)
	ReconcileGeneral(ctx context.Context, sess services.Session, threadID string) ([]models.ChatMessage, error)
}

// ConversationCache persists conversation snapshots and the dashboard's
// recent-case list between visits. It is advisory; a failed cache never
// blocks a chat or a page render.
type ConversationCache interface {
	Conversation(ctx context.Context, sessionID string) (models.Conversation, bool, error)
	SaveConversation(ctx context.Context, conv models.Conversation) error
	DeleteConversation(ctx context.Context, sessionID string) error
	RecentCases(ctx context.Context, userID int) ([]models.Case, error)
	SaveRecentCases(ctx context.Context, userID int, cases []models.Case) error
}

// Main handles the web interface: page rendering, the chat send cycle, and
// the server-sent events pushing streamed tokens to the browser.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	agent AgentAPI
	cache ConversationCache
	api   services.Client

	auth *sessionStore

	logger *slog.Logger

	// mu guards convs and inFlight. Each conversation is mutated by at most
	// one send cycle at a time; inFlight is the gate that serializes sends
	// per session.
	mu       *sync.Mutex
	convs    map[string]*models.Conversation
	inFlight map[string]bool
}

const errLoggerKey = "err"

var (
	messageSSEType      = sse.Type("message")
	conversationSSEType = sse.Type("conversation")
	closeSSEType        = sse.Type("closeMessage")
)

// NewMain creates a Main instance wired to the backend client, the local
// cache, and the embedded templates. The SSE server subscribes each browser
// connection to the conversation topic it asks for.
func NewMain(agent AgentAPI, cache ConversationCache, api services.Client, logger *slog.Logger) (Main, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}).ParseFS(
		lexviaui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}
				if conversationID := s.Req.URL.Query().Get("conversation_id"); conversationID != "" {
					topics = append(topics, conversationTopic(conversationID))
				}
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates: tmpl,
		agent:     agent,
		cache:     cache,
		api:       api,
		auth:      newSessionStore(),
		logger:    logger.With(slog.String("module", "handlers")),
		mu:        &sync.Mutex{},
		convs:     map[string]*models.Conversation{},
		inFlight:  map[string]bool{},
	}, nil
}

func conversationTopic(sessionID string) string {
	return fmt.Sprintf("conversation-%s", sessionID)
}

// Shutdown gracefully terminates the SSE server, broadcasting a close message
// and waiting up to 5 seconds for connections to drain.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: closeSSEType}
	e.AppendData("bye")
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}
