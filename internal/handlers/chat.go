package handlers

import (
	"context"
	"html/template"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"

	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

// chatErrorText is the only failure wording ever shown inside a conversation.
// Raw errors stay in the logs.
const chatErrorText = "Error al procesar tu mensaje. Intenta nuevamente."

type viewMessage struct {
	ID             string
	Role           string
	Content        template.HTML
	Context        []models.ContextItem
	StreamingState string
}

type chatPageData struct {
	Title          string
	User           services.UserProfile
	ConversationID string
	General        bool
	Case           *models.CaseDetail
	ChatSession    *models.ChatSession
	Prompt         *models.SystemPrompt
	Messages       []viewMessage
	Sending        bool
}

// HandleChatPage renders a case-bound chat. The conversation is loaded from
// the backend checkpoint; if that fetch fails, the local cache snapshot is
// shown instead so the visit still has history.
func (m Main) HandleChatPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)
	sessionID := r.PathValue("sessionID")
	caseID, err := strconv.Atoi(r.PathValue("caseID"))
	if err != nil {
		http.Error(w, "Invalid case id", http.StatusBadRequest)
		return
	}

	conv := m.loadConversation(r.Context(), sess, sessionID, false)

	data := chatPageData{
		Title:          "Chat",
		User:           sess.User,
		ConversationID: sessionID,
		Sending:        m.sending(sessionID),
	}

	if detail, err := m.api.CaseDetail(r.Context(), sess, caseID); err == nil {
		data.Case = &detail
		data.Title = detail.Title
	} else {
		m.logger.Error("Failed to fetch case detail",
			slog.Int("caseID", caseID),
			slog.String(errLoggerKey, err.Error()))
	}

	if chatSession, err := m.api.ChatSession(r.Context(), sess, sessionID); err == nil {
		data.ChatSession = &chatSession
		if chatSession.SystemPromptID != nil {
			if prompt, err := m.api.Prompt(r.Context(), sess, *chatSession.SystemPromptID); err == nil {
				data.Prompt = &prompt
			}
		}
	}

	data.Messages, err = m.renderConversation(conv)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "chat.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleGeneralChatPage renders the case-less chat. The thread id lives in the
// URL, which keeps it scoped to the browser tab; a visit without one is
// redirected to a fresh thread.
func (m Main) HandleGeneralChatPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	threadID := r.URL.Query().Get("thread")
	if threadID == "" {
		http.Redirect(w, r, "/chat?thread="+uuid.New().String(), http.StatusSeeOther)
		return
	}

	conv := m.loadConversation(r.Context(), sess, threadID, true)

	messages, err := m.renderConversation(conv)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := chatPageData{
		Title:          "Consulta general",
		User:           sess.User,
		ConversationID: threadID,
		General:        true,
		Messages:       messages,
		Sending:        m.sending(threadID),
	}
	if err := m.templates.ExecuteTemplate(w, "chat.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleSendMessage runs one send cycle: it appends the user message and an
// empty assistant placeholder right away, answers the POST with those two
// bubbles, and streams the reply into the placeholder through the SSE topic of
// the conversation. A send is rejected while another one is in flight for the
// same conversation.
func (m Main) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, _ := m.session(r)

	content := strings.TrimSpace(r.FormValue("message"))
	if content == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	threadID := r.FormValue("thread_id")
	general := sessionID == ""
	conversationID := sessionID
	if general {
		conversationID = threadID
	}
	if conversationID == "" {
		http.Error(w, "Conversation id is required", http.StatusBadRequest)
		return
	}

	var opts services.StreamOptions
	if promptID := r.FormValue("prompt_id"); promptID != "" && !general {
		if id, err := strconv.Atoi(promptID); err == nil {
			if prompt, err := m.api.Prompt(r.Context(), sess, id); err == nil {
				opts.PromptOverride = &prompt
			} else {
				m.logger.Warn("Failed to fetch prompt override, sending without it",
					slog.Int("promptID", id),
					slog.String(errLoggerKey, err.Error()))
			}
		}
	}

	m.mu.Lock()
	if m.inFlight[conversationID] {
		m.mu.Unlock()
		http.Error(w, "A message is already being processed", http.StatusConflict)
		return
	}
	conv, ok := m.convs[conversationID]
	if !ok {
		conv = &models.Conversation{SessionID: conversationID}
		m.convs[conversationID] = conv
	}
	m.inFlight[conversationID] = true
	userID, assistantID := conv.AppendUserAndPlaceholder(content)
	m.mu.Unlock()

	go m.runChat(sess, conv, general, content, opts)

	err := m.templates.ExecuteTemplate(w, "user_message", viewMessage{
		ID:             userID,
		Role:           string(models.RoleUser),
		Content:        escapeContent(content),
		StreamingState: "ended",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = m.templates.ExecuteTemplate(w, "ai_message", viewMessage{
		ID:             assistantID,
		Role:           string(models.RoleAssistant),
		StreamingState: "loading",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// runChat consumes the token stream into the trailing assistant message,
// publishing the re-rendered bubble on every token. On stream success the
// conversation is replaced with the reconciled backend state; on any failure
// the optimistic content is kept and the generic error bubble takes its place
// or follows it.
func (m Main) runChat(
	sess services.Session,
	conv *models.Conversation,
	general bool,
	content string,
	opts services.StreamOptions,
) {
	conversationID := conv.SessionID
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, conversationID)
		m.mu.Unlock()

		e := &sse.Message{Type: closeSSEType}
		e.AppendData("bye")
		_ = m.sseSrv.Publish(e, conversationTopic(conversationID))
	}()

	ctx := context.Background()

	var it iter.Seq2[string, error]
	if general {
		it = m.agent.StreamGeneralChat(ctx, sess, conversationID, content)
	} else {
		it = m.agent.StreamChat(ctx, sess, conversationID, content, opts)
	}

	for token, err := range it {
		if err != nil {
			m.logger.Error("Error from agent stream",
				slog.String("conversationID", conversationID),
				slog.String(errLoggerKey, err.Error()))
			m.failConversation(conv)
			return
		}

		m.mu.Lock()
		conv.AppendToken(token)
		last, _ := conv.Last()
		m.mu.Unlock()

		m.publishAssistant(conversationID, last.Content)
	}

	var (
		messages []models.ChatMessage
		err      error
	)
	if general {
		messages, err = m.agent.ReconcileGeneral(ctx, sess, conversationID)
	} else {
		messages, err = m.agent.Reconcile(ctx, sess, conversationID)
	}
	if err != nil {
		// The streamed content is the only record of the reply at this
		// point, so it must stay visible.
		m.logger.Error("Reconciliation failed, keeping optimistic content",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
		m.failConversation(conv)
		return
	}

	m.mu.Lock()
	conv.ReplaceAll(messages)
	snapshot := *conv
	m.mu.Unlock()

	if err := m.cache.SaveConversation(ctx, snapshot); err != nil {
		m.logger.Error("Failed to cache conversation",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
	}

	m.publishConversation(snapshot)
}

// HandleSSE serves the event stream browsers subscribe to for token updates.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

func (m Main) sending(conversationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight[conversationID]
}

// loadConversation returns the live conversation for an id, seeding it from
// the backend checkpoint or, failing that, from the local cache.
func (m Main) loadConversation(
	ctx context.Context,
	sess services.Session,
	conversationID string,
	general bool,
) *models.Conversation {
	m.mu.Lock()
	if conv, ok := m.convs[conversationID]; ok {
		m.mu.Unlock()
		return conv
	}
	m.mu.Unlock()

	var (
		messages []models.ChatMessage
		err      error
	)
	if general {
		messages, err = m.agent.ReconcileGeneral(ctx, sess, conversationID)
	} else {
		messages, err = m.agent.Reconcile(ctx, sess, conversationID)
	}
	if err != nil {
		m.logger.Error("Failed to fetch conversation state, falling back to cache",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
		if cached, found, cacheErr := m.cache.Conversation(ctx, conversationID); cacheErr == nil && found {
			messages = cached.Messages
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.convs[conversationID]; ok {
		return conv
	}
	conv := &models.Conversation{SessionID: conversationID, Messages: messages}
	m.convs[conversationID] = conv
	return conv
}

func (m Main) failConversation(conv *models.Conversation) {
	m.mu.Lock()
	conv.MarkLastAsError(chatErrorText)
	last, _ := conv.Last()
	m.mu.Unlock()

	m.publishAssistant(conv.SessionID, last.Content)
}

// publishAssistant pushes the re-rendered trailing assistant bubble content to
// the conversation topic.
func (m Main) publishAssistant(conversationID, content string) {
	rendered, err := models.RenderMarkdown(content)
	if err != nil {
		m.logger.Error("Failed to render message content",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messageSSEType}
	msg.AppendData(string(rendered))
	if err := m.sseSrv.Publish(&msg, conversationTopic(conversationID)); err != nil {
		m.logger.Error("Failed to publish message",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// publishConversation pushes the whole re-rendered message list, used after
// reconciliation replaces the speculative state.
func (m Main) publishConversation(conv models.Conversation) {
	messages, err := m.renderConversation(&conv)
	if err != nil {
		m.logger.Error("Failed to render conversation",
			slog.String("conversationID", conv.SessionID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	for _, msg := range messages {
		name := "user_message"
		if msg.Role == string(models.RoleAssistant) {
			name = "ai_message"
		}
		if err := m.templates.ExecuteTemplate(&sb, name, msg); err != nil {
			m.logger.Error("Failed to execute message template",
				slog.String(errLoggerKey, err.Error()))
			return
		}
	}

	msg := sse.Message{Type: conversationSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, conversationTopic(conv.SessionID)); err != nil {
		m.logger.Error("Failed to publish conversation",
			slog.String("conversationID", conv.SessionID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// renderConversation converts a conversation into template-ready messages.
// Assistant content is rendered as markdown; user content is escaped as-is.
func (m Main) renderConversation(conv *models.Conversation) ([]viewMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]viewMessage, len(conv.Messages))
	for i, msg := range conv.Messages {
		vm := viewMessage{
			ID:             msg.ID,
			Role:           string(msg.Role),
			Context:        msg.Context,
			StreamingState: "ended",
		}
		if msg.Role == models.RoleAssistant {
			rendered, err := models.RenderMarkdown(msg.Content)
			if err != nil {
				return nil, err
			}
			vm.Content = rendered
			if i == len(conv.Messages)-1 && msg.Content == "" {
				vm.StreamingState = "loading"
			}
		} else {
			vm.Content = escapeContent(msg.Content)
		}
		messages[i] = vm
	}
	return messages, nil
}

func escapeContent(content string) template.HTML {
	return template.HTML(template.HTMLEscapeString(content))
}
