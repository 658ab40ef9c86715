package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lexvia/lexvia-web-ui/internal/handlers"
	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

type mockAgent struct {
	tokens       []string
	streamErr    error
	reconciled   []models.ChatMessage
	reconcileErr error

	// release, when non-nil, blocks the stream until it is closed.
	release chan struct{}
}

func (a *mockAgent) stream() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if a.release != nil {
			<-a.release
		}
		if a.streamErr != nil {
			yield("", a.streamErr)
			return
		}
		for _, tok := range a.tokens {
			if !yield(tok, nil) {
				return
			}
		}
	}
}

func (a *mockAgent) StreamChat(
	_ context.Context, _ services.Session, _, _ string, _ services.StreamOptions,
) iter.Seq2[string, error] {
	return a.stream()
}

func (a *mockAgent) StreamGeneralChat(
	_ context.Context, _ services.Session, _, _ string,
) iter.Seq2[string, error] {
	return a.stream()
}

func (a *mockAgent) Reconcile(_ context.Context, _ services.Session, _ string) ([]models.ChatMessage, error) {
	return a.reconciled, a.reconcileErr
}

func (a *mockAgent) ReconcileGeneral(_ context.Context, _ services.Session, _ string) ([]models.ChatMessage, error) {
	return a.reconciled, a.reconcileErr
}

type mockCache struct {
	mu     sync.Mutex
	convs  map[string]models.Conversation
	recent map[int][]models.Case
	saved  chan models.Conversation
}

func newMockCache() *mockCache {
	return &mockCache{
		convs:  map[string]models.Conversation{},
		recent: map[int][]models.Case{},
		saved:  make(chan models.Conversation, 8),
	}
}

func (c *mockCache) Conversation(_ context.Context, sessionID string) (models.Conversation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.convs[sessionID]
	return conv, ok, nil
}

func (c *mockCache) SaveConversation(_ context.Context, conv models.Conversation) error {
	c.mu.Lock()
	c.convs[conv.SessionID] = conv
	c.mu.Unlock()
	c.saved <- conv
	return nil
}

func (c *mockCache) DeleteConversation(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.convs, sessionID)
	return nil
}

func (c *mockCache) RecentCases(_ context.Context, userID int) ([]models.Case, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent[userID], nil
}

func (c *mockCache) SaveRecentCases(_ context.Context, userID int, cases []models.Case) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent[userID] = cases
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMain wires a Main against an in-memory agent and cache plus a backend
// stub. When backend is nil every backend call fails, which exercises the
// degraded paths.
func newTestMain(t *testing.T, agent *mockAgent, cache *mockCache, backend http.Handler) handlers.Main {
	t.Helper()

	if backend == nil {
		backend = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		})
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api := services.NewClient(srv.URL, 0, testLogger())

	m, err := handlers.NewMain(agent, cache, api, testLogger())
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}
	return m
}

func waitSaved(t *testing.T, cache *mockCache) models.Conversation {
	t.Helper()
	select {
	case conv := <-cache.saved:
		return conv
	case <-time.After(5 * time.Second):
		t.Fatal("conversation was never cached")
		return models.Conversation{}
	}
}

func TestNewMain(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestHandleLogin(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if r.FormValue("password") != "secreto" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"user_data":    map[string]any{"nombre": "María"},
		})
	})

	m := newTestMain(t, &mockAgent{}, newMockCache(), backend)

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{
			name:       "missing credentials",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong credentials",
			username:   "maria",
			password:   "mal",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid credentials",
			username:   "maria",
			password:   "secreto",
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("username", tt.username)
			form.Set("password", tt.password)

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			m.HandleLogin(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleLogin() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusSeeOther {
				cookies := w.Result().Cookies()
				if len(cookies) == 0 {
					t.Error("HandleLogin() should set a session cookie")
				}
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	called := false
	h := m.RequireAuth(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if called {
		t.Error("handler should not run without a session")
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %v, want redirect to login", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestHandleSendMessage(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		form       url.Values
		wantStatus int
	}{
		{
			name:       "invalid method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "empty message",
			method:     http.MethodPost,
			form:       url.Values{"session_id": {"sess-1"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing conversation id",
			method:     http.MethodPost,
			form:       url.Values{"message": {"Hola"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "valid send",
			method: http.MethodPost,
			form: url.Values{
				"message":    {"Hola"},
				"session_id": {"sess-1"},
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &mockAgent{
				tokens: []string{"Buenos", " días"},
				reconciled: []models.ChatMessage{
					{ID: "srv-0", Role: models.RoleUser, Content: "Hola"},
					{ID: "srv-1", Role: models.RoleAssistant, Content: "Buenos días"},
				},
			}
			cache := newMockCache()
			m := newTestMain(t, agent, cache, nil)

			req := httptest.NewRequest(tt.method, "/chats/send", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			m.HandleSendMessage(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleSendMessage() status = %v, want %v", w.Code, tt.wantStatus)
			}

			if tt.wantStatus != http.StatusOK {
				return
			}

			body := w.Body.String()
			if !strings.Contains(body, "message-user") || !strings.Contains(body, "message-ai") {
				t.Errorf("response should contain both message bubbles, got %q", body)
			}

			conv := waitSaved(t, cache)
			if len(conv.Messages) != 2 {
				t.Fatalf("cached conversation has %d messages, want 2", len(conv.Messages))
			}
			if conv.Messages[1].Content != "Buenos días" {
				t.Errorf("cached assistant content = %q, want the reconciled one", conv.Messages[1].Content)
			}
		})
	}
}

func TestHandleSendMessageConflict(t *testing.T) {
	release := make(chan struct{})
	agent := &mockAgent{release: release}
	cache := newMockCache()
	m := newTestMain(t, agent, cache, nil)

	send := func() *httptest.ResponseRecorder {
		form := url.Values{"message": {"Hola"}, "session_id": {"sess-1"}}
		req := httptest.NewRequest(http.MethodPost, "/chats/send", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		m.HandleSendMessage(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("first send status = %v, want 200", w.Code)
	}
	if w := send(); w.Code != http.StatusConflict {
		t.Errorf("second send status = %v, want 409 while the first is in flight", w.Code)
	}

	close(release)
	waitSaved(t, cache)

	// The in-flight gate clears moments after the snapshot is cached.
	deadline := time.After(5 * time.Second)
	for {
		w := send()
		if w.Code == http.StatusOK {
			waitSaved(t, cache)
			return
		}
		select {
		case <-deadline:
			t.Fatalf("send after completion still rejected with %v", w.Code)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHandleSendMessageStreamFailure(t *testing.T) {
	agent := &mockAgent{streamErr: services.AgentError{Message: "model overloaded"}}
	cache := newMockCache()
	m := newTestMain(t, agent, cache, nil)

	form := url.Values{"message": {"Hola"}, "session_id": {"sess-1"}}
	req := httptest.NewRequest(http.MethodPost, "/chats/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	m.HandleSendMessage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleSendMessage() status = %v, want 200", w.Code)
	}

	// The failed stream is never cached; poll the page until the error bubble
	// replaces the placeholder.
	deadline := time.After(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/casos/1/chats/sess-1", nil)
		req.SetPathValue("caseID", "1")
		req.SetPathValue("sessionID", "sess-1")
		page := httptest.NewRecorder()
		m.HandleChatPage(page, req)

		if strings.Contains(page.Body.String(), "Error al procesar tu mensaje") {
			return
		}
		select {
		case <-deadline:
			t.Fatal("error bubble never appeared in the conversation")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHandleGeneralChatPageRedirect(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	w := httptest.NewRecorder()
	m.HandleGeneralChatPage(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %v, want redirect to a fresh thread", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/chat?thread=") {
		t.Errorf("Location = %q, want /chat?thread=<id>", loc)
	}
}

func TestHandleChatPage(t *testing.T) {
	agent := &mockAgent{
		reconciled: []models.ChatMessage{
			{ID: "srv-0", Role: models.RoleUser, Content: "Hola"},
			{ID: "srv-1", Role: models.RoleAssistant, Content: "Buenos **días**"},
		},
	}
	m := newTestMain(t, agent, newMockCache(), nil)

	req := httptest.NewRequest(http.MethodGet, "/casos/1/chats/sess-1", nil)
	req.SetPathValue("caseID", "1")
	req.SetPathValue("sessionID", "sess-1")
	w := httptest.NewRecorder()

	m.HandleChatPage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleChatPage() status = %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Hola") {
		t.Error("page should contain the user message")
	}
	if !strings.Contains(body, "<strong>días</strong>") {
		t.Error("assistant markdown should be rendered to HTML")
	}
}

func TestHandleArchiveChatSession(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/chats/sess-1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(models.ChatSession{ID: "sess-1"})
	})

	cache := newMockCache()
	cache.convs["sess-1"] = models.Conversation{
		SessionID: "sess-1",
		Messages:  []models.ChatMessage{{ID: "srv-0", Role: models.RoleUser, Content: "Hola"}},
	}

	m := newTestMain(t, &mockAgent{}, cache, backend)

	form := url.Values{"action": {"archivar"}, "session_id": {"sess-1"}}
	req := httptest.NewRequest(http.MethodPost, "/casos/1/chats", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("caseID", "1")
	w := httptest.NewRecorder()

	m.HandleCaseChatSessions(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("archive status = %v, want redirect back to the case", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/casos/1" {
		t.Errorf("Location = %q, want /casos/1", loc)
	}
	if _, ok, _ := cache.Conversation(context.Background(), "sess-1"); ok {
		t.Error("archived session should not keep a cached conversation")
	}
}

func TestHandleArchiveChatSessionMissingID(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	form := url.Values{"action": {"archivar"}}
	req := httptest.NewRequest(http.MethodPost, "/casos/1/chats", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("caseID", "1")
	w := httptest.NewRecorder()

	m.HandleCaseChatSessions(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %v, want 400 without a session id", w.Code)
	}
}

func TestHandleAudit(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	tests := []struct {
		name        string
		query       string
		want        []string
		wantMissing []string
	}{
		{
			name: "no filter lists everything",
			want: []string{"Contrato de Servicios Legales", "Poder Notarial Amplio", "Demanda Civil Ordinaria"},
		},
		{
			name:        "filter by client",
			query:       "minera",
			want:        []string{"Contrato de Servicios Legales", "97%"},
			wantMissing: []string{"Poder Notarial Amplio"},
		},
		{
			name:        "filter by case number",
			query:       "2024-002",
			want:        []string{"Poder Notarial Amplio", "Sin auditar"},
			wantMissing: []string{"Demanda Civil Ordinaria"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auditoria?q="+url.QueryEscape(tt.query), nil)
			w := httptest.NewRecorder()

			m.HandleAudit(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("HandleAudit() status = %v", w.Code)
			}
			body := w.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("page should contain %q", want)
				}
			}
			for _, missing := range tt.wantMissing {
				if strings.Contains(body, missing) {
					t.Errorf("page should not contain %q", missing)
				}
			}
		})
	}
}

func TestHandleAuditSummary(t *testing.T) {
	m := newTestMain(t, &mockAgent{}, newMockCache(), nil)

	t.Run("known case", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auditoria/2024-001", nil)
		req.SetPathValue("caseNumber", "2024-001")
		w := httptest.NewRecorder()

		m.HandleAuditSummary(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("HandleAuditSummary() status = %v", w.Code)
		}
		body := w.Body.String()
		for _, want := range []string{"MINERA SAN CRISTÓBAL", "TARIFAS SIN INDEXACIÓN", "Resumen ejecutivo"} {
			if !strings.Contains(body, want) {
				t.Errorf("page should contain %q", want)
			}
		}
	})

	t.Run("unknown case falls back to a generic report", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auditoria/2099-999", nil)
		req.SetPathValue("caseNumber", "2099-999")
		w := httptest.NewRecorder()

		m.HandleAuditSummary(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("HandleAuditSummary() status = %v", w.Code)
		}
		if !strings.Contains(w.Body.String(), "EXPEDIENTE 2099-999") {
			t.Error("fallback report should name the requested case")
		}
	})
}

func TestHandleLibraryPage(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conocimiento/":
			_ = json.NewEncoder(w).Encode([]models.Document{
				{ID: 7, Title: "Código Civil", Filename: "codigo-civil.pdf"},
			})
		case "/conocimiento/count":
			_ = json.NewEncoder(w).Encode(map[string]int{"total": 1})
		default:
			http.NotFound(w, r)
		}
	})

	m := newTestMain(t, &mockAgent{}, newMockCache(), backend)

	req := httptest.NewRequest(http.MethodGet, "/biblioteca", nil)
	w := httptest.NewRecorder()
	m.HandleLibrary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleLibrary() status = %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Código Civil") {
		t.Error("page should list the document")
	}
	if !strings.Contains(body, "/conocimiento/7/download") {
		t.Error("each row should link to the backend download endpoint")
	}
}

func TestHandleUsersPage(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/":
			_ = json.NewEncoder(w).Encode([]models.User{
				{ID: 1, Username: "maria", FullName: "María García", Email: "maria@lexvia.bo", Active: "active"},
				{ID: 2, Username: "jorge", FullName: "Jorge Rocha", Email: "jorge@lexvia.bo", Active: "inactive"},
			})
		case "/users/count":
			_ = json.NewEncoder(w).Encode(map[string]int{"total": 2})
		default:
			http.NotFound(w, r)
		}
	})

	m := newTestMain(t, &mockAgent{}, newMockCache(), backend)

	req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	w := httptest.NewRecorder()
	m.HandleUsers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleUsers() status = %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<select name="activo">`) {
		t.Error("each account row should offer an active state control")
	}
	if !strings.Contains(body, `value="active" selected`) {
		t.Error("active accounts should preselect the active option")
	}
	if !strings.Contains(body, `value="inactive" selected`) {
		t.Error("inactive accounts should preselect the inactive option")
	}
}

func TestHandleUserUpdateActiveState(t *testing.T) {
	var got models.UserUpdate
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/2" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.User{ID: 2, Active: "inactive"})
	})

	m := newTestMain(t, &mockAgent{}, newMockCache(), backend)

	form := url.Values{"activo": {"inactive"}}
	req := httptest.NewRequest(http.MethodPost, "/usuarios/2", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("userID", "2")
	w := httptest.NewRecorder()

	m.HandleUserUpdate(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("HandleUserUpdate() status = %v", w.Code)
	}
	if got.Active == nil || *got.Active != "inactive" {
		t.Errorf("update payload activo = %v, want inactive", got.Active)
	}
}

func TestHandleHomeFallsBackToCache(t *testing.T) {
	cache := newMockCache()
	cache.recent[0] = []models.Case{{ID: 1, Title: "Divorcio García", Status: models.CaseOpen}}

	m := newTestMain(t, &mockAgent{}, cache, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	m.HandleHome(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleHome() status = %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Divorcio García") {
		t.Error("page should list the cached case")
	}
	if !strings.Contains(body, "copia local") {
		t.Error("page should flag the cached data as stale")
	}
}
