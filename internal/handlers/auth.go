package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexvia/lexvia-web-ui/internal/services"
)

const sessionCookieName = "lexvia_session"

// sessionStore maps browser session cookies to authenticated backend
// sessions. It lives in process memory; restarting the server logs every
// browser out, which is acceptable for this UI.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]services.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]services.Session{}}
}

func (s *sessionStore) put(sess services.Session) string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
	return id
}

func (s *sessionStore) get(id string) (services.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// session resolves the backend session for a request, or reports false when
// the browser is not logged in.
func (m Main) session(r *http.Request) (services.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return services.Session{}, false
	}
	return m.auth.get(cookie.Value)
}

// RequireAuth wraps a handler, redirecting to the login page when the request
// carries no valid session.
func (m Main) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.session(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// HandleLogin renders the login form on GET and exchanges the submitted
// credentials for a backend session on POST.
func (m Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if err := m.templates.ExecuteTemplate(w, "login.html", loginPageData{}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		m.renderLoginError(w, "Usuario y contraseña son requeridos")
		return
	}

	sess, err := m.api.Login(r.Context(), username, password)
	if err != nil {
		m.logger.Error("Login failed",
			slog.String("username", username),
			slog.String(errLoggerKey, err.Error()))
		m.renderLoginError(w, "Credenciales inválidas")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.auth.put(sess),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(12 * time.Hour),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the browser session and returns to the login page.
func (m Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		m.auth.delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginPageData struct {
	Error string
}

func (m Main) renderLoginError(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusUnauthorized)
	if err := m.templates.ExecuteTemplate(w, "login.html", loginPageData{Error: msg}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
