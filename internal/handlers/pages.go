package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

const defaultPageSize = 50

type homePageData struct {
	Title       string
	User        services.UserProfile
	RecentCases []models.Case
	FromCache   bool
}

// HandleHome renders the dashboard with the caller's recent cases. When the
// backend is unreachable the cached list is shown instead, flagged as stale.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	data := homePageData{
		Title: "Panel",
		User:  sess.User,
	}

	cases, err := m.api.RecentActiveCases(r.Context(), sess)
	if err != nil {
		m.logger.Error("Failed to fetch recent cases, falling back to cache",
			slog.String(errLoggerKey, err.Error()))
		if cached, cacheErr := m.cache.RecentCases(r.Context(), sess.User.ID); cacheErr == nil {
			data.RecentCases = cached
			data.FromCache = true
		}
	} else {
		data.RecentCases = cases
		if err := m.cache.SaveRecentCases(r.Context(), sess.User.ID, cases); err != nil {
			m.logger.Error("Failed to cache recent cases", slog.String(errLoggerKey, err.Error()))
		}
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type casesPageData struct {
	Title  string
	User   services.UserProfile
	Cases  []models.Case
	Offset int
	Limit  int
	Error  string
}

// HandleCases lists cases on GET and opens a new one on POST.
func (m Main) HandleCases(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	if r.Method == http.MethodPost {
		title := strings.TrimSpace(r.FormValue("titulo"))
		if title == "" {
			http.Error(w, "Title is required", http.StatusBadRequest)
			return
		}
		create := models.CaseCreate{
			Title:       title,
			Description: r.FormValue("descripcion"),
			UserID:      sess.User.ID,
		}
		cs, err := m.api.CreateCase(r.Context(), sess, create)
		if err != nil {
			m.logger.Error("Failed to create case", slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/casos/"+strconv.Itoa(cs.ID), http.StatusSeeOther)
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultPageSize)

	data := casesPageData{
		Title:  "Casos",
		User:   sess.User,
		Offset: offset,
		Limit:  limit,
	}
	cases, err := m.api.Cases(r.Context(), sess, offset, limit)
	if err != nil {
		m.logger.Error("Failed to list cases", slog.String(errLoggerKey, err.Error()))
		data.Error = "No se pudieron cargar los casos."
	} else {
		data.Cases = cases
	}

	if err := m.templates.ExecuteTemplate(w, "cases.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type caseDetailPageData struct {
	Title    string
	User     services.UserProfile
	Case     models.CaseDetail
	Sessions []models.ChatSession
	Prompts  []models.SystemPrompt
}

// HandleCaseDetail shows one case with its chat sessions. POST applies status
// or metadata updates; the "archivar" action soft-deletes the case.
func (m Main) HandleCaseDetail(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)
	id, err := strconv.Atoi(r.PathValue("caseID"))
	if err != nil {
		http.Error(w, "Invalid case id", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPost {
		switch r.FormValue("action") {
		case "archivar":
			if _, err := m.api.ArchiveCase(r.Context(), sess, id); err != nil {
				m.logger.Error("Failed to archive case",
					slog.Int("caseID", id),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/casos", http.StatusSeeOther)
			return
		default:
			update := models.CaseUpdate{}
			if v := r.FormValue("titulo"); v != "" {
				update.Title = &v
			}
			if v := r.FormValue("descripcion"); v != "" {
				update.Description = &v
			}
			if v := r.FormValue("estado"); v != "" {
				status := models.CaseStatus(v)
				update.Status = &status
			}
			if _, err := m.api.UpdateCase(r.Context(), sess, id, update); err != nil {
				m.logger.Error("Failed to update case",
					slog.Int("caseID", id),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		http.Redirect(w, r, "/casos/"+strconv.Itoa(id), http.StatusSeeOther)
		return
	}

	detail, err := m.api.CaseDetail(r.Context(), sess, id)
	if err != nil {
		m.logger.Error("Failed to fetch case detail",
			slog.Int("caseID", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := caseDetailPageData{
		Title: detail.Title,
		User:  sess.User,
		Case:  detail,
	}
	if sessions, err := m.api.ChatSessionsByCase(r.Context(), sess, id); err == nil {
		data.Sessions = sessions
	}
	if prompts, err := m.api.ActivePrompts(r.Context(), sess); err == nil {
		data.Prompts = prompts
	}

	if err := m.templates.ExecuteTemplate(w, "case_detail.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleCaseChatSessions opens a chat session on a case and jumps into it;
// the "archivar" action deactivates one instead and drops its cached
// conversation.
func (m Main) HandleCaseChatSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, _ := m.session(r)
	caseID, err := strconv.Atoi(r.PathValue("caseID"))
	if err != nil {
		http.Error(w, "Invalid case id", http.StatusBadRequest)
		return
	}

	if r.FormValue("action") == "archivar" {
		m.archiveChatSession(w, r, sess, caseID)
		return
	}

	promptID, err := strconv.Atoi(r.FormValue("prompt_id"))
	if err != nil {
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.FormValue("titulo"))
	if title == "" {
		title = "Nueva consulta"
	}

	chat, err := m.api.CreateChatSession(r.Context(), sess, models.ChatSessionCreate{
		Title:          title,
		CaseID:         caseID,
		SystemPromptID: promptID,
	})
	if err != nil {
		m.logger.Error("Failed to create chat session",
			slog.Int("caseID", caseID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/casos/"+strconv.Itoa(caseID)+"/chats/"+chat.ID, http.StatusSeeOther)
}

func (m Main) archiveChatSession(w http.ResponseWriter, r *http.Request, sess services.Session, caseID int) {
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		http.Error(w, "Session id is required", http.StatusBadRequest)
		return
	}

	if _, err := m.api.ArchiveChatSession(r.Context(), sess, sessionID); err != nil {
		m.logger.Error("Failed to archive chat session",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// An archived session is gone from the UI; its snapshot and live state
	// must not resurface on the next visit.
	if err := m.cache.DeleteConversation(r.Context(), sessionID); err != nil {
		m.logger.Error("Failed to drop cached conversation",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
	}
	m.mu.Lock()
	delete(m.convs, sessionID)
	m.mu.Unlock()

	http.Redirect(w, r, "/casos/"+strconv.Itoa(caseID), http.StatusSeeOther)
}

type libraryDocument struct {
	models.Document
	DownloadURL string
}

type libraryPageData struct {
	Title     string
	User      services.UserProfile
	Documents []libraryDocument
	Total     int
	Offset    int
	Limit     int
	Search    string
	Category  string
	Error     string
}

// HandleLibrary lists the knowledge base with search and category filters;
// POST uploads a new document.
func (m Main) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	if r.Method == http.MethodPost {
		m.handleDocumentUpload(w, r, sess)
		return
	}

	filter := services.DocumentFilter{
		Offset:   queryInt(r, "offset", 0),
		Limit:    queryInt(r, "limit", defaultPageSize),
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("categoria"),
	}

	data := libraryPageData{
		Title:    "Biblioteca",
		User:     sess.User,
		Offset:   filter.Offset,
		Limit:    filter.Limit,
		Search:   filter.Search,
		Category: filter.Category,
	}

	docs, err := m.api.Documents(r.Context(), sess, filter)
	if err != nil {
		m.logger.Error("Failed to list documents", slog.String(errLoggerKey, err.Error()))
		data.Error = "No se pudieron cargar los documentos."
	} else {
		for _, doc := range docs {
			data.Documents = append(data.Documents, libraryDocument{
				Document:    doc,
				DownloadURL: m.api.DocumentDownloadURL(doc.ID),
			})
		}
		if total, err := m.api.DocumentsCount(r.Context(), sess, filter); err == nil {
			data.Total = total
		}
	}

	if err := m.templates.ExecuteTemplate(w, "library.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m Main) handleDocumentUpload(w http.ResponseWriter, r *http.Request, sess services.Session) {
	file, header, err := r.FormFile("archivo")
	if err != nil {
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("titulo"))
	if title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	upload := models.DocumentUpload{
		Title:       title,
		Category:    r.FormValue("categoria"),
		Description: r.FormValue("descripcion"),
		Tags:        r.FormValue("etiquetas"),
	}
	if _, err := m.api.UploadDocument(r.Context(), sess, upload, header.Filename, file); err != nil {
		m.logger.Error("Failed to upload document",
			slog.String("filename", header.Filename),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/biblioteca", http.StatusSeeOther)
}

// HandleDocument updates or deletes one document record.
func (m Main) HandleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, _ := m.session(r)
	id, err := strconv.Atoi(r.PathValue("documentID"))
	if err != nil {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return
	}

	if r.FormValue("action") == "eliminar" {
		if err := m.api.DeleteDocument(r.Context(), sess, id); err != nil {
			m.logger.Error("Failed to delete document",
				slog.Int("documentID", id),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/biblioteca", http.StatusSeeOther)
		return
	}

	update := models.DocumentUpdate{}
	if v := r.FormValue("titulo"); v != "" {
		update.Title = &v
	}
	if v := r.FormValue("categoria"); v != "" {
		update.Category = &v
	}
	if v := r.FormValue("descripcion"); v != "" {
		update.Description = &v
	}
	if _, err := m.api.UpdateDocument(r.Context(), sess, id, update); err != nil {
		m.logger.Error("Failed to update document",
			slog.Int("documentID", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/biblioteca", http.StatusSeeOther)
}

type promptsPageData struct {
	Title   string
	User    services.UserProfile
	Prompts []models.SystemPrompt
	Total   int
	Offset  int
	Limit   int
	Search  string
	Error   string
}

// HandlePrompts lists system prompts; POST registers a new one.
func (m Main) HandlePrompts(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	if r.Method == http.MethodPost {
		name := strings.TrimSpace(r.FormValue("nombre"))
		if name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		create := models.SystemPromptCreate{
			Name:        name,
			Instruction: r.FormValue("contenido_instruccion"),
			Description: r.FormValue("descripcion"),
		}
		prompt, err := m.api.CreatePrompt(r.Context(), sess, create)
		if err != nil {
			m.logger.Error("Failed to create prompt", slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/prompts/"+strconv.Itoa(prompt.ID), http.StatusSeeOther)
		return
	}

	filter := services.PromptFilter{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", defaultPageSize),
		Search: r.URL.Query().Get("search"),
	}

	data := promptsPageData{
		Title:  "Prompts",
		User:   sess.User,
		Offset: filter.Offset,
		Limit:  filter.Limit,
		Search: filter.Search,
	}
	prompts, err := m.api.Prompts(r.Context(), sess, filter)
	if err != nil {
		m.logger.Error("Failed to list prompts", slog.String(errLoggerKey, err.Error()))
		data.Error = "No se pudieron cargar los prompts."
	} else {
		data.Prompts = prompts
		if total, err := m.api.PromptsCount(r.Context(), sess, filter); err == nil {
			data.Total = total
		}
	}

	if err := m.templates.ExecuteTemplate(w, "prompts.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type promptEditorPageData struct {
	Title  string
	User   services.UserProfile
	Prompt models.SystemPrompt
}

// HandlePromptDetail renders the prompt editor; POST saves edits or deletes
// the prompt.
func (m Main) HandlePromptDetail(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)
	id, err := strconv.Atoi(r.PathValue("promptID"))
	if err != nil {
		http.Error(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPost {
		if r.FormValue("action") == "eliminar" {
			if _, err := m.api.DeletePrompt(r.Context(), sess, id); err != nil {
				m.logger.Error("Failed to delete prompt",
					slog.Int("promptID", id),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/prompts", http.StatusSeeOther)
			return
		}

		update := models.SystemPromptUpdate{}
		if v := r.FormValue("nombre"); v != "" {
			update.Name = &v
		}
		if v := r.FormValue("contenido_instruccion"); v != "" {
			update.Instruction = &v
		}
		if v := r.FormValue("descripcion"); v != "" {
			update.Description = &v
		}
		if v := r.FormValue("es_activo"); v != "" {
			active := v == "true" || v == "on"
			update.Active = &active
		}
		if v := r.FormValue("temperatura"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				update.Temperature = &f
			}
		}
		if v := r.FormValue("tokens_maximos"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				update.MaxTokens = &n
			}
		}
		if _, err := m.api.UpdatePrompt(r.Context(), sess, id, update); err != nil {
			m.logger.Error("Failed to update prompt",
				slog.Int("promptID", id),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/prompts/"+strconv.Itoa(id), http.StatusSeeOther)
		return
	}

	prompt, err := m.api.Prompt(r.Context(), sess, id)
	if err != nil {
		m.logger.Error("Failed to fetch prompt",
			slog.Int("promptID", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := promptEditorPageData{
		Title:  prompt.Name,
		User:   sess.User,
		Prompt: prompt,
	}
	if err := m.templates.ExecuteTemplate(w, "prompt_editor.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type usersPageData struct {
	Title string
	User  services.UserProfile
	Users []models.User
	Roles []models.UserRole
	Total int
	Error string
}

// HandleUsers lists accounts and roles; POST creates an account.
func (m Main) HandleUsers(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	if r.Method == http.MethodPost {
		create := models.UserCreate{
			Username: strings.TrimSpace(r.FormValue("nombre_de_usuario")),
			Email:    strings.TrimSpace(r.FormValue("email")),
			FullName: strings.TrimSpace(r.FormValue("nombre_completo")),
			Password: r.FormValue("password"),
		}
		if create.Username == "" || create.Email == "" || create.Password == "" {
			http.Error(w, "Username, email and password are required", http.StatusBadRequest)
			return
		}
		if v := r.FormValue("id_rol"); v != "" {
			if roleID, err := strconv.Atoi(v); err == nil {
				create.RoleID = &roleID
			}
		}
		if _, err := m.api.CreateUser(r.Context(), sess, create); err != nil {
			m.logger.Error("Failed to create user", slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
		return
	}

	data := usersPageData{
		Title: "Usuarios",
		User:  sess.User,
	}
	users, err := m.api.Users(r.Context(), sess, 0, 200)
	if err != nil {
		m.logger.Error("Failed to list users", slog.String(errLoggerKey, err.Error()))
		data.Error = "No se pudieron cargar los usuarios."
	} else {
		data.Users = users
		if total, err := m.api.UsersCount(r.Context(), sess); err == nil {
			data.Total = total
		}
	}
	if roles, err := m.api.Roles(r.Context(), sess); err == nil {
		data.Roles = roles
	}

	if err := m.templates.ExecuteTemplate(w, "users.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleUserUpdate applies account edits or permission changes.
func (m Main) HandleUserUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, _ := m.session(r)
	id, err := strconv.Atoi(r.PathValue("userID"))
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	switch r.FormValue("action") {
	case "asignar_accion":
		actionID, err := strconv.Atoi(r.FormValue("action_id"))
		if err != nil {
			http.Error(w, "Invalid action id", http.StatusBadRequest)
			return
		}
		err = m.api.AssignAction(r.Context(), sess, id, actionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case "quitar_accion":
		actionID, err := strconv.Atoi(r.FormValue("action_id"))
		if err != nil {
			http.Error(w, "Invalid action id", http.StatusBadRequest)
			return
		}
		err = m.api.RemoveAction(r.Context(), sess, id, actionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		update := models.UserUpdate{}
		if v := r.FormValue("nombre_completo"); v != "" {
			update.FullName = &v
		}
		if v := r.FormValue("email"); v != "" {
			update.Email = &v
		}
		if v := r.FormValue("password"); v != "" {
			update.Password = &v
		}
		if v := r.FormValue("activo"); v != "" {
			update.Active = &v
		}
		if v := r.FormValue("id_rol"); v != "" {
			if roleID, err := strconv.Atoi(v); err == nil {
				update.RoleID = &roleID
			}
		}
		if _, err := m.api.UpdateUser(r.Context(), sess, id, update); err != nil {
			m.logger.Error("Failed to update user",
				slog.Int("userID", id),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
}

type searchPageData struct {
	Title   string
	User    services.UserProfile
	Query   string
	Source  string
	Sources []string
	Results []services.SearchResult
	Error   string
}

// HandleSearch runs ad-hoc similarity searches against the knowledge base.
func (m Main) HandleSearch(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	data := searchPageData{
		Title:  "Buscar en la base de conocimiento",
		User:   sess.User,
		Query:  r.URL.Query().Get("q"),
		Source: r.URL.Query().Get("fuente"),
	}

	if sources, err := m.api.KnowledgeSources(r.Context(), sess); err == nil {
		data.Sources = sources
	}

	if data.Query != "" {
		res, err := m.api.SearchKnowledge(r.Context(), sess, data.Query, queryInt(r, "k", 5), data.Source)
		if err != nil {
			m.logger.Error("Knowledge search failed",
				slog.String("query", data.Query),
				slog.String(errLoggerKey, err.Error()))
			data.Error = "La búsqueda falló. Intenta nuevamente."
		} else {
			data.Results = res.Results
		}
	}

	if err := m.templates.ExecuteTemplate(w, "search.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
