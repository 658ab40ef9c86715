package models

// ChatSession is the server-side record correlating a conversation to a case
// and the prompt it runs with. The ID doubles as the checkpoint identifier
// passed to the streaming and state endpoints.
type ChatSession struct {
	ID             string `json:"id_session"`
	Title          string `json:"titulo"`
	CaseID         *int   `json:"caso_id"`
	SystemPromptID *int   `json:"system_prompt_id"`
	Active         bool   `json:"es_activo"`
	CreatedAt      string `json:"fecha_creacion"`
	LastAccessedAt string `json:"ultimo_acceso"`
}

// ChatSessionCreate is the payload for opening a chat session on a case.
type ChatSessionCreate struct {
	Title          string `json:"titulo"`
	CaseID         int    `json:"caso_id"`
	SystemPromptID int    `json:"system_prompt_id"`
}
