package models

// CaseStatus enumerates the lifecycle states a legal case moves through.
type CaseStatus string

const (
	CaseOpen     CaseStatus = "ABIERTO"
	CaseClosed   CaseStatus = "CERRADO"
	CaseArchived CaseStatus = "ARCHIVADO"
)

// Case is a legal case as stored by the backend. Field names follow the
// backend's Spanish schema.
type Case struct {
	ID          int        `json:"id_caso"`
	UserID      int        `json:"usuario_id"`
	Title       string     `json:"titulo"`
	Description string     `json:"descripcion"`
	Status      CaseStatus `json:"estado"`
	CreatedAt   string     `json:"fecha_creacion"`
	UpdatedAt   string     `json:"fecha_actualizacion"`
}

// CaseDetail is the expanded case view, including the number of documents
// attached to the case.
type CaseDetail struct {
	ID             int        `json:"id_caso"`
	Title          string     `json:"titulo"`
	Description    string     `json:"descripcion"`
	Status         CaseStatus `json:"estado"`
	CreatedAt      string     `json:"fecha_creacion"`
	UpdatedAt      string     `json:"fecha_actualizacion"`
	UserID         int        `json:"usuario_id"`
	TotalDocuments int        `json:"total_documentos"`
}

// CaseCreate is the payload for opening a new case.
type CaseCreate struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion,omitempty"`
	UserID      int    `json:"usuario_id"`
}

// CaseUpdate is the partial-update payload for a case. Nil fields are left
// untouched by the backend.
type CaseUpdate struct {
	Title       *string     `json:"titulo,omitempty"`
	Description *string     `json:"descripcion,omitempty"`
	Status      *CaseStatus `json:"estado,omitempty"`
}
