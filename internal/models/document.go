package models

// IndexStatus tracks how far the backend has gotten indexing a knowledge
// document into the vector store.
type IndexStatus string

const (
	IndexPending    IndexStatus = "PENDIENTE"
	IndexProcessing IndexStatus = "PROCESANDO"
	IndexCompleted  IndexStatus = "COMPLETADO"
	IndexFailed     IndexStatus = "ERROR"
)

// Document is a knowledge-base document record.
type Document struct {
	ID           int         `json:"id_documento"`
	Title        string      `json:"titulo"`
	Category     string      `json:"categoria"`
	Icon         string      `json:"icono"`
	Description  string      `json:"descripcion"`
	Filename     string      `json:"nombre_archivo"`
	IndexStatus  IndexStatus `json:"estado_indexacion"`
	CreatedAt    string      `json:"fecha_creacion"`
	ModifiedAt   string      `json:"ultima_modificacion"`
	UploaderName string      `json:"nombre_uploader"`
}

// DocumentUpdate is the partial-update payload for a document.
type DocumentUpdate struct {
	Title       *string `json:"titulo,omitempty"`
	Category    *string `json:"categoria,omitempty"`
	Description *string `json:"descripcion,omitempty"`
	Tags        *string `json:"etiquetas,omitempty"`
}

// DocumentUpload carries the metadata accompanying a file upload. The file
// itself travels as a multipart field next to these.
type DocumentUpload struct {
	Title       string
	Category    string
	Description string
	Tags        string
}
