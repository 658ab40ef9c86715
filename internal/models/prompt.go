package models

// SystemPrompt is an expert-authored prompt configuration the agent can run
// with. A prompt may link knowledge documents that scope its retrieval.
type SystemPrompt struct {
	ID               int     `json:"id_prompt"`
	Name             string  `json:"nombre"`
	Description      string  `json:"descripcion"`
	Instruction      string  `json:"contenido_instruccion"`
	LogicSummary     string  `json:"resumen_logica"`
	RoleContent      string  `json:"contenido_rol"`
	TaskContent      string  `json:"contenido_tarea"`
	ScopeContent     string  `json:"contenido_alcances"`
	ContextContent   string  `json:"contenido_contexto"`
	Active           bool    `json:"es_activo"`
	Temperature      float64 `json:"temperatura"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"penalizacion_frecuencia"`
	MaxTokens        int     `json:"tokens_maximos"`
	CreatorID        int     `json:"id_experto_creador"`
	CreatorName      string  `json:"nombre_creador"`
	CreatedAt        string  `json:"fecha_creacion"`
	UpdatedAt        string  `json:"fecha_actualizacion"`
	DocumentIDs      []int   `json:"documentos_conocimiento"`
}

// SystemPromptCreate is the payload for registering a new prompt.
type SystemPromptCreate struct {
	Name             string   `json:"nombre"`
	Instruction      string   `json:"contenido_instruccion,omitempty"`
	Description      string   `json:"descripcion,omitempty"`
	LogicSummary     string   `json:"resumen_logica,omitempty"`
	RoleContent      string   `json:"contenido_rol,omitempty"`
	TaskContent      string   `json:"contenido_tarea,omitempty"`
	ScopeContent     string   `json:"contenido_alcances,omitempty"`
	ContextContent   string   `json:"contenido_contexto,omitempty"`
	Active           *bool    `json:"es_activo,omitempty"`
	Temperature      *float64 `json:"temperatura,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"penalizacion_frecuencia,omitempty"`
	MaxTokens        *int     `json:"tokens_maximos,omitempty"`
}

// SystemPromptUpdate is the partial-update payload for a prompt.
type SystemPromptUpdate struct {
	Name             *string  `json:"nombre,omitempty"`
	Instruction      *string  `json:"contenido_instruccion,omitempty"`
	Description      *string  `json:"descripcion,omitempty"`
	LogicSummary     *string  `json:"resumen_logica,omitempty"`
	RoleContent      *string  `json:"contenido_rol,omitempty"`
	TaskContent      *string  `json:"contenido_tarea,omitempty"`
	ScopeContent     *string  `json:"contenido_alcances,omitempty"`
	ContextContent   *string  `json:"contenido_contexto,omitempty"`
	Active           *bool    `json:"es_activo,omitempty"`
	Temperature      *float64 `json:"temperatura,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"penalizacion_frecuencia,omitempty"`
	MaxTokens        *int     `json:"tokens_maximos,omitempty"`
	DocumentIDs      []int    `json:"documentos_conocimiento,omitempty"`
}
