package models

// Role assignment and permission records as served by the backend.
type (
	// UserRole is a named role users can hold.
	UserRole struct {
		ID          int    `json:"id_rol"`
		Name        string `json:"nombre"`
		Description string `json:"description"`
	}

	// UserAction is a single grantable permission.
	UserAction struct {
		ID          int    `json:"id_action"`
		Name        string `json:"nombre"`
		Description string `json:"descripcion"`
	}
)

// User is an account in the case-management system.
type User struct {
	ID         int          `json:"id"`
	Username   string       `json:"nombre_de_usuario"`
	Email      string       `json:"email"`
	FullName   string       `json:"nombre_completo"`
	Active     string       `json:"activo"`
	RoleID     *int         `json:"id_rol"`
	CreatedAt  string       `json:"fecha_registro"`
	ModifiedAt string       `json:"fecha_ultima_modificacion"`
	Role       *UserRole    `json:"rol,omitempty"`
	Actions    []UserAction `json:"actions,omitempty"`
}

// UserCreate is the payload for registering a new account.
type UserCreate struct {
	Username string `json:"nombre_de_usuario"`
	Email    string `json:"email"`
	FullName string `json:"nombre_completo"`
	Password string `json:"password"`
	RoleID   *int   `json:"id_rol,omitempty"`
}

// UserUpdate is the partial-update payload for an account.
type UserUpdate struct {
	FullName *string `json:"nombre_completo,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Active   *string `json:"activo,omitempty"`
	RoleID   *int    `json:"id_rol,omitempty"`
}
