package domain

// ============================================================
// Users & roles
// ============================================================

// Role is the papel of an administrative user.
type Role string

const (
	RoleAdministrador Role = "Administrador"
	RoleOperador      Role = "Operador"
	RoleAnalista      Role = "Analista"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrador, RoleOperador, RoleAnalista:
		return true
	}
	return false
}

// Action names a capability checked before a service call runs.
type Action string

const (
	ActionRead            Action = "read"
	ActionManageClients   Action = "manage_clients"
	ActionManageOps       Action = "manage_operations"
	ActionOverrideStatus  Action = "override_status"
	ActionManageReceipts  Action = "manage_receipts"
	ActionDismissReminder Action = "dismiss_reminder"
	ActionManageUsers     Action = "manage_users"
)

var roleCapabilities = map[Role]map[Action]bool{
	RoleAdministrador: {
		ActionRead:            true,
		ActionManageClients:   true,
		ActionManageOps:       true,
		ActionOverrideStatus:  true,
		ActionManageReceipts:  true,
		ActionDismissReminder: true,
		ActionManageUsers:     true,
	},
	RoleOperador: {
		ActionRead:            true,
		ActionManageClients:   true,
		ActionManageOps:       true,
		ActionOverrideStatus:  true,
		ActionManageReceipts:  true,
		ActionDismissReminder: true,
	},
	RoleAnalista: {
		ActionRead: true,
	},
}

// Can reports whether the role grants the action.
func (r Role) Can(a Action) bool {
	return roleCapabilities[r][a]
}

// User is an administrative identity. PasswordHash is a bcrypt hash and
// never leaves the service boundary.
type User struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	Email        string `json:"email"`
	Papel        Role   `json:"papel"`
	PasswordHash string `json:"password_hash"`
}

// View strips the credential.
func (u User) View() UserView {
	return UserView{ID: u.ID, Nome: u.Nome, Email: u.Email, Papel: u.Papel}
}

// UserView is the public representation of a user.
type UserView struct {
	ID    int    `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Papel Role   `json:"papel"`
}

// NewUser is the payload to create or update a user. On update an empty
// password keeps the current one.
type NewUser struct {
	Nome     string `json:"nome" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Papel    Role   `json:"papel" validate:"required,oneof=Administrador Operador Analista"`
	Password string `json:"password"`
}

// Actor is the authenticated principal performing a call.
type Actor struct {
	UserID int
	Email  string
	Role   Role
}

// LoginRequest is the POST /v1/auth/login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        UserView `json:"user"`
}
