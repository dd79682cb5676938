package auth

// Roles assigned to accounts.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the account view returned to clients.
type User struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Plan         string `json:"plan"`
	AIUsageLimit int    `json:"aiUsageLimit"`
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the fields an admin may change on an account.
type UpdateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Plan string `json:"plan"`
}
