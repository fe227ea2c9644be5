package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID       int64    `json:"user_id"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	CustomerType string   `json:"customer_type"`
	IsAdmin      bool     `json:"is_admin"`
}
