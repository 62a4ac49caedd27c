package dto

// LoginRequest is the login form payload.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}
