package dto

// UserCreateRequest is the admin registration form payload.
type UserCreateRequest struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Role     string `form:"role"`
}

// RoleChangeRequest is the role change form payload.
type RoleChangeRequest struct {
	Role string `form:"role"`
}
