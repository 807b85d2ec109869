package auth

import (
	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/oid"
)

// RegisterRequest captures a new account signup.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin superadmin"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserDTO is the user shape exposed over the API.
type UserDTO struct {
	ID       oid.ID     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     enums.Role `json:"role"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}

// FromModel maps a stored user onto its API shape.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
