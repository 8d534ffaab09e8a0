package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	DOB      *string `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
}

// LoginInput is the credential check payload. Role selects which surface the
// client is signing into; a customer cannot log into the admin panel.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=customer admin"`
}

// UserDTO is the outward representation of a user. The password hash never
// leaves the service.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	DOB       *string        `json:"dob,omitempty"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toUserDTO(user *models.User) *UserDTO {
	return &UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		DOB:       user.DOB,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
