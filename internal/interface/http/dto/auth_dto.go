package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/service"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Location string `json:"location"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User   ProfileResponse    `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

func ToProfileResponse(u *entity.User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

func ToAuthResponse(r *service.AuthResult) AuthResponse {
	return AuthResponse{User: ToProfileResponse(r.User), Tokens: r.TokenPair}
}
