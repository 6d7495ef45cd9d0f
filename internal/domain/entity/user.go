package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/validation"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Phone        string
	PasswordHash string
	Role         valueobject.Role
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(name, phone, passwordHash string, role valueobject.Role, location string) (*User, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if !role.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "роль должна быть farmer или buyer")
	}

	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Phone:        validation.NormalizePhone(phone),
		PasswordHash: passwordHash,
		Role:         role,
		Location:     strings.TrimSpace(location),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Phone: u.Phone, Location: u.Location}
}
