package valueobject

import (
	"strings"

	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

type Unit string

const (
	UnitKg      Unit = "kg"
	UnitQuintal Unit = "quintal"
	UnitTon     Unit = "ton"
	UnitPieces  Unit = "pieces"
	UnitDozen   Unit = "dozen"
)

const DefaultUnit = UnitKg

func (u Unit) IsValid() bool {
	switch u {
	case UnitKg, UnitQuintal, UnitTon, UnitPieces, UnitDozen:
		return true
	}
	return false
}

// NewUnit возвращает DefaultUnit для пустой строки.
func NewUnit(unit string) (Unit, error) {
	unit = strings.TrimSpace(strings.ToLower(unit))
	if unit == "" {
		return DefaultUnit, nil
	}
	u := Unit(unit)
	if !u.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная единица измерения")
	}
	return u, nil
}

type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

func (r Role) IsValid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

func NewRole(role string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(role)))
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "роль должна быть farmer или buyer")
	}
	return r, nil
}
