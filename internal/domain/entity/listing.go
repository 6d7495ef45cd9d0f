package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/validation"
)

type Listing struct {
	ID          uuid.UUID
	FarmerID    uuid.UUID
	CropName    string
	Quantity    float64
	Unit        valueobject.Unit
	Price       valueobject.Money
	Location    string
	Description string
	Image       string
	Status      valueobject.ListingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewListing(farmerID uuid.UUID, cropName string, quantity float64, unit string, price valueobject.Money, location, description string) (*Listing, error) {
	cropName = strings.TrimSpace(cropName)
	location = strings.TrimSpace(location)
	description = strings.TrimSpace(description)

	if err := validateListingFields(cropName, quantity, location, description); err != nil {
		return nil, err
	}

	u, err := valueobject.NewUnit(unit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Listing{
		ID:          uuid.New(),
		FarmerID:    farmerID,
		CropName:    cropName,
		Quantity:    quantity,
		Unit:        u,
		Price:       price,
		Location:    location,
		Description: description,
		Status:      valueobject.ListingStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateListingFields(cropName string, quantity float64, location, description string) error {
	if cropName == "" {
		return apperror.New(apperror.ErrCodeValidation, "название культуры обязательно")
	}
	if err := validation.ValidateLength("название культуры", cropName, 0, validation.MaxCropNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if quantity < 0 {
		return apperror.New(apperror.ErrCodeValidation, "количество не может быть отрицательным")
	}
	if quantity > validation.MaxQuantity {
		return apperror.New(apperror.ErrCodeValidation, "количество слишком велико")
	}
	if location == "" {
		return apperror.New(apperror.ErrCodeValidation, "местоположение обязательно")
	}
	if err := validation.ValidateLength("местоположение", location, 0, validation.MaxLocationLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", description, 0, validation.MaxDescriptionLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// ListingPatch содержит изменяемые поля; nil означает «не менять».
type ListingPatch struct {
	CropName    *string
	Quantity    *float64
	Unit        *string
	Price       *float64
	Location    *string
	Description *string
}

func (p ListingPatch) IsEmpty() bool {
	return p.CropName == nil && p.Quantity == nil && p.Unit == nil &&
		p.Price == nil && p.Location == nil && p.Description == nil
}

// Apply применяет изменения к копии полей и записывает их только если все проверки прошли.
func (l *Listing) Apply(p ListingPatch) error {
	cropName, quantity, unit := l.CropName, l.Quantity, l.Unit
	price, location, description := l.Price, l.Location, l.Description

	if p.CropName != nil {
		cropName = strings.TrimSpace(*p.CropName)
	}
	if p.Quantity != nil {
		quantity = *p.Quantity
	}
	if p.Unit != nil {
		u, err := valueobject.NewUnit(*p.Unit)
		if err != nil {
			return err
		}
		unit = u
	}
	if p.Price != nil {
		m, err := valueobject.NewMoney(*p.Price, price.Currency)
		if err != nil {
			return err
		}
		price = m
	}
	if p.Location != nil {
		location = strings.TrimSpace(*p.Location)
	}
	if p.Description != nil {
		description = strings.TrimSpace(*p.Description)
	}

	if err := validateListingFields(cropName, quantity, location, description); err != nil {
		return err
	}

	l.CropName, l.Quantity, l.Unit = cropName, quantity, unit
	l.Price, l.Location, l.Description = price, location, description
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *Listing) MarkSold() error {
	if !l.Status.CanTransitionTo(valueobject.ListingStatusSold) {
		return apperror.ErrListingNotAvailable
	}
	l.Status = valueobject.ListingStatusSold
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.FarmerID == userID
}

func (l *Listing) IsAvailable() bool {
	return l.Status == valueobject.ListingStatusAvailable
}
