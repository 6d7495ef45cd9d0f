package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
)

// Модели чтения для отображения: ссылки на пользователей и объявления,
// раскрытые join-ом. Бизнес-логика на них не опирается.

type UserSummary struct {
	ID       uuid.UUID
	Name     string
	Phone    string
	Location string
}

type ListingSummary struct {
	ID       uuid.UUID
	CropName string
	Price    valueobject.Money
	Quantity float64
	Unit     valueobject.Unit
	Status   valueobject.ListingStatus
}

type ListingDetails struct {
	Listing
	Farmer UserSummary
}

type OfferDetails struct {
	Offer
	Listing ListingSummary
	Buyer   UserSummary
	Farmer  UserSummary
}

func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:       l.ID,
		CropName: l.CropName,
		Price:    l.Price,
		Quantity: l.Quantity,
		Unit:     l.Unit,
		Status:   l.Status,
	}
}
