package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/validation"
)

type Offer struct {
	ID         uuid.UUID
	ListingID  uuid.UUID
	BuyerID    uuid.UUID
	OfferPrice valueobject.Money
	Message    string
	Status     valueobject.OfferStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewOffer(listingID, buyerID uuid.UUID, offerPrice valueobject.Money, message string) (*Offer, error) {
	message = strings.TrimSpace(message)
	if err := validation.ValidateOfferMessage(message); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if offerPrice.Amount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "предложенная цена не может быть отрицательной")
	}

	now := time.Now().UTC()
	return &Offer{
		ID:         uuid.New(),
		ListingID:  listingID,
		BuyerID:    buyerID,
		OfferPrice: offerPrice,
		Message:    message,
		Status:     valueobject.OfferStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (o *Offer) Accept() error {
	if !o.IsPending() {
		return apperror.ErrOfferAlreadyHandled
	}
	o.Status = valueobject.OfferStatusAccepted
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (o *Offer) Reject() error {
	if !o.IsPending() {
		return apperror.ErrOfferAlreadyHandled
	}
	o.Status = valueobject.OfferStatusRejected
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// IsOwnedBy: предложение принадлежит покупателю, который его сделал.
func (o *Offer) IsOwnedBy(userID uuid.UUID) bool {
	return o.BuyerID == userID
}

func (o *Offer) IsPending() bool {
	return o.Status == valueobject.OfferStatusPending
}
