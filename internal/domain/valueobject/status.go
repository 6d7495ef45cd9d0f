package valueobject

import "github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusSold      ListingStatus = "sold"
)

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusAvailable, ListingStatusSold:
		return true
	}
	return false
}

// CanTransitionTo: объявление может только уйти из продажи, вернуть его нельзя.
func (s ListingStatus) CanTransitionTo(newStatus ListingStatus) bool {
	transitions := map[ListingStatus][]ListingStatus{
		ListingStatusAvailable: {ListingStatusSold},
		ListingStatusSold:      {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewListingStatus(status string) (ListingStatus, error) {
	s := ListingStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус объявления")
	}
	return s, nil
}

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)
