package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
)

type CreateOfferRequest struct {
	ListingID  uuid.UUID `json:"listingId" binding:"required"`
	OfferPrice *float64  `json:"offerPrice" binding:"required"`
	Message    string    `json:"message"`
}

type ListingSummaryResponse struct {
	ID       uuid.UUID `json:"id"`
	CropName string    `json:"cropName"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit"`
	Status   string    `json:"status"`
}

type OfferResponse struct {
	ID         uuid.UUID               `json:"id"`
	ListingID  uuid.UUID               `json:"listingId"`
	BuyerID    uuid.UUID               `json:"buyerId"`
	OfferPrice float64                 `json:"offerPrice"`
	Currency   string                  `json:"currency"`
	Message    string                  `json:"message"`
	Status     string                  `json:"status"`
	Listing    *ListingSummaryResponse `json:"listing,omitempty"`
	Buyer      *UserResponse           `json:"buyer,omitempty"`
	Farmer     *UserResponse           `json:"farmer,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

func ToOfferResponse(d *entity.OfferDetails) OfferResponse {
	return OfferResponse{
		ID:         d.ID,
		ListingID:  d.ListingID,
		BuyerID:    d.BuyerID,
		OfferPrice: d.OfferPrice.Amount,
		Currency:   d.OfferPrice.Currency,
		Message:    d.Message,
		Status:     string(d.Status),
		Listing: &ListingSummaryResponse{
			ID:       d.Listing.ID,
			CropName: d.Listing.CropName,
			Price:    d.Listing.Price.Amount,
			Quantity: d.Listing.Quantity,
			Unit:     string(d.Listing.Unit),
			Status:   string(d.Listing.Status),
		},
		Buyer:     ToUserResponse(d.Buyer),
		Farmer:    ToUserResponse(d.Farmer),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func ToOfferResponses(offers []*entity.OfferDetails) []OfferResponse {
	responses := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		responses = append(responses, ToOfferResponse(o))
	}
	return responses
}
