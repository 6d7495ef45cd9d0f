package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
)

type CreateListingRequest struct {
	CropName    string   `json:"cropName" binding:"required"`
	Quantity    *float64 `json:"quantity" binding:"required"`
	Unit        string   `json:"unit"`
	Price       *float64 `json:"price" binding:"required"`
	Currency    string   `json:"currency"`
	Location    string   `json:"location" binding:"required"`
	Description string   `json:"description"`
}

// UpdateListingRequest: отсутствующее поле не меняется.
type UpdateListingRequest struct {
	CropName    *string  `json:"cropName"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Price       *float64 `json:"price"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
}

func (r UpdateListingRequest) Patch() entity.ListingPatch {
	return entity.ListingPatch{
		CropName:    r.CropName,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		Price:       r.Price,
		Location:    r.Location,
		Description: r.Description,
	}
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Location string    `json:"location"`
}

type ListingResponse struct {
	ID          uuid.UUID     `json:"id"`
	FarmerID    uuid.UUID     `json:"farmerId"`
	Farmer      *UserResponse `json:"farmer,omitempty"`
	CropName    string        `json:"cropName"`
	Quantity    float64       `json:"quantity"`
	Unit        string        `json:"unit"`
	Price       float64       `json:"price"`
	Currency    string        `json:"currency"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func ToUserResponse(u entity.UserSummary) *UserResponse {
	return &UserResponse{ID: u.ID, Name: u.Name, Phone: u.Phone, Location: u.Location}
}

func ToListingResponse(l *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		FarmerID:    l.FarmerID,
		CropName:    l.CropName,
		Quantity:    l.Quantity,
		Unit:        string(l.Unit),
		Price:       l.Price.Amount,
		Currency:    l.Price.Currency,
		Location:    l.Location,
		Description: l.Description,
		Image:       l.Image,
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func ToListingDetailsResponse(d *entity.ListingDetails) ListingResponse {
	resp := ToListingResponse(&d.Listing)
	resp.Farmer = ToUserResponse(d.Farmer)
	return resp
}

func ToListingResponses(listings []*entity.Listing) []ListingResponse {
	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToListingResponse(l))
	}
	return responses
}

func ToListingDetailsResponses(listings []*entity.ListingDetails) []ListingResponse {
	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToListingDetailsResponse(l))
	}
	return responses
}
