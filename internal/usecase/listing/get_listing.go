package listing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type GetListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewGetListingUseCase(listingRepo repository.ListingRepository) *GetListingUseCase {
	return &GetListingUseCase{listingRepo: listingRepo}
}

func (uc *GetListingUseCase) Execute(ctx context.Context, listingID uuid.UUID) (*entity.ListingDetails, error) {
	return uc.listingRepo.FindByIDWithFarmer(ctx, listingID)
}

type SearchListingsInput struct {
	Crop     string
	Location string
	MinPrice *float64
	MaxPrice *float64
	// Status по умолчанию available.
	Status string
	Limit  int
	Offset int
}

type SearchListingsUseCase struct {
	listingRepo repository.ListingRepository
}

func NewSearchListingsUseCase(listingRepo repository.ListingRepository) *SearchListingsUseCase {
	return &SearchListingsUseCase{listingRepo: listingRepo}
}

func (uc *SearchListingsUseCase) Execute(ctx context.Context, input SearchListingsInput) ([]*entity.ListingDetails, int, error) {
	status := valueobject.ListingStatusAvailable
	if input.Status != "" {
		s, err := valueobject.NewListingStatus(input.Status)
		if err != nil {
			return nil, 0, err
		}
		status = s
	}

	priceRange, err := valueobject.NewPriceRange(input.MinPrice, input.MaxPrice)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := NormalizePage(input.Limit, input.Offset)
	return uc.listingRepo.List(ctx, repository.ListingFilter{
		Crop:       strings.TrimSpace(input.Crop),
		Location:   strings.TrimSpace(input.Location),
		PriceRange: priceRange,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
}

// NormalizePage приводит параметры пагинации к допустимым значениям.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type ListMyListingsUseCase struct {
	listingRepo repository.ListingRepository
}

func NewListMyListingsUseCase(listingRepo repository.ListingRepository) *ListMyListingsUseCase {
	return &ListMyListingsUseCase{listingRepo: listingRepo}
}

func (uc *ListMyListingsUseCase) Execute(ctx context.Context, farmerID uuid.UUID) ([]*entity.Listing, error) {
	return uc.listingRepo.FindByFarmerID(ctx, farmerID)
}
