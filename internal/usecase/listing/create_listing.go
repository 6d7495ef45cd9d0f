package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/validation"
)

type CreateListingInput struct {
	FarmerID    uuid.UUID `json:"farmerId" validate:"required"`
	CropName    string    `json:"cropName" validate:"notblank,max=100"`
	Quantity    float64   `json:"quantity" validate:"gte=0,lte=1000000000"`
	Unit        string    `json:"unit" validate:"unit"`
	Price       float64   `json:"price" validate:"gte=0,lte=100000000"`
	Currency    string    `json:"currency" validate:"omitempty,len=3"`
	Location    string    `json:"location" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=2000"`
}

type CreateListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewCreateListingUseCase(listingRepo repository.ListingRepository) *CreateListingUseCase {
	return &CreateListingUseCase{listingRepo: listingRepo}
}

func (uc *CreateListingUseCase) Execute(ctx context.Context, input CreateListingInput) (*entity.ListingDetails, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	price, err := valueobject.NewMoney(input.Price, input.Currency)
	if err != nil {
		return nil, err
	}

	listing, err := entity.NewListing(
		input.FarmerID,
		input.CropName,
		input.Quantity,
		input.Unit,
		price,
		input.Location,
		input.Description,
	)
	if err != nil {
		return nil, err
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	return uc.listingRepo.FindByIDWithFarmer(ctx, listing.ID)
}
