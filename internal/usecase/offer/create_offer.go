package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/validation"
)

type CreateOfferInput struct {
	ListingID  uuid.UUID `json:"listingId" validate:"required"`
	BuyerID    uuid.UUID `json:"buyerId" validate:"required"`
	OfferPrice float64   `json:"offerPrice" validate:"gte=0,lte=100000000"`
	Message    string    `json:"message" validate:"max=500"`
}

type CreateOfferUseCase struct {
	offerRepo   repository.OfferRepository
	listingRepo repository.ListingRepository
}

func NewCreateOfferUseCase(offerRepo repository.OfferRepository, listingRepo repository.ListingRepository) *CreateOfferUseCase {
	return &CreateOfferUseCase{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
	}
}

func (uc *CreateOfferUseCase) Execute(ctx context.Context, input CreateOfferInput) (*entity.OfferDetails, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	listing, err := uc.listingRepo.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.IsOwnedBy(input.BuyerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя сделать предложение на собственное объявление")
	}

	if !listing.IsAvailable() {
		return nil, apperror.ErrListingNotAvailable
	}

	existing, err := uc.offerRepo.FindPendingByListingAndBuyer(ctx, input.ListingID, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateOffer
	}

	// Цена предложения всегда в валюте объявления.
	price, err := valueobject.NewMoney(input.OfferPrice, listing.Price.Currency)
	if err != nil {
		return nil, err
	}

	offer, err := entity.NewOffer(input.ListingID, input.BuyerID, price, input.Message)
	if err != nil {
		return nil, err
	}

	if err := uc.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	return uc.offerRepo.FindByIDWithDetails(ctx, offer.ID)
}
