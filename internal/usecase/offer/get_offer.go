package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

type GetOfferUseCase struct {
	offerRepo repository.OfferRepository
}

func NewGetOfferUseCase(offerRepo repository.OfferRepository) *GetOfferUseCase {
	return &GetOfferUseCase{offerRepo: offerRepo}
}

// Execute отдаёт предложение только покупателю и владельцу объявления.
func (uc *GetOfferUseCase) Execute(ctx context.Context, offerID, userID uuid.UUID) (*entity.OfferDetails, error) {
	details, err := uc.offerRepo.FindByIDWithDetails(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !details.IsOwnedBy(userID) && details.Farmer.ID != userID {
		return nil, apperror.ErrForbidden
	}
	return details, nil
}

type ListReceivedOffersUseCase struct {
	offerRepo repository.OfferRepository
}

func NewListReceivedOffersUseCase(offerRepo repository.OfferRepository) *ListReceivedOffersUseCase {
	return &ListReceivedOffersUseCase{offerRepo: offerRepo}
}

func (uc *ListReceivedOffersUseCase) Execute(ctx context.Context, farmerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return uc.offerRepo.FindReceivedByFarmer(ctx, farmerID)
}

type ListSentOffersUseCase struct {
	offerRepo repository.OfferRepository
}

func NewListSentOffersUseCase(offerRepo repository.OfferRepository) *ListSentOffersUseCase {
	return &ListSentOffersUseCase{offerRepo: offerRepo}
}

func (uc *ListSentOffersUseCase) Execute(ctx context.Context, buyerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return uc.offerRepo.FindSentByBuyer(ctx, buyerID)
}
