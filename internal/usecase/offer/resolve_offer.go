package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type AcceptOfferUseCase struct {
	offerRepo   repository.OfferRepository
	listingRepo repository.ListingRepository
}

func NewAcceptOfferUseCase(offerRepo repository.OfferRepository, listingRepo repository.ListingRepository) *AcceptOfferUseCase {
	return &AcceptOfferUseCase{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
	}
}

// Execute принимает предложение. Объявление переходит в sold, остальные
// ожидающие предложения по нему отклоняются в той же транзакции.
func (uc *AcceptOfferUseCase) Execute(ctx context.Context, offerID, farmerID uuid.UUID) (*entity.OfferDetails, error) {
	offer, listing, err := loadOwnedOffer(ctx, uc.offerRepo, uc.listingRepo, offerID, farmerID)
	if err != nil {
		return nil, err
	}

	if err := offer.Accept(); err != nil {
		return nil, err
	}

	if err := uc.offerRepo.Accept(ctx, offer.ID, listing.ID); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"offer_id":   offer.ID,
		"listing_id": listing.ID,
		"farmer_id":  farmerID,
		"price":      offer.OfferPrice.String(),
	}).Info("предложение принято, объявление продано")

	return uc.offerRepo.FindByIDWithDetails(ctx, offer.ID)
}

type RejectOfferUseCase struct {
	offerRepo   repository.OfferRepository
	listingRepo repository.ListingRepository
}

func NewRejectOfferUseCase(offerRepo repository.OfferRepository, listingRepo repository.ListingRepository) *RejectOfferUseCase {
	return &RejectOfferUseCase{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
	}
}

func (uc *RejectOfferUseCase) Execute(ctx context.Context, offerID, farmerID uuid.UUID) (*entity.OfferDetails, error) {
	offer, _, err := loadOwnedOffer(ctx, uc.offerRepo, uc.listingRepo, offerID, farmerID)
	if err != nil {
		return nil, err
	}

	if err := offer.Reject(); err != nil {
		return nil, err
	}

	if err := uc.offerRepo.Reject(ctx, offer.ID); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"offer_id":  offer.ID,
		"farmer_id": farmerID,
	}).Info("предложение отклонено")

	return uc.offerRepo.FindByIDWithDetails(ctx, offer.ID)
}

// loadOwnedOffer проверяет в порядке: предложение существует, объявление
// принадлежит фермеру.
func loadOwnedOffer(ctx context.Context, offerRepo repository.OfferRepository, listingRepo repository.ListingRepository, offerID, farmerID uuid.UUID) (*entity.Offer, *entity.Listing, error) {
	offer, err := offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}

	listing, err := listingRepo.FindByID(ctx, offer.ListingID)
	if err != nil {
		return nil, nil, err
	}

	if !listing.IsOwnedBy(farmerID) {
		return nil, nil, apperror.ErrForbidden
	}

	return offer, listing, nil
}
