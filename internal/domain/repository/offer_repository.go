package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
)

type OfferRepository interface {
	// Create сохраняет ожидающее предложение, повторно проверяя внутри транзакции,
	// что объявление доступно и у покупателя нет другого ожидающего предложения.
	Create(ctx context.Context, offer *entity.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error)
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*entity.OfferDetails, error)
	FindPendingByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Offer, error)
	FindReceivedByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*entity.OfferDetails, error)
	FindSentByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*entity.OfferDetails, error)

	// Accept атомарно принимает предложение, продаёт объявление и отклоняет
	// остальные ожидающие предложения. При гонке проигравший получает ErrCodeInvalidState.
	Accept(ctx context.Context, offerID, listingID uuid.UUID) error
	Reject(ctx context.Context, offerID uuid.UUID) error
}
