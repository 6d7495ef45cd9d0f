package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindByIDWithFarmer(ctx context.Context, id uuid.UUID) (*entity.ListingDetails, error)
	FindByFarmerID(ctx context.Context, farmerID uuid.UUID) ([]*entity.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*entity.ListingDetails, int, error)

	// SetImage меняет только путь к изображению.
	SetImage(ctx context.Context, id uuid.UUID, image string) error

	// MarkSold сохраняет редактируемые поля, переводит объявление в sold и
	// отклоняет все ожидающие предложения в одной транзакции. Если объявление
	// уже продано, возвращает ErrListingNotAvailable и ничего не записывает.
	MarkSold(ctx context.Context, listing *entity.Listing) error
}

// ListingFilter: пустые Crop и Location не фильтруют, совпадение по подстроке без учёта регистра.
type ListingFilter struct {
	Crop       string
	Location   string
	PriceRange valueobject.PriceRange
	Status     valueobject.ListingStatus
	Limit      int
	Offset     int
}
