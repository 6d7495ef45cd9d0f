package listing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

// ImageStore сохраняет файлы изображений и возвращает публичный путь к ним.
type ImageStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, filename string, r io.Reader) (string, error)
	Delete(publicPath string) error
}

type SetListingImageInput struct {
	ListingID uuid.UUID
	FarmerID  uuid.UUID
	Filename  string
	Content   io.Reader
}

type SetListingImageUseCase struct {
	listingRepo repository.ListingRepository
	images      ImageStore
}

func NewSetListingImageUseCase(listingRepo repository.ListingRepository, images ImageStore) *SetListingImageUseCase {
	return &SetListingImageUseCase{listingRepo: listingRepo, images: images}
}

func (uc *SetListingImageUseCase) Execute(ctx context.Context, input SetListingImageInput) (*entity.ListingDetails, error) {
	listing, err := uc.listingRepo.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	if !listing.IsOwnedBy(input.FarmerID) {
		return nil, apperror.ErrForbidden
	}

	path, err := uc.images.Save(ctx, input.FarmerID, input.Filename, input.Content)
	if err != nil {
		if apperror.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить изображение")
	}

	previous := listing.Image
	if err := uc.listingRepo.SetImage(ctx, listing.ID, path); err != nil {
		_ = uc.images.Delete(path)
		return nil, err
	}

	if previous != "" {
		if err := uc.images.Delete(previous); err != nil {
			logger.Log.WithError(err).WithField("listing_id", listing.ID).Warn("не удалось удалить старое изображение")
		}
	}

	return uc.listingRepo.FindByIDWithFarmer(ctx, listing.ID)
}
