package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type UpdateListingInput struct {
	ListingID uuid.UUID
	FarmerID  uuid.UUID
	Patch     entity.ListingPatch
	Status    *string
}

type UpdateListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewUpdateListingUseCase(listingRepo repository.ListingRepository) *UpdateListingUseCase {
	return &UpdateListingUseCase{listingRepo: listingRepo}
}

// Execute меняет поля объявления. Смена статуса на sold идёт тем же путём,
// что и принятие предложения: ожидающие предложения отклоняются, а правка
// полей сохраняется в той же транзакции или не сохраняется вовсе.
func (uc *UpdateListingUseCase) Execute(ctx context.Context, input UpdateListingInput) (*entity.ListingDetails, error) {
	if input.Patch.IsEmpty() && input.Status == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "нет данных для обновления")
	}

	listing, err := uc.listingRepo.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	if !listing.IsOwnedBy(input.FarmerID) {
		return nil, apperror.ErrForbidden
	}

	markSold := false
	if input.Status != nil {
		status, err := valueobject.NewListingStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if status != listing.Status {
			if !listing.Status.CanTransitionTo(status) {
				return nil, apperror.New(apperror.ErrCodeInvalidState, "проданное объявление нельзя вернуть в продажу")
			}
			markSold = status == valueobject.ListingStatusSold
		}
	}

	if !input.Patch.IsEmpty() {
		if err := listing.Apply(input.Patch); err != nil {
			return nil, err
		}
	}

	switch {
	case markSold:
		if err := listing.MarkSold(); err != nil {
			return nil, err
		}
		if err := uc.listingRepo.MarkSold(ctx, listing); err != nil {
			return nil, err
		}
		logger.Log.WithFields(logrus.Fields{
			"listing_id": listing.ID,
			"farmer_id":  input.FarmerID,
		}).Info("объявление снято с продажи вручную")
	case !input.Patch.IsEmpty():
		if err := uc.listingRepo.Update(ctx, listing); err != nil {
			return nil, err
		}
	}

	return uc.listingRepo.FindByIDWithFarmer(ctx, listing.ID)
}

type DeleteListingUseCase struct {
	listingRepo repository.ListingRepository
	images      ImageStore
}

// images может быть nil, тогда файлы изображений не удаляются.
func NewDeleteListingUseCase(listingRepo repository.ListingRepository, images ImageStore) *DeleteListingUseCase {
	return &DeleteListingUseCase{listingRepo: listingRepo, images: images}
}

func (uc *DeleteListingUseCase) Execute(ctx context.Context, listingID, farmerID uuid.UUID) error {
	listing, err := uc.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return err
	}

	if !listing.IsOwnedBy(farmerID) {
		return apperror.ErrForbidden
	}

	if err := uc.listingRepo.Delete(ctx, listingID); err != nil {
		return err
	}

	if uc.images != nil && listing.Image != "" {
		if err := uc.images.Delete(listing.Image); err != nil {
			logger.Log.WithError(err).WithField("listing_id", listingID).Warn("не удалось удалить изображение объявления")
		}
	}
	return nil
}
