package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

// OffersRenderer превращает список предложений в файл выгрузки.
type OffersRenderer interface {
	Render(offers []*entity.OfferDetails) ([]byte, error)
}

type ExportReceivedOffersUseCase struct {
	offerRepo repository.OfferRepository
	renderer  OffersRenderer
}

func NewExportReceivedOffersUseCase(offerRepo repository.OfferRepository, renderer OffersRenderer) *ExportReceivedOffersUseCase {
	return &ExportReceivedOffersUseCase{offerRepo: offerRepo, renderer: renderer}
}

func (uc *ExportReceivedOffersUseCase) Execute(ctx context.Context, farmerID uuid.UUID) ([]byte, error) {
	offers, err := uc.offerRepo.FindReceivedByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	data, err := uc.renderer.Render(offers)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать выгрузку")
	}
	return data, nil
}
