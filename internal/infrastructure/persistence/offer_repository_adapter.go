package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/db"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const offerColumns = `
	o.id, o.listing_id, o.buyer_id, o.offer_price, o.currency, o.message,
	o.status, o.created_at, o.updated_at`

const offerDetailsQuery = `
	SELECT ` + offerColumns + `,
		l.crop_name AS listing_crop_name, l.price AS listing_price, l.currency AS listing_currency,
		l.quantity AS listing_quantity, l.unit AS listing_unit, l.status AS listing_status,
		l.farmer_id AS farmer_id,
		b.name AS buyer_name, b.phone AS buyer_phone, b.location AS buyer_location,
		f.name AS farmer_name, f.phone AS farmer_phone, f.location AS farmer_location
	FROM offers o
	JOIN listings l ON l.id = o.listing_id
	JOIN users b ON b.id = o.buyer_id
	JOIN users f ON f.id = l.farmer_id`

type OfferRepositoryAdapter struct {
	db *sqlx.DB
}

func NewOfferRepositoryAdapter(db *sqlx.DB) *OfferRepositoryAdapter {
	return &OfferRepositoryAdapter{db: db}
}

// Create повторяет проверки use case внутри транзакции: между чтением и
// вставкой объявление могли продать, а покупатель мог отправить второе предложение.
func (r *OfferRepositoryAdapter) Create(ctx context.Context, offer *entity.Offer) error {
	err := db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockAvailableListing(ctx, tx, offer.ListingID); err != nil {
			return err
		}

		var pending int
		countQuery := tx.Rebind(`SELECT COUNT(*) FROM offers WHERE listing_id = ? AND buyer_id = ? AND status = ?`)
		if err := tx.GetContext(ctx, &pending, countQuery,
			offer.ListingID, offer.BuyerID, string(valueobject.OfferStatusPending)); err != nil {
			return err
		}
		if pending > 0 {
			return apperror.ErrDuplicateOffer
		}

		query := tx.Rebind(`
			INSERT INTO offers (id, listing_id, buyer_id, offer_price, currency, message, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			offer.ID, offer.ListingID, offer.BuyerID, offer.OfferPrice.Amount, offer.OfferPrice.Currency,
			offer.Message, string(offer.Status), offer.CreatedAt, offer.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateOffer
		}
		return err
	})
	return asDatabaseError(err, "не удалось создать предложение")
}

func (r *OfferRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	var row offerRow
	query := r.db.Rebind(`SELECT ` + offerColumns + ` FROM offers o WHERE o.id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return row.toEntity(), nil
}

func (r *OfferRepositoryAdapter) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*entity.OfferDetails, error) {
	var row offerDetailsRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(offerDetailsQuery+` WHERE o.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return row.toDetails(), nil
}

// FindPendingByListingAndBuyer возвращает nil, nil, если ожидающего предложения нет.
func (r *OfferRepositoryAdapter) FindPendingByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Offer, error) {
	var row offerRow
	query := r.db.Rebind(`
		SELECT ` + offerColumns + `
		FROM offers o WHERE o.listing_id = ? AND o.buyer_id = ? AND o.status = ?
	`)
	if err := r.db.GetContext(ctx, &row, query, listingID, buyerID, string(valueobject.OfferStatusPending)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return row.toEntity(), nil
}

func (r *OfferRepositoryAdapter) FindReceivedByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return r.selectDetails(ctx, `l.farmer_id = ?`, farmerID)
}

func (r *OfferRepositoryAdapter) FindSentByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return r.selectDetails(ctx, `o.buyer_id = ?`, buyerID)
}

func (r *OfferRepositoryAdapter) selectDetails(ctx context.Context, where string, arg interface{}) ([]*entity.OfferDetails, error) {
	var rows []offerDetailsRow
	query := r.db.Rebind(offerDetailsQuery + ` WHERE ` + where + ` ORDER BY o.created_at DESC, o.id`)
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	result := make([]*entity.OfferDetails, len(rows))
	for i := range rows {
		result[i] = rows[i].toDetails()
	}
	return result, nil
}

// Accept выполняет переход в одной транзакции: блокировка объявления,
// CAS предложения pending→accepted, CAS объявления available→sold и
// отклонение остальных ожидающих предложений. Любая ошибка откатывает всё.
func (r *OfferRepositoryAdapter) Accept(ctx context.Context, offerID, listingID uuid.UUID) error {
	err := db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		if err := lockAvailableListing(ctx, tx, listingID); err != nil {
			return err
		}

		query := tx.Rebind(`
			UPDATE offers SET status = ?, updated_at = ?
			WHERE id = ? AND listing_id = ? AND status = ?
		`)
		res, err := tx.ExecContext(ctx, query,
			string(valueobject.OfferStatusAccepted), now, offerID, listingID, string(valueobject.OfferStatusPending))
		if err != nil {
			if uniqueViolationOn(err, "uq_offers_accepted_listing") {
				return apperror.ErrListingNotAvailable
			}
			return err
		}
		if err := expectOneRow(res, apperror.ErrOfferAlreadyHandled); err != nil {
			return err
		}

		if err := markListingSold(ctx, tx, listingID, now); err != nil {
			return err
		}

		return rejectPendingOffers(ctx, tx, listingID, offerID, now)
	})
	return asDatabaseError(err, "не удалось принять предложение")
}

func (r *OfferRepositoryAdapter) Reject(ctx context.Context, offerID uuid.UUID) error {
	query := r.db.Rebind(`UPDATE offers SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := r.db.ExecContext(ctx, query,
		string(valueobject.OfferStatusRejected), time.Now().UTC(), offerID, string(valueobject.OfferStatusPending))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отклонить предложение")
	}
	return expectOneRow(res, apperror.ErrOfferAlreadyHandled)
}

type offerRow struct {
	ID         uuid.UUID `db:"id"`
	ListingID  uuid.UUID `db:"listing_id"`
	BuyerID    uuid.UUID `db:"buyer_id"`
	OfferPrice float64   `db:"offer_price"`
	Currency   string    `db:"currency"`
	Message    string    `db:"message"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (o *offerRow) toEntity() *entity.Offer {
	return &entity.Offer{
		ID:         o.ID,
		ListingID:  o.ListingID,
		BuyerID:    o.BuyerID,
		OfferPrice: valueobject.Money{Amount: o.OfferPrice, Currency: strings.TrimSpace(o.Currency)},
		Message:    o.Message,
		Status:     valueobject.OfferStatus(o.Status),
		CreatedAt:  o.CreatedAt.UTC(),
		UpdatedAt:  o.UpdatedAt.UTC(),
	}
}

type offerDetailsRow struct {
	offerRow
	ListingCropName string    `db:"listing_crop_name"`
	ListingPrice    float64   `db:"listing_price"`
	ListingCurrency string    `db:"listing_currency"`
	ListingQuantity float64   `db:"listing_quantity"`
	ListingUnit     string    `db:"listing_unit"`
	ListingStatus   string    `db:"listing_status"`
	FarmerID        uuid.UUID `db:"farmer_id"`
	BuyerName       string    `db:"buyer_name"`
	BuyerPhone      string    `db:"buyer_phone"`
	BuyerLocation   string    `db:"buyer_location"`
	FarmerName      string    `db:"farmer_name"`
	FarmerPhone     string    `db:"farmer_phone"`
	FarmerLocation  string    `db:"farmer_location"`
}

func (o *offerDetailsRow) toDetails() *entity.OfferDetails {
	return &entity.OfferDetails{
		Offer: *o.toEntity(),
		Listing: entity.ListingSummary{
			ID:       o.ListingID,
			CropName: o.ListingCropName,
			Price:    valueobject.Money{Amount: o.ListingPrice, Currency: strings.TrimSpace(o.ListingCurrency)},
			Quantity: o.ListingQuantity,
			Unit:     valueobject.Unit(o.ListingUnit),
			Status:   valueobject.ListingStatus(o.ListingStatus),
		},
		Buyer: entity.UserSummary{
			ID:       o.BuyerID,
			Name:     o.BuyerName,
			Phone:    o.BuyerPhone,
			Location: o.BuyerLocation,
		},
		Farmer: entity.UserSummary{
			ID:       o.FarmerID,
			Name:     o.FarmerName,
			Phone:    o.FarmerPhone,
			Location: o.FarmerLocation,
		},
	}
}
