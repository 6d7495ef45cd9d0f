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
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const listingColumns = `
	l.id, l.farmer_id, l.crop_name, l.quantity, l.unit, l.price, l.currency,
	l.location, l.description, l.image, l.status, l.created_at, l.updated_at`

const listingDetailsColumns = listingColumns + `,
	u.name AS farmer_name, u.phone AS farmer_phone, u.location AS farmer_location`

type ListingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewListingRepositoryAdapter(db *sqlx.DB) *ListingRepositoryAdapter {
	return &ListingRepositoryAdapter{db: db}
}

func (r *ListingRepositoryAdapter) Create(ctx context.Context, listing *entity.Listing) error {
	query := r.db.Rebind(`
		INSERT INTO listings (id, farmer_id, crop_name, quantity, unit, price, currency,
			location, description, image, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.FarmerID, listing.CropName, listing.Quantity, string(listing.Unit),
		listing.Price.Amount, listing.Price.Currency, listing.Location, listing.Description,
		listing.Image, string(listing.Status), listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать объявление")
	}
	return nil
}

const updateListingFields = `
	UPDATE listings SET crop_name = ?, quantity = ?, unit = ?, price = ?, currency = ?,
		location = ?, description = ?, updated_at = ?`

func listingFieldArgs(listing *entity.Listing) []interface{} {
	return []interface{}{
		listing.CropName, listing.Quantity, string(listing.Unit), listing.Price.Amount,
		listing.Price.Currency, listing.Location, listing.Description, listing.UpdatedAt,
	}
}

// Update сохраняет редактируемые поля. Статус меняется только через MarkSold
// и принятие предложения, изображение только через SetImage.
func (r *ListingRepositoryAdapter) Update(ctx context.Context, listing *entity.Listing) error {
	query := r.db.Rebind(updateListingFields + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(listingFieldArgs(listing), listing.ID)...)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить объявление")
	}
	return expectOneRow(res, apperror.ErrListingNotFound)
}

func (r *ListingRepositoryAdapter) SetImage(ctx context.Context, id uuid.UUID, image string) error {
	query := r.db.Rebind(`UPDATE listings SET image = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, image, time.Now().UTC(), id)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить изображение объявления")
	}
	return expectOneRow(res, apperror.ErrListingNotFound)
}

func (r *ListingRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM listings WHERE id = ?`), id)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить объявление")
	}
	return expectOneRow(res, apperror.ErrListingNotFound)
}

func (r *ListingRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var row listingRow
	query := r.db.Rebind(`SELECT ` + listingColumns + ` FROM listings l WHERE l.id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}
	return row.toEntity(), nil
}

func (r *ListingRepositoryAdapter) FindByIDWithFarmer(ctx context.Context, id uuid.UUID) (*entity.ListingDetails, error) {
	var row listingDetailsRow
	query := r.db.Rebind(`
		SELECT ` + listingDetailsColumns + `
		FROM listings l
		JOIN users u ON u.id = l.farmer_id
		WHERE l.id = ?
	`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}
	return row.toDetails(), nil
}

func (r *ListingRepositoryAdapter) FindByFarmerID(ctx context.Context, farmerID uuid.UUID) ([]*entity.Listing, error) {
	var rows []listingRow
	query := r.db.Rebind(`
		SELECT ` + listingColumns + `
		FROM listings l WHERE l.farmer_id = ?
		ORDER BY l.created_at DESC
	`)
	if err := r.db.SelectContext(ctx, &rows, query, farmerID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}
	result := make([]*entity.Listing, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *ListingRepositoryAdapter) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.ListingDetails, int, error) {
	where := []string{"1 = 1"}
	var args []interface{}

	if filter.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Crop != "" {
		where = append(where, `LOWER(l.crop_name) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(filter.Crop))
	}
	if filter.Location != "" {
		where = append(where, `LOWER(l.location) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(filter.Location))
	}
	if filter.PriceRange.Min != nil {
		where = append(where, "l.price >= ?")
		args = append(args, *filter.PriceRange.Min)
	}
	if filter.PriceRange.Max != nil {
		where = append(where, "l.price <= ?")
		args = append(args, *filter.PriceRange.Max)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM listings l WHERE ` + whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось подсчитать объявления")
	}

	query := `
		SELECT ` + listingDetailsColumns + `
		FROM listings l
		JOIN users u ON u.id = l.farmer_id
		WHERE ` + whereClause + `
		ORDER BY l.created_at DESC, l.id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []listingDetailsRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}

	result := make([]*entity.ListingDetails, len(rows))
	for i := range rows {
		result[i] = rows[i].toDetails()
	}
	return result, total, nil
}

func (r *ListingRepositoryAdapter) MarkSold(ctx context.Context, listing *entity.Listing) error {
	err := db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		if err := lockAvailableListing(ctx, tx, listing.ID); err != nil {
			return err
		}

		query := tx.Rebind(updateListingFields + `, status = ? WHERE id = ? AND status = ?`)
		args := append(listingFieldArgs(listing),
			string(valueobject.ListingStatusSold), listing.ID, string(valueobject.ListingStatusAvailable))
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if err := expectOneRow(res, apperror.ErrListingNotAvailable); err != nil {
			return err
		}

		return rejectPendingOffers(ctx, tx, listing.ID, uuid.Nil, now)
	})
	return asDatabaseError(err, "не удалось снять объявление с продажи")
}

// lockAvailableListing блокирует строку объявления до конца транзакции и
// проверяет, что оно ещё доступно.
func lockAvailableListing(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var status string
	query := tx.Rebind(`SELECT status FROM listings WHERE id = ?` + db.ForUpdate(tx))
	if err := tx.GetContext(ctx, &status, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrListingNotFound
		}
		return err
	}
	if valueobject.ListingStatus(status) != valueobject.ListingStatusAvailable {
		return apperror.ErrListingNotAvailable
	}
	return nil
}

func markListingSold(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, now time.Time) error {
	query := tx.Rebind(`UPDATE listings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := tx.ExecContext(ctx, query,
		string(valueobject.ListingStatusSold), now, id, string(valueobject.ListingStatusAvailable))
	if err != nil {
		return err
	}
	return expectOneRow(res, apperror.ErrListingNotAvailable)
}

// rejectPendingOffers отклоняет ожидающие предложения по объявлению, кроме exceptID.
func rejectPendingOffers(ctx context.Context, tx *sqlx.Tx, listingID, exceptID uuid.UUID, now time.Time) error {
	query := tx.Rebind(`
		UPDATE offers SET status = ?, updated_at = ?
		WHERE listing_id = ? AND id <> ? AND status = ?
	`)
	_, err := tx.ExecContext(ctx, query,
		string(valueobject.OfferStatusRejected), now, listingID, exceptID, string(valueobject.OfferStatusPending))
	return err
}

// containsPattern строит LIKE-шаблон для поиска подстроки без учёта регистра.
func containsPattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить число изменённых строк")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// asDatabaseError пропускает доменные ошибки как есть, остальные маскирует.
func asDatabaseError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

type listingRow struct {
	ID          uuid.UUID `db:"id"`
	FarmerID    uuid.UUID `db:"farmer_id"`
	CropName    string    `db:"crop_name"`
	Quantity    float64   `db:"quantity"`
	Unit        string    `db:"unit"`
	Price       float64   `db:"price"`
	Currency    string    `db:"currency"`
	Location    string    `db:"location"`
	Description string    `db:"description"`
	Image       string    `db:"image"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (l *listingRow) toEntity() *entity.Listing {
	return &entity.Listing{
		ID:          l.ID,
		FarmerID:    l.FarmerID,
		CropName:    l.CropName,
		Quantity:    l.Quantity,
		Unit:        valueobject.Unit(l.Unit),
		Price:       valueobject.Money{Amount: l.Price, Currency: strings.TrimSpace(l.Currency)},
		Location:    l.Location,
		Description: l.Description,
		Image:       l.Image,
		Status:      valueobject.ListingStatus(l.Status),
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}
}

type listingDetailsRow struct {
	listingRow
	FarmerName     string `db:"farmer_name"`
	FarmerPhone    string `db:"farmer_phone"`
	FarmerLocation string `db:"farmer_location"`
}

func (l *listingDetailsRow) toDetails() *entity.ListingDetails {
	return &entity.ListingDetails{
		Listing: *l.toEntity(),
		Farmer: entity.UserSummary{
			ID:       l.FarmerID,
			Name:     l.FarmerName,
			Phone:    l.FarmerPhone,
			Location: l.FarmerLocation,
		},
	}
}
