// Package mocks содержит хранилище в памяти, реализующее интерфейсы
// репозиториев домена. Используется в тестах use case и HTTP-обработчиков.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

// Store хранит копии сущностей: изменения объекта после чтения не видны
// хранилищу, пока не вызван соответствующий метод репозитория.
type Store struct {
	mu       sync.Mutex
	listings map[uuid.UUID]entity.Listing
	offers   map[uuid.UUID]entity.Offer
	users    map[uuid.UUID]entity.User

	// Err, если задан, возвращается всеми операциями записи.
	Err error
}

func NewStore() *Store {
	return &Store{
		listings: make(map[uuid.UUID]entity.Listing),
		offers:   make(map[uuid.UUID]entity.Offer),
		users:    make(map[uuid.UUID]entity.User),
	}
}

func (s *Store) Listings() *ListingRepository { return &ListingRepository{s: s} }
func (s *Store) Offers() *OfferRepository     { return &OfferRepository{s: s} }
func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }

// AddUser создаёт пользователя с заданной ролью.
func (s *Store) AddUser(name string, role valueobject.Role) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entity.User{
		ID:        uuid.New(),
		Name:      name,
		Phone:     "+9190000" + uuid.NewString()[:5],
		Role:      role,
		Location:  "Nashik",
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return &u
}

// AddListing создаёт доступное объявление фермера.
func (s *Store) AddListing(farmerID uuid.UUID, cropName string, price float64) *entity.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	l := entity.Listing{
		ID:        uuid.New(),
		FarmerID:  farmerID,
		CropName:  cropName,
		Quantity:  100,
		Unit:      valueobject.UnitKg,
		Price:     valueobject.Money{Amount: price, Currency: valueobject.DefaultCurrency},
		Location:  "Nashik",
		Status:    valueobject.ListingStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.listings[l.ID] = l
	return &l
}

// AddOffer сохраняет ожидающее предложение без проверок.
func (s *Store) AddOffer(listingID, buyerID uuid.UUID, price float64) *entity.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Add(time.Duration(len(s.offers)) * time.Millisecond)
	o := entity.Offer{
		ID:         uuid.New(),
		ListingID:  listingID,
		BuyerID:    buyerID,
		OfferPrice: valueobject.Money{Amount: price, Currency: valueobject.DefaultCurrency},
		Status:     valueobject.OfferStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.offers[o.ID] = o
	return &o
}

// Listing возвращает текущее состояние объявления.
func (s *Store) Listing(id uuid.UUID) (entity.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	return l, ok
}

// Offer возвращает текущее состояние предложения.
func (s *Store) Offer(id uuid.UUID) (entity.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	return o, ok
}

// OfferCount возвращает число предложений по объявлению.
func (s *Store) OfferCount(listingID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.offers {
		if o.ListingID == listingID {
			n++
		}
	}
	return n
}

func (s *Store) summary(id uuid.UUID) entity.UserSummary {
	if u, ok := s.users[id]; ok {
		return u.Summary()
	}
	return entity.UserSummary{ID: id}
}

func (s *Store) offerDetails(o entity.Offer) *entity.OfferDetails {
	l := s.listings[o.ListingID]
	return &entity.OfferDetails{
		Offer:   o,
		Listing: l.Summary(),
		Buyer:   s.summary(o.BuyerID),
		Farmer:  s.summary(l.FarmerID),
	}
}

func (s *Store) rejectPending(listingID, exceptID uuid.UUID, now time.Time) {
	for id, o := range s.offers {
		if o.ListingID == listingID && id != exceptID && o.Status == valueobject.OfferStatusPending {
			o.Status = valueobject.OfferStatusRejected
			o.UpdatedAt = now
			s.offers[id] = o
		}
	}
}

type ListingRepository struct{ s *Store }

var _ repository.ListingRepository = (*ListingRepository)(nil)

func (r *ListingRepository) Create(ctx context.Context, l *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.listings[l.ID] = *l
	return nil
}

// Update не меняет статус и изображение, как и SQL-реализация.
func (r *ListingRepository) Update(ctx context.Context, l *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	current, ok := r.s.listings[l.ID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	r.s.listings[l.ID] = withFields(current, l)
	return nil
}

func (r *ListingRepository) SetImage(ctx context.Context, id uuid.UUID, image string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	current, ok := r.s.listings[id]
	if !ok {
		return apperror.ErrListingNotFound
	}
	current.Image = image
	current.UpdatedAt = time.Now().UTC()
	r.s.listings[id] = current
	return nil
}

// withFields переносит в current только редактируемые поля из l.
func withFields(current entity.Listing, l *entity.Listing) entity.Listing {
	current.CropName, current.Quantity, current.Unit = l.CropName, l.Quantity, l.Unit
	current.Price, current.Location, current.Description = l.Price, l.Location, l.Description
	current.UpdatedAt = l.UpdatedAt
	return current
}

func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.listings[id]; !ok {
		return apperror.ErrListingNotFound
	}
	delete(r.s.listings, id)
	for oid, o := range r.s.offers {
		if o.ListingID == id {
			delete(r.s.offers, oid)
		}
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	return &l, nil
}

func (r *ListingRepository) FindByIDWithFarmer(ctx context.Context, id uuid.UUID) (*entity.ListingDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	return &entity.ListingDetails{Listing: l, Farmer: r.s.summary(l.FarmerID)}, nil
}

func (r *ListingRepository) FindByFarmerID(ctx context.Context, farmerID uuid.UUID) ([]*entity.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Listing
	for _, l := range r.s.listings {
		if l.FarmerID == farmerID {
			l := l
			result = append(result, &l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *ListingRepository) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.ListingDetails, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*entity.ListingDetails
	for _, l := range r.s.listings {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Crop != "" && !strings.Contains(strings.ToLower(l.CropName), strings.ToLower(filter.Crop)) {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if min := filter.PriceRange.Min; min != nil && l.Price.Amount < *min {
			continue
		}
		if max := filter.PriceRange.Max; max != nil && l.Price.Amount > *max {
			continue
		}
		matched = append(matched, &entity.ListingDetails{Listing: l, Farmer: r.s.summary(l.FarmerID)})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if filter.Offset >= total {
		return []*entity.ListingDetails{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (r *ListingRepository) MarkSold(ctx context.Context, l *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	current, ok := r.s.listings[l.ID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	if current.Status != valueobject.ListingStatusAvailable {
		return apperror.ErrListingNotAvailable
	}
	now := time.Now().UTC()
	updated := withFields(current, l)
	updated.Status = valueobject.ListingStatusSold
	updated.UpdatedAt = now
	r.s.listings[l.ID] = updated
	r.s.rejectPending(l.ID, uuid.Nil, now)
	return nil
}

type OfferRepository struct{ s *Store }

var _ repository.OfferRepository = (*OfferRepository)(nil)

func (r *OfferRepository) Create(ctx context.Context, o *entity.Offer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	l, ok := r.s.listings[o.ListingID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	if l.Status != valueobject.ListingStatusAvailable {
		return apperror.ErrListingNotAvailable
	}
	for _, existing := range r.s.offers {
		if existing.ListingID == o.ListingID && existing.BuyerID == o.BuyerID && existing.Status == valueobject.OfferStatusPending {
			return apperror.ErrDuplicateOffer
		}
	}
	r.s.offers[o.ID] = *o
	return nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, apperror.ErrOfferNotFound
	}
	return &o, nil
}

func (r *OfferRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*entity.OfferDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, apperror.ErrOfferNotFound
	}
	return r.s.offerDetails(o), nil
}

func (r *OfferRepository) FindPendingByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.offers {
		if o.ListingID == listingID && o.BuyerID == buyerID && o.Status == valueobject.OfferStatusPending {
			return &o, nil
		}
	}
	return nil, nil
}

func (r *OfferRepository) FindReceivedByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return r.findDetails(func(o entity.Offer) bool {
		return r.s.listings[o.ListingID].FarmerID == farmerID
	}), nil
}

func (r *OfferRepository) FindSentByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*entity.OfferDetails, error) {
	return r.findDetails(func(o entity.Offer) bool {
		return o.BuyerID == buyerID
	}), nil
}

func (r *OfferRepository) findDetails(match func(entity.Offer) bool) []*entity.OfferDetails {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.OfferDetails
	for _, o := range r.s.offers {
		if match(o) {
			result = append(result, r.s.offerDetails(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *OfferRepository) Accept(ctx context.Context, offerID, listingID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	l, ok := r.s.listings[listingID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	if l.Status != valueobject.ListingStatusAvailable {
		return apperror.ErrListingNotAvailable
	}
	o, ok := r.s.offers[offerID]
	if !ok || o.Status != valueobject.OfferStatusPending {
		return apperror.ErrOfferAlreadyHandled
	}

	now := time.Now().UTC()
	o.Status = valueobject.OfferStatusAccepted
	o.UpdatedAt = now
	r.s.offers[offerID] = o
	l.Status = valueobject.ListingStatusSold
	l.UpdatedAt = now
	r.s.listings[listingID] = l
	r.s.rejectPending(listingID, offerID, now)
	return nil
}

func (r *OfferRepository) Reject(ctx context.Context, offerID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	o, ok := r.s.offers[offerID]
	if !ok || o.Status != valueobject.OfferStatusPending {
		return apperror.ErrOfferAlreadyHandled
	}
	o.Status = valueobject.OfferStatusRejected
	o.UpdatedAt = time.Now().UTC()
	r.s.offers[offerID] = o
	return nil
}

type UserRepository struct{ s *Store }

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.users {
		if existing.Phone == u.Phone {
			return apperror.ErrPhoneTaken
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Phone == phone {
			return &u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}
