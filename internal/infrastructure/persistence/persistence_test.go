package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/farm-market-backend/internal/db"
	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/repository"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

type testEnv struct {
	conn     *sqlx.DB
	users    *UserRepositoryAdapter
	listings *ListingRepositoryAdapter
	offers   *OfferRepositoryAdapter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(ctx, conn, db.MigrationsDir("../../../migrations", db.DriverSQLite)))

	return &testEnv{
		conn:     conn,
		users:    NewUserRepositoryAdapter(conn),
		listings: NewListingRepositoryAdapter(conn),
		offers:   NewOfferRepositoryAdapter(conn),
	}
}

var phoneSeq int

func (e *testEnv) user(t *testing.T, name string, role valueobject.Role) *entity.User {
	t.Helper()
	phoneSeq++
	u, err := entity.NewUser(name, fmt.Sprintf("+9198765%05d", phoneSeq), "hash", role, "Nashik")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) listing(t *testing.T, farmerID uuid.UUID, crop, location string, price float64) *entity.Listing {
	t.Helper()
	m, err := valueobject.NewMoney(price, "")
	require.NoError(t, err)
	l, err := entity.NewListing(farmerID, crop, 100, "kg", m, location, "")
	require.NoError(t, err)
	require.NoError(t, e.listings.Create(context.Background(), l))
	return l
}

func (e *testEnv) offer(t *testing.T, listingID, buyerID uuid.UUID, price float64) *entity.Offer {
	t.Helper()
	m, err := valueobject.NewMoney(price, "")
	require.NoError(t, err)
	o, err := entity.NewOffer(listingID, buyerID, m, "")
	require.NoError(t, err)
	require.NoError(t, e.offers.Create(context.Background(), o))
	return o
}

func TestMigrations_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, db.RunMigrations(context.Background(), env.conn, db.MigrationsDir("../../../migrations", db.DriverSQLite)))

	var applied int
	require.NoError(t, env.conn.Get(&applied, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 1, applied)
}

func TestUserRepository_DuplicatePhone(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "Ravi", valueobject.RoleFarmer)

	dup, err := entity.NewUser("Other", u.Phone, "hash", valueobject.RoleBuyer, "")
	require.NoError(t, err)
	err = env.users.Create(context.Background(), dup)
	assert.True(t, apperror.IsConflict(err))

	found, err := env.users.FindByPhone(context.Background(), u.Phone)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, valueobject.RoleFarmer, found.Role)

	_, err = env.users.FindByID(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestListingRepository_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)

	got, err := env.listings.FindByIDWithFarmer(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wheat", got.CropName)
	assert.Equal(t, "INR", got.Price.Currency)
	assert.Equal(t, "Ravi", got.Farmer.Name)
	assert.WithinDuration(t, l.CreatedAt, got.CreatedAt, time.Second)

	price := 120.0
	require.NoError(t, got.Listing.Apply(entity.ListingPatch{Price: &price}))
	require.NoError(t, env.listings.Update(ctx, &got.Listing))

	updated, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, updated.Price.Amount)

	mine, err := env.listings.FindByFarmerID(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, env.listings.Delete(ctx, l.ID))
	_, err = env.listings.FindByID(ctx, l.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(env.listings.Delete(ctx, l.ID)))
}

func TestListingRepository_MarkSoldSavesFieldsInTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	o := env.offer(t, l.ID, buyer.ID, 90)

	edited, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	price := 95.0
	require.NoError(t, edited.Apply(entity.ListingPatch{Price: &price}))
	require.NoError(t, edited.MarkSold())
	require.NoError(t, env.listings.MarkSold(ctx, edited))

	got, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 95.0, got.Price.Amount)
	assert.Equal(t, valueobject.ListingStatusSold, got.Status)

	offer, err := env.offers.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusRejected, offer.Status)
}

func TestListingRepository_MarkSoldAfterAcceptWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	o := env.offer(t, l.ID, buyer.ID, 90)

	stale, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, env.offers.Accept(ctx, o.ID, l.ID))

	price := 250.0
	require.NoError(t, stale.Apply(entity.ListingPatch{Price: &price}))
	require.NoError(t, stale.MarkSold())
	assert.True(t, apperror.IsInvalidState(env.listings.MarkSold(ctx, stale)))

	got, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Price.Amount)
	assert.Equal(t, valueobject.ListingStatusSold, got.Status)
}

func TestListingRepository_SetImageTouchesOnlyImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)

	stale, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)

	price := 130.0
	require.NoError(t, l.Apply(entity.ListingPatch{Price: &price}))
	require.NoError(t, env.listings.Update(ctx, l))

	require.NoError(t, env.listings.SetImage(ctx, stale.ID, "/uploads/ravi/wheat.png"))
	got, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, got.Price.Amount)
	assert.Equal(t, "/uploads/ravi/wheat.png", got.Image)

	// правка полей не стирает изображение
	require.NoError(t, env.listings.Update(ctx, stale))
	got, err = env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/ravi/wheat.png", got.Image)

	assert.True(t, apperror.IsNotFound(env.listings.SetImage(ctx, uuid.New(), "/uploads/x.png")))
}

func TestListingRepository_DeleteCascadesOffers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	o := env.offer(t, l.ID, buyer.ID, 90)

	require.NoError(t, env.listings.Delete(ctx, l.ID))
	_, err := env.offers.FindByID(ctx, o.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListingRepository_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	env.listing(t, farmer.ID, "Basmati Rice", "Karnal", 80)
	env.listing(t, farmer.ID, "Wheat", "Indore", 30)
	env.listing(t, farmer.ID, "100%_Organic Rice", "Karnal", 120)
	sold := env.listing(t, farmer.ID, "Red Rice", "Kerala", 60)
	require.NoError(t, env.listings.MarkSold(ctx, sold))

	available := valueobject.ListingStatusAvailable

	items, total, err := env.listings.List(ctx, repository.ListingFilter{Crop: "RICE", Status: available, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "100%_Organic Rice", items[0].CropName, "сначала новые")
	assert.Equal(t, "Ravi", items[0].Farmer.Name)

	// спецсимволы LIKE ищутся буквально
	items, total, err = env.listings.List(ctx, repository.ListingFilter{Crop: "%_", Status: available, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	min, max := 50.0, 100.0
	items, _, err = env.listings.List(ctx, repository.ListingFilter{
		Location:   "karnal",
		PriceRange: valueobject.PriceRange{Min: &min, Max: &max},
		Status:     available,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Basmati Rice", items[0].CropName)

	items, total, err = env.listings.List(ctx, repository.ListingFilter{Status: valueobject.ListingStatusSold, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Red Rice", items[0].CropName)

	items, total, err = env.listings.List(ctx, repository.ListingFilter{Status: available, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)
}

func TestOfferRepository_AcceptTransitionsAtomically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyerA := env.user(t, "Anita", valueobject.RoleBuyer)
	buyerB := env.user(t, "Bala", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	a := env.offer(t, l.ID, buyerA.ID, 90)
	b := env.offer(t, l.ID, buyerB.ID, 95)

	require.NoError(t, env.offers.Accept(ctx, a.ID, l.ID))

	gotA, err := env.offers.FindByIDWithDetails(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusAccepted, gotA.Status)
	assert.Equal(t, valueobject.ListingStatusSold, gotA.Listing.Status)
	assert.Equal(t, "Anita", gotA.Buyer.Name)
	assert.Equal(t, "Ravi", gotA.Farmer.Name)

	gotB, err := env.offers.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusRejected, gotB.Status)

	err = env.offers.Accept(ctx, b.ID, l.ID)
	assert.True(t, apperror.IsInvalidState(err))

	// отказ в транзакции не оставляет частичных изменений
	gotB, err = env.offers.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusRejected, gotB.Status)
}

func TestOfferRepository_AcceptAlreadyHandledRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	a := env.offer(t, l.ID, buyer.ID, 90)

	require.NoError(t, env.offers.Reject(ctx, a.ID))
	err := env.offers.Accept(ctx, a.ID, l.ID)
	assert.True(t, apperror.IsInvalidState(err))

	got, err := env.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ListingStatusAvailable, got.Status)

	assert.True(t, apperror.IsInvalidState(env.offers.Reject(ctx, a.ID)))
}

func TestOfferRepository_ConcurrentAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)

	const buyers = 5
	offers := make([]*entity.Offer, buyers)
	for i := range offers {
		buyer := env.user(t, "Buyer", valueobject.RoleBuyer)
		offers[i] = env.offer(t, l.ID, buyer.ID, float64(90+i))
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i, o := range offers {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			errs[i] = env.offers.Accept(ctx, id, l.ID)
		}(i, o.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, apperror.IsInvalidState(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, winners)

	counts := map[valueobject.OfferStatus]int{}
	for _, o := range offers {
		stored, err := env.offers.FindByID(ctx, o.ID)
		require.NoError(t, err)
		counts[stored.Status]++
	}
	assert.Equal(t, 1, counts[valueobject.OfferStatusAccepted])
	assert.Equal(t, buyers-1, counts[valueobject.OfferStatusRejected])
	assert.Zero(t, counts[valueobject.OfferStatusPending])
}

func TestOfferRepository_CreateGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	l := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	first := env.offer(t, l.ID, buyer.ID, 90)

	m, _ := valueobject.NewMoney(91, "")
	dup, err := entity.NewOffer(l.ID, buyer.ID, m, "")
	require.NoError(t, err)
	assert.True(t, apperror.IsConflict(env.offers.Create(ctx, dup)))

	// уникальный индекс защищает и без проверки в транзакции
	_, err = env.conn.Exec(`INSERT INTO offers (id, listing_id, buyer_id, offer_price, currency, message, status, created_at, updated_at)
		VALUES (?, ?, ?, 1, 'INR', '', 'pending', ?, ?)`, uuid.New(), l.ID, buyer.ID, time.Now().UTC(), time.Now().UTC())
	assert.True(t, isUniqueViolation(err))

	pending, err := env.offers.FindPendingByListingAndBuyer(ctx, l.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, pending.ID)

	require.NoError(t, env.listings.MarkSold(ctx, l))
	got, err := env.offers.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusRejected, got.Status)

	none, err := env.offers.FindPendingByListingAndBuyer(ctx, l.ID, buyer.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	late, err := entity.NewOffer(l.ID, buyer.ID, m, "")
	require.NoError(t, err)
	assert.True(t, apperror.IsInvalidState(env.offers.Create(ctx, late)))

	missing, err := entity.NewOffer(uuid.New(), buyer.ID, m, "")
	require.NoError(t, err)
	assert.True(t, apperror.IsNotFound(env.offers.Create(ctx, missing)))

	assert.True(t, apperror.IsInvalidState(env.listings.MarkSold(ctx, l)))
}

func TestOfferRepository_ReceivedAndSent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.user(t, "Ravi", valueobject.RoleFarmer)
	other := env.user(t, "Mohan", valueobject.RoleFarmer)
	buyer := env.user(t, "Anita", valueobject.RoleBuyer)
	wheat := env.listing(t, farmer.ID, "Wheat", "Pune", 100)
	rice := env.listing(t, other.ID, "Rice", "Karnal", 80)
	env.offer(t, wheat.ID, buyer.ID, 90)
	env.offer(t, rice.ID, buyer.ID, 70)

	received, err := env.offers.FindReceivedByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "Anita", received[0].Buyer.Name)
	assert.Equal(t, "Wheat", received[0].Listing.CropName)
	assert.Equal(t, 100.0, received[0].Listing.Price.Amount)

	sent, err := env.offers.FindSentByBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, "Mohan", sent[0].Farmer.Name)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%rice%`, containsPattern(" RICE "))
	assert.Equal(t, `%100\%\_x%`, containsPattern("100%_x"))
}
