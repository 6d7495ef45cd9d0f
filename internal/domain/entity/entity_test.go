package entity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

func money(t *testing.T, amount float64) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoney(amount, "")
	require.NoError(t, err)
	return m
}

func TestNewListing_Defaults(t *testing.T) {
	farmerID := uuid.New()
	l, err := NewListing(farmerID, "  Wheat ", 100, "", money(t, 100), " Pune ", "")
	require.NoError(t, err)

	assert.Equal(t, "Wheat", l.CropName)
	assert.Equal(t, "Pune", l.Location)
	assert.Equal(t, valueobject.UnitKg, l.Unit)
	assert.Equal(t, valueobject.ListingStatusAvailable, l.Status)
	assert.True(t, l.IsOwnedBy(farmerID))
	assert.True(t, l.IsAvailable())
	assert.NotEqual(t, uuid.Nil, l.ID)
}

func TestNewListing_Validation(t *testing.T) {
	farmerID := uuid.New()

	_, err := NewListing(farmerID, "   ", 1, "kg", money(t, 1), "Pune", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewListing(farmerID, "Rice", -1, "kg", money(t, 1), "Pune", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewListing(farmerID, "Rice", 1, "bushel", money(t, 1), "Pune", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewListing(farmerID, "Rice", 1, "kg", money(t, 1), "", "")
	assert.True(t, apperror.IsValidation(err))
}

func TestListing_Apply(t *testing.T) {
	l, err := NewListing(uuid.New(), "Wheat", 100, "kg", money(t, 100), "Pune", "")
	require.NoError(t, err)

	price := 120.0
	desc := "  organic  "
	require.NoError(t, l.Apply(ListingPatch{Price: &price, Description: &desc}))
	assert.Equal(t, 120.0, l.Price.Amount)
	assert.Equal(t, "organic", l.Description)
	assert.Equal(t, "Wheat", l.CropName)

	// неудачное изменение не трогает объявление
	empty := " "
	negative := -5.0
	assert.Error(t, l.Apply(ListingPatch{CropName: &empty, Price: &negative}))
	assert.Equal(t, "Wheat", l.CropName)
	assert.Equal(t, 120.0, l.Price.Amount)
}

func TestListing_MarkSold(t *testing.T) {
	l, err := NewListing(uuid.New(), "Wheat", 100, "kg", money(t, 100), "Pune", "")
	require.NoError(t, err)

	require.NoError(t, l.MarkSold())
	assert.Equal(t, valueobject.ListingStatusSold, l.Status)

	err = l.MarkSold()
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOffer_Lifecycle(t *testing.T) {
	o, err := NewOffer(uuid.New(), uuid.New(), money(t, 95), "  can pick up tomorrow ")
	require.NoError(t, err)
	assert.Equal(t, "can pick up tomorrow", o.Message)
	assert.True(t, o.IsPending())

	require.NoError(t, o.Accept())
	assert.Equal(t, valueobject.OfferStatusAccepted, o.Status)
	assert.False(t, o.IsPending())

	assert.True(t, apperror.IsInvalidState(o.Accept()))
	assert.True(t, apperror.IsInvalidState(o.Reject()))
}

func TestOffer_RejectOnce(t *testing.T) {
	o, err := NewOffer(uuid.New(), uuid.New(), money(t, 90), "")
	require.NoError(t, err)

	require.NoError(t, o.Reject())
	assert.Equal(t, valueobject.OfferStatusRejected, o.Status)
	assert.True(t, apperror.IsInvalidState(o.Accept()))
}

func TestNewOffer_MessageTooLong(t *testing.T) {
	_, err := NewOffer(uuid.New(), uuid.New(), money(t, 1), strings.Repeat("a", 501))
	assert.True(t, apperror.IsValidation(err))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Ravi ", "+91 98765 43210", "hash", valueobject.RoleFarmer, "Nashik")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", u.Name)
	assert.Equal(t, "+919876543210", u.Phone)
	assert.Equal(t, "Nashik", u.Summary().Location)

	_, err = NewUser("Ravi", "123", "hash", valueobject.RoleFarmer, "")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewUser("Ravi", "9876543210", "hash", valueobject.Role("admin"), "")
	assert.True(t, apperror.IsValidation(err))
}
