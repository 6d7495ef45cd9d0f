package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

func init() {
	logger.SetOutput(io.Discard)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func newTestTokens() *TokenManager {
	return NewTokenManager("access-secret-access-secret-0000", "refresh-secret-refresh-secret-00", 15*time.Minute, time.Hour)
}

func userWithPassword(t *testing.T, password string, role valueobject.Role) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := entity.NewUser("Ravi", "+919876543210", string(hash), role, "Nashik")
	require.NoError(t, err)
	return u
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockUserRepo)
	tokens := newTestTokens()
	svc := NewAuthService(repo, tokens).WithBcryptCost(bcrypt.MinCost)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.Phone == "+919876543210" && u.Role == valueobject.RoleFarmer
	})).Return(nil)

	res, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ravi",
		Phone:    "+91 98765 43210",
		Password: "Harvest2024",
		Role:     "farmer",
		Location: "Nashik",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TokenPair.AccessToken)
	assert.NotEqual(t, "Harvest2024", res.User.PasswordHash)

	userID, role, err := tokens.ParseAccess(res.TokenPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
	assert.Equal(t, valueobject.RoleFarmer, role)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokens()).WithBcryptCost(bcrypt.MinCost)

	cases := []RegisterInput{
		{Name: "Ravi", Phone: "+919876543210", Password: "weak", Role: "farmer"},
		{Name: "Ravi", Phone: "12", Password: "Harvest2024", Role: "farmer"},
		{Name: "Ravi", Phone: "+919876543210", Password: "Harvest2024", Role: "admin"},
		{Name: " ", Phone: "+919876543210", Password: "Harvest2024", Role: "buyer"},
	}
	for i, in := range cases {
		_, err := svc.Register(context.Background(), in)
		assert.True(t, apperror.IsValidation(err), "case %d: %v", i, err)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicatePhone(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokens()).WithBcryptCost(bcrypt.MinCost)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperror.ErrPhoneTaken)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ravi", Phone: "+919876543210", Password: "Harvest2024", Role: "buyer",
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Login(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokens())
	user := userWithPassword(t, "Harvest2024", valueobject.RoleBuyer)
	repo.On("FindByPhone", mock.Anything, "+919876543210").Return(user, nil)

	res, err := svc.Login(context.Background(), LoginInput{Phone: "+91 98765-43210", Password: "Harvest2024"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	_, err = svc.Login(context.Background(), LoginInput{Phone: "+919876543210", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownPhone(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokens())
	repo.On("FindByPhone", mock.Anything, mock.Anything).Return(nil, apperror.ErrUserNotFound)

	_, err := svc.Login(context.Background(), LoginInput{Phone: "+919876543210", Password: "Harvest2024"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_StorageError(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokens())
	dbErr := apperror.Wrap(errors.New("timeout"), apperror.ErrCodeDatabaseError, "не удалось получить пользователя")
	repo.On("FindByPhone", mock.Anything, mock.Anything).Return(nil, dbErr)

	_, err := svc.Login(context.Background(), LoginInput{Phone: "+919876543210", Password: "Harvest2024"})
	assert.ErrorIs(t, err, dbErr)
}

func TestAuthService_Refresh(t *testing.T) {
	repo := new(mockUserRepo)
	tokens := newTestTokens()
	svc := NewAuthService(repo, tokens)
	user := userWithPassword(t, "Harvest2024", valueobject.RoleFarmer)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := tokens.GeneratePair(user)
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, res.TokenPair.AccessToken)

	// access токен не подходит как refresh
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))

	_, err = svc.Refresh(context.Background(), "")
	assert.True(t, apperror.IsValidation(err))
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	user := userWithPassword(t, "Harvest2024", valueobject.RoleBuyer)
	pair, err := newTestTokens().GeneratePair(user)
	require.NoError(t, err)

	other := NewTokenManager("another-access-secret-0000000000", "another-refresh-secret-000000000", time.Minute, time.Minute)
	_, _, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
	_, err = other.ParseRefresh(pair.RefreshToken)
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	user := userWithPassword(t, "Harvest2024", valueobject.RoleBuyer)
	tokens := NewTokenManager("access-secret-access-secret-0000", "refresh-secret-refresh-secret-00", -time.Minute, time.Hour)
	pair, err := tokens.GeneratePair(user)
	require.NoError(t, err)

	_, _, err = tokens.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}
