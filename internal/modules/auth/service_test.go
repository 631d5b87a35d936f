package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pdfmark/internal/domain"
)

// Mock User Repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

// Mock Refresh Token Repository
type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Rotate(ctx context.Context, oldID int64, next *domain.RefreshToken) error {
	args := m.Called(ctx, oldID, next)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) RevokeByUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Mock JWT service
type mockJWTService struct {
	mock.Mock
}

func (m *mockJWTService) GenerateToken(id domain.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func (m *mockJWTService) Verify(token string) (domain.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

const testPepper = "test-pepper"

func newTestService(cfg Config) (*Service, *mockUserRepo, *mockRefreshTokenRepo, *mockJWTService) {
	users := new(mockUserRepo)
	refresh := new(mockRefreshTokenRepo)
	tokens := new(mockJWTService)
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 168 * time.Hour
	}
	cfg.RefreshTokenPepper = testPepper
	return NewService(users, refresh, tokens, cfg), users, refresh, tokens
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestService_Register_Success(t *testing.T) {
	service, users, _, _ := newTestService(Config{})

	users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "alice" && u.Role == domain.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("securepass123")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 1
	}).Return(nil)

	user, err := service.Register(context.Background(), RegisterRequest{
		Username: "  Alice ",
		Password: "securepass123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
	users.AssertExpectations(t)
}

func TestService_Register_UsernameTaken(t *testing.T) {
	service, users, _, _ := newTestService(Config{})
	users.On("ExistsByUsername", mock.Anything, "alice").Return(true, nil)

	_, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "securepass123"})

	assert.Equal(t, ErrUsernameTaken, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Register_RaceOnCreate(t *testing.T) {
	service, users, _, _ := newTestService(Config{})
	users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(domain.Conflict("duplicate"))

	_, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "securepass123"})

	assert.Equal(t, ErrUsernameTaken, err)
}

func TestService_Register_Validation(t *testing.T) {
	service, users, _, _ := newTestService(Config{})

	cases := []RegisterRequest{
		{Username: "ab", Password: "securepass123"},
		{Username: "bad name", Password: "securepass123"},
		{Username: "alice", Password: "short"},
		{Username: "alice", Password: "securepass123", Role: "owner"},
		{Username: "alice", Password: "securepass123", Email: "not-an-email"},
	}
	for _, req := range cases {
		_, err := service.Register(context.Background(), req)
		assert.True(t, errors.Is(err, domain.ErrValidation), "request %+v: %v", req, err)
	}
	users.AssertNotCalled(t, "ExistsByUsername", mock.Anything, mock.Anything)
}

func TestService_Register_AdminSignup(t *testing.T) {
	service, _, _, _ := newTestService(Config{})
	_, err := service.Register(context.Background(), RegisterRequest{Username: "root", Password: "securepass123", Role: "admin"})
	assert.Equal(t, ErrAdminSignupDisabled, err)

	service, users, _, _ := newTestService(Config{AllowAdminSignup: true})
	users.On("ExistsByUsername", mock.Anything, "root").Return(false, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)

	user, err := service.Register(context.Background(), RegisterRequest{Username: "root", Password: "securepass123", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestService_Login_Success(t *testing.T) {
	service, users, refresh, tokens := newTestService(Config{})
	stored := &domain.User{ID: 5, Username: "alice", Role: domain.RoleUser, PasswordHash: hashed(t, "securepass123")}

	users.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
	tokens.On("GenerateToken", domain.Identity{UserID: 5, Username: "alice", Role: domain.RoleUser}).Return("fake-jwt-token", nil)
	refresh.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == 5 && len(rt.TokenHash) == 64
	})).Return(nil)

	user, pair, err := service.Login(context.Background(), LoginRequest{Username: "Alice", Password: "securepass123"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, "fake-jwt-token", pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 64)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(1800), pair.ExpiresIn)
	// Only the hash of the refresh token is persisted.
	created := refresh.Calls[0].Arguments.Get(1).(*domain.RefreshToken)
	assert.Equal(t, hashTokenWithPepper(pair.RefreshToken, testPepper), created.TokenHash)

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
	refresh.AssertExpectations(t)
}

func TestService_Login_Failures(t *testing.T) {
	service, users, _, _ := newTestService(Config{})
	users.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 5, Username: "alice", PasswordHash: hashed(t, "securepass123")}, nil)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := service.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrongpassword"})
	assert.Equal(t, ErrInvalidCredentials, err)

	_, _, err = service.Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever1"})
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestService_Refresh_Rotates(t *testing.T) {
	service, users, refresh, tokens := newTestService(Config{})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	service.now = func() time.Time { return now }

	raw := "deadbeef"
	current := &domain.RefreshToken{ID: 9, UserID: 5, TokenHash: hashTokenWithPepper(raw, testPepper), ExpiresAt: now.Add(time.Hour)}
	refresh.On("GetByHash", mock.Anything, current.TokenHash).Return(current, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(&domain.User{ID: 5, Username: "alice", Role: domain.RoleUser}, nil)
	tokens.On("GenerateToken", mock.Anything).Return("new-access", nil)
	refresh.On("Rotate", mock.Anything, int64(9), mock.MatchedBy(func(next *domain.RefreshToken) bool {
		return next.UserID == 5 && next.ExpiresAt.Equal(now.Add(168*time.Hour))
	})).Return(nil)

	pair, err := service.Refresh(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.NotEqual(t, raw, pair.RefreshToken)
	refresh.AssertExpectations(t)
}

func TestService_Refresh_ReuseRevokesAll(t *testing.T) {
	service, _, refresh, _ := newTestService(Config{})
	revokedAt := time.Now().Add(-time.Minute)
	current := &domain.RefreshToken{ID: 9, UserID: 5, ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revokedAt}
	refresh.On("GetByHash", mock.Anything, mock.Anything).Return(current, nil)
	refresh.On("RevokeByUser", mock.Anything, int64(5)).Return(nil)

	_, err := service.Refresh(context.Background(), "old-token")

	assert.Equal(t, ErrRefreshTokenReused, err)
	refresh.AssertExpectations(t)
	refresh.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Refresh_LostRotationRace(t *testing.T) {
	service, users, refresh, tokens := newTestService(Config{})
	current := &domain.RefreshToken{ID: 9, UserID: 5, ExpiresAt: time.Now().Add(time.Hour)}
	refresh.On("GetByHash", mock.Anything, mock.Anything).Return(current, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(&domain.User{ID: 5, Username: "alice", Role: domain.RoleUser}, nil)
	tokens.On("GenerateToken", mock.Anything).Return("new-access", nil)
	refresh.On("Rotate", mock.Anything, int64(9), mock.Anything).Return(gorm.ErrRecordNotFound)

	_, err := service.Refresh(context.Background(), "token")
	assert.Equal(t, ErrRefreshTokenReused, err)
}

func TestService_Refresh_ExpiredOrUnknown(t *testing.T) {
	service, _, refresh, _ := newTestService(Config{})
	expired := &domain.RefreshToken{ID: 9, UserID: 5, ExpiresAt: time.Now().Add(-time.Second)}
	refresh.On("GetByHash", mock.Anything, hashTokenWithPepper("expired", testPepper)).Return(expired, nil)
	refresh.On("GetByHash", mock.Anything, hashTokenWithPepper("unknown", testPepper)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Refresh(context.Background(), "expired")
	assert.Equal(t, ErrInvalidRefreshToken, err)

	_, err = service.Refresh(context.Background(), "unknown")
	assert.Equal(t, ErrInvalidRefreshToken, err)

	_, err = service.Refresh(context.Background(), "   ")
	assert.Equal(t, ErrInvalidRefreshToken, err)
}

func TestService_Logout(t *testing.T) {
	service, _, refresh, _ := newTestService(Config{})
	refresh.On("GetByHash", mock.Anything, hashTokenWithPepper("live", testPepper)).
		Return(&domain.RefreshToken{ID: 3, UserID: 5}, nil)
	refresh.On("GetByHash", mock.Anything, hashTokenWithPepper("gone", testPepper)).Return(nil, gorm.ErrRecordNotFound)
	refresh.On("Revoke", mock.Anything, int64(3)).Return(nil)

	assert.NoError(t, service.Logout(context.Background(), "live"))
	assert.NoError(t, service.Logout(context.Background(), "gone"))
	assert.NoError(t, service.Logout(context.Background(), ""))
	refresh.AssertNumberOfCalls(t, "Revoke", 1)
}

func TestService_ResetPassword(t *testing.T) {
	service, users, refresh, _ := newTestService(Config{})
	users.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 5, Username: "alice", PasswordHash: hashed(t, "securepass123")}, nil)
	users.On("UpdatePassword", mock.Anything, int64(5), mock.MatchedBy(func(h string) bool {
		return bcrypt.CompareHashAndPassword([]byte(h), []byte("brandnewpass")) == nil
	})).Return(nil)
	refresh.On("RevokeByUser", mock.Anything, int64(5)).Return(nil)

	err := service.ResetPassword(context.Background(), ResetPasswordRequest{
		Username:        "alice",
		CurrentPassword: "securepass123",
		NewPassword:     "brandnewpass",
	})

	require.NoError(t, err)
	users.AssertExpectations(t)
	refresh.AssertExpectations(t)
}

func TestService_ResetPassword_WrongCurrent(t *testing.T) {
	service, users, _, _ := newTestService(Config{})
	users.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 5, Username: "alice", PasswordHash: hashed(t, "securepass123")}, nil)

	err := service.ResetPassword(context.Background(), ResetPasswordRequest{
		Username:        "alice",
		CurrentPassword: "nope-nope",
		NewPassword:     "brandnewpass",
	})

	assert.Equal(t, ErrInvalidCredentials, err)
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GetCurrentUser_NotFound(t *testing.T) {
	service, users, _, _ := newTestService(Config{})
	users.On("GetByID", mock.Anything, int64(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetCurrentUser(context.Background(), 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
