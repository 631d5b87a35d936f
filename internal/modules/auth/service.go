package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pdfmark/internal/domain"
	"pdfmark/internal/logger"
	"pdfmark/internal/pkg/validator"
)

type Config struct {
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	RefreshTokenPepper string
	AllowAdminSignup   bool
}

// Service contains all business logic for authentication
type Service struct {
	users         UserRepositoryInterface
	refreshTokens RefreshTokenRepositoryInterface
	tokens        TokenIssuer
	cfg           Config
	now           func() time.Time
}

func NewService(
	users UserRepositoryInterface,
	refreshTokens RefreshTokenRepositoryInterface,
	tokens TokenIssuer,
	cfg Config,
) *Service {
	return &Service{
		users:         users,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Username = domain.NormalizeUsername(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if fields := validator.Validate(req); fields != nil {
		return nil, domain.Validation("%s", validator.Summary(fields))
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if role.CanAdminister() && !s.cfg.AllowAdminSignup {
		return nil, ErrAdminSignupDisabled
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Log.Infow("user registered", "user_id", user.ID, "role", user.Role)
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, *TokenPair, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, nil, domain.Validation("%s", validator.Summary(fields))
	}

	user, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// Verify checks an access token without any I/O.
func (s *Service) Verify(token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated or revoked revokes every live token of its user.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidRefreshToken
	}

	current, err := s.refreshTokens.GetByHash(ctx, hashTokenWithPepper(raw, s.cfg.RefreshTokenPepper))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := s.now()
	if current.IsRevoked() {
		if err := s.refreshTokens.RevokeByUser(ctx, current.UserID); err != nil {
			return nil, err
		}
		logger.Log.Warnw("refresh token reuse detected", "user_id", current.UserID, "token_id", current.ID)
		return nil, ErrRefreshTokenReused
	}
	if current.IsExpired(now) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	accessToken, err := s.tokens.GenerateToken(user.Identity())
	if err != nil {
		return nil, err
	}
	newRaw, newHash, err := generateOpaqueRefreshToken(s.cfg.RefreshTokenPepper)
	if err != nil {
		return nil, err
	}

	next := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: newHash,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := s.refreshTokens.Rotate(ctx, current.ID, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenReused
		}
		return nil, err
	}

	return s.pair(accessToken, newRaw), nil
}

// Logout is idempotent: unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	token, err := s.refreshTokens.GetByHash(ctx, hashTokenWithPepper(raw, s.cfg.RefreshTokenPepper))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.refreshTokens.Revoke(ctx, token.ID)
}

// ResetPassword replaces the password after checking the current one and
// ends every session of the user.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if fields := validator.Validate(req); fields != nil {
		return domain.Validation("%s", validator.Summary(fields))
	}

	user, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.refreshTokens.RevokeByUser(ctx, user.ID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("user %d not found", userID)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateToken(user.Identity())
	if err != nil {
		return nil, err
	}

	raw, hash, err := generateOpaqueRefreshToken(s.cfg.RefreshTokenPepper)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokens.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
	}); err != nil {
		return nil, err
	}
	return s.pair(accessToken, raw), nil
}

func (s *Service) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateOpaqueRefreshToken(pepper string) (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	hash = hashTokenWithPepper(raw, pepper)
	return raw, hash, nil
}

func hashTokenWithPepper(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
