package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/auth"
)

type memTokens struct {
	rows map[string]*models.RefreshToken
}

func (m *memTokens) Create(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	m.rows[token] = &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m *memTokens) GetByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.rows[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Revoke(_ context.Context, token string) error {
	t, ok := m.rows[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	if t.Revoked {
		return apperrors.ErrTokenRevoked
	}
	t.Revoked = true
	return nil
}

// staleTokens serves reads from a snapshot taken before any revocation, like two
// requests that both read the row before either updates it
type staleTokens struct {
	*memTokens
	snapshot map[string]models.RefreshToken
}

func (s *staleTokens) GetByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := s.snapshot[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	return &t, nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	for _, t := range m.rows {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memUsers, *memTokens) {
	t.Helper()
	cost := auth.BcryptCost
	auth.BcryptCost = 4
	t.Cleanup(func() { auth.BcryptCost = cost })

	users := newMemUsers()
	tokens := &memTokens{rows: map[string]*models.RefreshToken{}}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "learnsphere-test",
	})
	return NewAuthService(users, tokens, jwtService, zerolog.Nop()), users, tokens
}

func registration() *dto.RegisterRequest {
	return &dto.RegisterRequest{Email: "ada@example.test", Password: "engine1843", FirstName: "Ada", LastName: "Lovelace"}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthFixture(t)

	resp, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, string(models.RoleStudent), resp.User.Role)
	assert.Contains(t, tokens.rows, resp.Token.RefreshToken)

	stored, err := users.GetByEmail(ctx, "ada@example.test")
	require.NoError(t, err)
	assert.NotEqual(t, "engine1843", stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "engine1843"))

	_, err = svc.Register(ctx, registration())
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	req := registration()
	req.Email = "instructor@example.test"
	req.Role = models.RoleInstructor
	resp, err = svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleInstructor), resp.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "nope", Password: "short", Role: models.RoleAdmin})
	assert.ElementsMatch(t, []string{"email", "password", "firstName", "lastName", "role"}, fieldsOf(t, err))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthFixture(t)
	_, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.test", Password: "engine1843"})
	require.NoError(t, err)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.test", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.test", Password: "engine1843"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	stored, err := users.GetByEmail(ctx, "ada@example.test")
	require.NoError(t, err)
	stored.IsActive = false
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.test", Password: "engine1843"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthFixture(t)
	resp, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	first := resp.Token.RefreshToken

	next, err := svc.RefreshToken(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, first, next.Token.RefreshToken)
	assert.True(t, tokens.rows[first].Revoked, "the used token is rotated out")

	_, err = svc.RefreshToken(ctx, first)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.RefreshToken(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.RefreshToken(ctx, next.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	require.NoError(t, svc.Logout(ctx, "unknown-token"))
	require.NoError(t, svc.Logout(ctx, first), "already revoked")
}

func TestRefreshTokenRotatesOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthFixture(t)
	resp, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	token := resp.Token.RefreshToken

	stale := &staleTokens{memTokens: tokens, snapshot: map[string]models.RefreshToken{token: *tokens.rows[token]}}
	svc.tokenRepo = stale

	_, err = svc.RefreshToken(ctx, token)
	require.NoError(t, err)
	issued := len(tokens.rows)

	_, err = svc.RefreshToken(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked, "a read that raced the first rotation must not mint a pair")
	assert.Len(t, tokens.rows, issued)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthFixture(t)
	resp, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)

	_, err = svc.GetProfile(ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
