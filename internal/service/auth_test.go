package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medibook/config"
	"medibook/internal/domain"
	"medibook/pkg/auth"
)

type fakeAuthRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeAuthRepo) CreateSession(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeAuthRepo) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshToken == refreshToken {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("сессия не найдена")
}

func (r *fakeAuthRepo) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeAuthRepo) DeleteSessionsByUserID(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeAuthRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, s := range r.sessions {
		if s.Expired() {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeAuthRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SigningKey:      "test-signing-key",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 720 * time.Hour,
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig(), zap.NewNop())
	ctx := context.Background()

	dto := domain.RegisterRequest{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Phone:     "+79161234567",
		Password:  "password123",
		Role:      domain.UserRolePatient,
	}

	id, err := svc.Register(ctx, dto)
	require.NoError(t, err)
	assert.Positive(t, id)

	// Повторная регистрация с тем же email отклоняется.
	_, err = svc.Register(ctx, dto)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))

	// Вход по email.
	tokens, err := svc.Login(ctx, domain.LoginRequest{Login: "ivan@example.com", Password: "password123"}, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Вход по телефону.
	_, err = svc.Login(ctx, domain.LoginRequest{Login: "+79161234567", Password: "password123"}, "ua", "127.0.0.1")
	require.NoError(t, err)

	// Неверный пароль не раскрывает, существует ли пользователь.
	_, err = svc.Login(ctx, domain.LoginRequest{Login: "ivan@example.com", Password: "wrong"}, "ua", "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	_, err = svc.Login(ctx, domain.LoginRequest{Login: "nobody@example.com", Password: "password123"}, "ua", "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))
}

func TestAuthParseToken(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig(), zap.NewNop())
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := users.add(domain.User{
		Email:        "doc@example.com",
		Phone:        "+79160000001",
		PasswordHash: hash,
		Role:         domain.UserRoleDoctor,
		IsActive:     true,
	})

	tokens, err := svc.Login(ctx, domain.LoginRequest{Login: "doc@example.com", Password: "password123"}, "ua", "ip")
	require.NoError(t, err)

	userID, role, err := svc.ParseToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, domain.UserRoleDoctor, role)

	_, _, err = svc.ParseToken(ctx, "not-a-token")
	require.Error(t, err)

	// Токен, подписанный другим ключом, отклоняется.
	other := NewAuthService(sessions, users, config.JWTConfig{SigningKey: "other-key", AccessTokenTTL: time.Minute}, zap.NewNop())
	_, _, err = other.ParseToken(ctx, tokens.AccessToken)
	require.Error(t, err)
}

func TestAuthRefreshRotation(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig(), zap.NewNop())
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	users.add(domain.User{
		Email:        "ivan@example.com",
		Phone:        "+79160000002",
		PasswordHash: hash,
		Role:         domain.UserRolePatient,
		IsActive:     true,
	})

	tokens, err := svc.Login(ctx, domain.LoginRequest{Login: "ivan@example.com", Password: "password123"}, "ua", "ip")
	require.NoError(t, err)

	rotated, err := svc.RefreshTokens(ctx, tokens.RefreshToken, "ua", "ip")
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// Старый refresh token после ротации недействителен.
	_, err = svc.RefreshTokens(ctx, tokens.RefreshToken, "ua", "ip")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	// Logout закрывает сессию, повторное обновление невозможно.
	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.RefreshTokens(ctx, rotated.RefreshToken, "ua", "ip")
	require.Error(t, err)
}

func TestAuthCleanupExpiredSessions(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, sessions.CreateSession(ctx, domain.Session{
		ID: "expired", UserID: 1, RefreshToken: "a", ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, sessions.CreateSession(ctx, domain.Session{
		ID: "live", UserID: 1, RefreshToken: "b", ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.CleanupExpiredSessions(ctx))
	assert.Equal(t, 1, sessions.count())
}
