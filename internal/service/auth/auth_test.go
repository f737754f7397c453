package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cotizador/internal/config"
	"cotizador/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

func (m *MockUsers) CreateUser(ctx context.Context, u storage.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsers) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newService(users UserStore) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, users, config.Auth{
		JWTSecret:        "secret",
		TokenTTL:         time.Hour,
		DefaultAdmin:     "Admin@VC999.com",
		DefaultAdminPass: "admin",
		DefaultLicense:   "DEMO-ADMIN",
	})
}

func user(t *testing.T, password string, active bool) *storage.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &storage.User{ID: 1, Username: "ana", PasswordHash: string(hash), LicenseKey: "LIC-1", Active: active}
}

func TestLogin_Success(t *testing.T) {
	users := new(MockUsers)
	users.On("GetUserByUsername", mock.Anything, "ana").Return(user(t, "pw", true), nil)

	s := newService(users)
	res, err := s.Login(context.Background(), LoginRequest{Username: "  ANA ", Password: "pw", DeviceID: "pc-1"})
	require.NoError(t, err)
	assert.Equal(t, "ana", res.Username)
	assert.Equal(t, "LIC-1", res.LicenseKey)
	assert.NotEmpty(t, res.Token)

	info, err := s.TokenInfo(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana", info.Username)
	assert.Equal(t, "pc-1", info.DeviceID)
	assert.Equal(t, res.ExpiresAt, info.ExpiresAt)

	users.AssertExpectations(t)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     LoginRequest
		user    *storage.User
		userErr error
		want    error
	}{
		{name: "missing", req: LoginRequest{Username: "ana"}, want: ErrMissingCredentials},
		{name: "unknown user", req: LoginRequest{Username: "ana", Password: "pw"}, userErr: storage.ErrUserNotFound, want: ErrInvalidUser},
		{name: "inactive", req: LoginRequest{Username: "ana", Password: "pw"}, user: user(t, "pw", false), want: ErrLicenseRevoked},
		{name: "other license", req: LoginRequest{Username: "ana", Password: "pw", LicenseKey: "LIC-2"}, user: user(t, "pw", true), want: ErrLicenseRevoked},
		{name: "wrong password", req: LoginRequest{Username: "ana", Password: "nope"}, user: user(t, "pw", true), want: ErrWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUsers)
			if tt.user != nil || tt.userErr != nil {
				users.On("GetUserByUsername", mock.Anything, "ana").Return(tt.user, tt.userErr)
			}

			_, err := newService(users).Login(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin_StorageError(t *testing.T) {
	users := new(MockUsers)
	users.On("GetUserByUsername", mock.Anything, "ana").Return(nil, errors.New("db down"))

	_, err := newService(users).Login(context.Background(), LoginRequest{Username: "ana", Password: "pw"})
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, ErrInvalidUser)
}

func TestParseToken(t *testing.T) {
	users := new(MockUsers)
	users.On("GetUserByUsername", mock.Anything, "ana").Return(user(t, "pw", true), nil)

	s := newService(users)
	res, err := s.Login(context.Background(), LoginRequest{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	_, err = s.ParseToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = s.ParseToken(res.Token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// просроченный токен
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.ParseToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSeedAdmin(t *testing.T) {
	users := new(MockUsers)
	users.On("CountUsers", mock.Anything).Return(0, nil).Once()
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u storage.User) bool {
		return u.Username == "admin@vc999.com" &&
			u.LicenseKey == "DEMO-ADMIN" &&
			u.Active &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin")) == nil
	})).Return(int64(1), nil).Once()

	s := newService(users)
	require.NoError(t, s.SeedAdmin(context.Background()))

	users.On("CountUsers", mock.Anything).Return(1, nil).Once()
	require.NoError(t, s.SeedAdmin(context.Background()))

	users.AssertExpectations(t)
	users.AssertNumberOfCalls(t, "CreateUser", 1)
}
