package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cotizador/internal/config"
	"cotizador/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("missing_credentials")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrLicenseRevoked     = errors.New("license_revoked")
	ErrWrongPassword      = errors.New("wrong_password")
	ErrMissingToken       = errors.New("missing_token")
	ErrInvalidToken       = errors.New("invalid_token")
)

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
	CreateUser(ctx context.Context, u storage.User) (int64, error)
	CountUsers(ctx context.Context) (int, error)
}

type Claims struct {
	Username   string `json:"username"`
	LicenseKey string `json:"license_key"`
	DeviceID   string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	LicenseKey string `json:"license_key"`
}

type LoginResult struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Username   string    `json:"username"`
	LicenseKey string    `json:"license_key"`
}

type TokenInfo struct {
	Username   string    `json:"username"`
	LicenseKey string    `json:"license_key"`
	DeviceID   string    `json:"device_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Service struct {
	log   *slog.Logger
	users UserStore
	cfg   config.Auth
	now   func() time.Time
}

func NewService(log *slog.Logger, users UserStore, cfg config.Auth) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &Service{log: log, users: users, cfg: cfg, now: time.Now}
}

// SeedAdmin создаёт администратора по умолчанию, если пользователей ещё нет.
func (s *Service) SeedAdmin(ctx context.Context) error {
	const op = "service.auth.SeedAdmin"

	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultAdminPass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: hash: %w", op, err)
	}

	_, err = s.users.CreateUser(ctx, storage.User{
		Username:     strings.ToLower(s.cfg.DefaultAdmin),
		PasswordHash: string(hash),
		LicenseKey:   s.cfg.DefaultLicense,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("default admin created", slog.String("username", s.cfg.DefaultAdmin))
	return nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	const op = "service.auth.Login"

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidUser
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Active || (req.LicenseKey != "" && req.LicenseKey != user.LicenseKey) {
		return LoginResult{}, ErrLicenseRevoked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrWrongPassword
	}

	expires := s.now().Add(s.cfg.TokenTTL).UTC().Truncate(time.Second)
	claims := Claims{
		Username:   user.Username,
		LicenseKey: user.LicenseKey,
		DeviceID:   req.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: sign: %w", op, err)
	}

	return LoginResult{
		Token:      token,
		ExpiresAt:  expires,
		Username:   user.Username,
		LicenseKey: user.LicenseKey,
	}, nil
}

// ParseToken проверяет подпись и срок действия токена.
func (s *Service) ParseToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) TokenInfo(token string) (TokenInfo, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return TokenInfo{}, err
	}

	info := TokenInfo{Username: claims.Username, LicenseKey: claims.LicenseKey, DeviceID: claims.DeviceID}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}
