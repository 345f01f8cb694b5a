package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mi-raf/comment-moderation/internal/database"
	"github.com/mi-raf/comment-moderation/internal/models"
)

type (
	Config struct {
		Secret     []byte
		TokenTTL   time.Duration
		BcryptCost int
	}

	Service struct {
		users database.UserRepository
		cfg   Config
	}
)

func NewService(users database.UserRepository, cfg *Config) *Service {
	c := *cfg
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 30 * time.Minute
	}
	return &Service{users: users, cfg: c}
}

func (s *Service) Register(ctx context.Context, email, username, password string) error {
	if username == models.AutoReplyBot {
		return fmt.Errorf("username %s is reserved: %w", username, models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.Add(ctx, &models.User{Username: username, Email: email, PasswordHash: hash}); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("user registered")
	return nil
}

// Login returns a signed access token for valid credentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.Get(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("incorrect username or password: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", fmt.Errorf("incorrect username or password: %w", models.ErrUnauthorized)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	})
	return token.SignedString(s.cfg.Secret)
}

// Authenticate verifies a token and returns the username it was issued to.
func (s *Service) Authenticate(ctx context.Context, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("could not validate credentials: %w: %w", models.ErrUnauthorized, err)
	}
	if _, err := s.users.Get(ctx, claims.Subject); err != nil {
		return "", fmt.Errorf("unknown user %q: %w", claims.Subject, models.ErrUnauthorized)
	}
	return claims.Subject, nil
}
