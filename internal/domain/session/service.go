package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Create(ctx context.Context, userID int) (string, error)
	Validate(ctx context.Context, token string) (int, error)
}

type Config struct {
	TokenTTL  time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

type Service struct {
	repo   Repository
	cache  otter.Cache[string, int]
	log    *slog.Logger
	config *Config
	now    func() time.Time
}

func NewService(repo Repository, log *slog.Logger, config *Config) (*Service, error) {
	if config == nil {
		config = &Config{
			TokenTTL:  30 * 24 * time.Hour,
			CacheTTL:  time.Minute,
			CacheSize: 10_000,
		}
	}

	// Кэш хэш токена -> userID, чтобы не ходить в базу на каждый запрос
	cache, err := otter.MustBuilder[string, int](config.CacheSize).
		WithTTL(config.CacheTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build session cache: %w", err)
	}

	return &Service{
		repo:   repo,
		cache:  cache,
		log:    log,
		config: config,
		now:    time.Now,
	}, nil
}

func (s *Service) Create(ctx context.Context, userID int) (string, error) {
	// Генерация токена
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	token := base64.URLEncoding.EncodeToString(tokenBytes)

	expiresAt := s.now().Add(s.config.TokenTTL)
	if err := s.repo.Create(ctx, userID, hashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	return token, nil
}

func (s *Service) Validate(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}

	hash := hashToken(token)
	if userID, ok := s.cache.Get(hash); ok {
		return userID, nil
	}

	userID, err := s.repo.Validate(ctx, hash)
	if err != nil {
		return 0, err
	}

	s.cache.Set(hash, userID)
	return userID, nil
}

// Close останавливает фоновую очистку кэша
func (s *Service) Close() {
	s.cache.Close()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
