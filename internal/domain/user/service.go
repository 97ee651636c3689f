package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	Ensure(ctx context.Context, login string) (User, error)
	Find(ctx context.Context, login string) (User, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	if validator == nil {
		validator = NewLoginValidator()
	}
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

// Ensure заводит пользователя при первом выпуске токена.
func (s *Service) Ensure(ctx context.Context, login string) (User, error) {
	if err := s.validator.ValidateLogin(login); err != nil {
		s.log.Debug("validation failed", "login", login, "error", err)
		return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	u, err := s.repo.Ensure(ctx, login)
	if err != nil {
		return User{}, fmt.Errorf("ensure user %s: %w", login, err)
	}
	return u, nil
}

func (s *Service) Find(ctx context.Context, login string) (User, error) {
	u, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user %s: %w", login, err)
	}
	return u, nil
}
