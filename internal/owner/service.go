package owner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service manages the owner directory consumed by the wallet registry.
type Service struct {
	repo Repository
}

// NewService creates an owner service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new owner.
func (s *Service) Register(ctx context.Context, displayName string) (Owner, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return Owner{}, errors.New("display name is required")
	}

	o := Owner{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

// Get retrieves an owner by id.
func (s *Service) Get(ctx context.Context, id string) (Owner, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether the owner id is registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
