package failure

import (
	"context"
	"fmt"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Save(ctx context.Context, rec *Record) error {
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save failure record: %w", err)
	}
	return nil
}

// List returns the newest records first. Out of range limits are clamped.
func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	return s.repo.List(ctx, limit)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
