package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/repository"
)

// DeductionService reads and writes the business's deduction profile.
// There is no versioning: the last administrator write wins, and every
// pricing or combo call reads the current profile.
type DeductionService struct {
	repo     *repository.DeductionRepository
	fallback entity.DeductionProfile
}

func NewDeductionService(repo *repository.DeductionRepository, fallback entity.DeductionProfile) *DeductionService {
	return &DeductionService{repo: repo, fallback: fallback}
}

// Profile returns the configured deduction profile, or the configured
// fallback when none has been saved yet.
func (s *DeductionService) Profile(ctx context.Context) (entity.DeductionProfile, error) {
	if s.repo == nil {
		return s.fallback, nil
	}
	p, err := s.repo.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.fallback, nil
		}
		logger.Error().Err(err).Msg("Error loading deduction profile")
		return entity.DeductionProfile{}, err
	}
	return *p, nil
}

// Update overwrites the deduction profile.
func (s *DeductionService) Update(ctx context.Context, p entity.DeductionProfile) error {
	if s.repo == nil {
		s.fallback = p
		return nil
	}
	if err := s.repo.SaveProfile(ctx, &p); err != nil {
		logger.Error().Err(err).Msg("Error saving deduction profile")
		return err
	}
	logger.Info().Msgf("Deduction profile updated, composite rate %.4f", p.CompositeRate())
	return nil
}
