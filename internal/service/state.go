package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// SessionService is the thin persistence facade the wizard builds on.
type SessionService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewSessionService(stateRepo domain.StateRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	state, err := s.stateRepo.GetState(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session state")
		return nil, err
	}

	return state, nil
}

func (s *SessionService) SaveSession(ctx context.Context, state *models.SessionState) error {
	state.UpdatedAt = time.Now()
	return s.stateRepo.SetState(ctx, state)
}

func (s *SessionService) ClearSession(ctx context.Context, sessionID string) error {
	return s.stateRepo.ClearState(ctx, sessionID)
}

func (s *SessionService) CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, sessionID, limit, window)
}
