package usecase

import (
	"context"
	"fmt"

	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/platform/logging"
)

const (
	defaultSessionListLimit = 20
	maxSessionListLimit     = 100
)

// SessionService serves read-only session and entry-list views.
type SessionService struct {
	sessionRepo session.Repository
	driverRepo  sessiondriver.Repository
	logger      *logging.Logger
}

func NewSessionService(
	sessionRepo session.Repository,
	driverRepo sessiondriver.Repository,
	logger *logging.Logger,
) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SessionService{
		sessionRepo: sessionRepo,
		driverRepo:  driverRepo,
		logger:      logger,
	}
}

// ListSessions returns stored sessions newest first. A non-positive limit
// falls back to the default page size; oversized limits are clamped.
func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ListSessions")
	defer span.End()

	if limit <= 0 {
		limit = defaultSessionListLimit
	}
	if limit > maxSessionListLimit {
		limit = maxSessionListLimit
	}

	items, err := s.sessionRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return items, nil
}

// LatestSession returns the most recent session by start date.
func (s *SessionService) LatestSession(ctx context.Context) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.LatestSession")
	defer span.End()

	item, found, err := s.sessionRepo.Latest(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("get latest session: %w", err)
	}
	if !found {
		return session.Session{}, fmt.Errorf("%w: no sessions stored yet", ErrNotFound)
	}
	return item, nil
}

// GetSession returns one session by id.
func (s *SessionService) GetSession(ctx context.Context, sessionID int64) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.GetSession")
	defer span.End()

	if sessionID <= 0 {
		return session.Session{}, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	item, found, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	if !found {
		return session.Session{}, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	return item, nil
}

// ListSessionDrivers returns the entry list of a stored session.
func (s *SessionService) ListSessionDrivers(ctx context.Context, sessionID int64) ([]sessiondriver.Driver, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ListSessionDrivers")
	defer span.End()

	if sessionID <= 0 {
		return nil, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	_, found, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	items, err := s.driverRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list drivers for session %d: %w", sessionID, err)
	}
	return items, nil
}
