package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mexicorn/podium/internal/domain/guess"
	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/domain/user"
	"github.com/mexicorn/podium/internal/platform/logging"
)

type SubmitGuessInput struct {
	UserEmail             string
	Username              string
	SessionID             int64
	PositionOneDriverNo   int
	PositionTwoDriverNo   int
	PositionThreeDriverNo int
}

// GuessService accepts and validates podium predictions. A user holds at
// most one guess per session; resubmitting before the deadline overwrites
// the previous one.
type GuessService struct {
	sessionRepo session.Repository
	driverRepo  sessiondriver.Repository
	guessRepo   guess.Repository
	userRepo    user.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewGuessService(
	sessionRepo session.Repository,
	driverRepo sessiondriver.Repository,
	guessRepo guess.Repository,
	userRepo user.Repository,
	logger *logging.Logger,
) *GuessService {
	if logger == nil {
		logger = logging.Default()
	}

	return &GuessService{
		sessionRepo: sessionRepo,
		driverRepo:  driverRepo,
		guessRepo:   guessRepo,
		userRepo:    userRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// SubmitGuess validates and stores one prediction. Checks run fail-fast:
// every guessed driver must be entered in the session, the session must
// exist, and its start time must still be in the future.
func (s *GuessService) SubmitGuess(ctx context.Context, input SubmitGuessInput) (guess.Guess, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuessService.SubmitGuess")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.UserEmail))
	if email == "" {
		return guess.Guess{}, fmt.Errorf("%w: user email is required", ErrUnauthorized)
	}
	if input.SessionID <= 0 {
		return guess.Guess{}, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	for _, driverNo := range []int{
		input.PositionOneDriverNo,
		input.PositionTwoDriverNo,
		input.PositionThreeDriverNo,
	} {
		if driverNo <= 0 {
			return guess.Guess{}, fmt.Errorf("%w: driver number must be positive", ErrInvalidInput)
		}
		_, found, err := s.driverRepo.GetByNumber(ctx, input.SessionID, driverNo)
		if err != nil {
			return guess.Guess{}, fmt.Errorf("check driver %d in session %d: %w", driverNo, input.SessionID, err)
		}
		if !found {
			return guess.Guess{}, fmt.Errorf("%w: driver %d is not entered in session %d",
				ErrInvalidGuess, driverNo, input.SessionID)
		}
	}

	item, found, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return guess.Guess{}, fmt.Errorf("get session %d: %w", input.SessionID, err)
	}
	if !found {
		return guess.Guess{}, fmt.Errorf("%w: session %d is unknown", ErrInvalidGuess, input.SessionID)
	}
	if !item.Open(s.now()) {
		return guess.Guess{}, fmt.Errorf("%w: session %d already started or finished",
			ErrInvalidGuess, input.SessionID)
	}

	if err := s.userRepo.Ensure(ctx, user.User{
		Email:     email,
		Username:  strings.TrimSpace(input.Username),
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return guess.Guess{}, fmt.Errorf("ensure user %s: %w", email, err)
	}

	stored, err := s.guessRepo.Upsert(ctx, guess.Guess{
		UserEmail:             email,
		SessionID:             input.SessionID,
		PositionOneDriverNo:   input.PositionOneDriverNo,
		PositionTwoDriverNo:   input.PositionTwoDriverNo,
		PositionThreeDriverNo: input.PositionThreeDriverNo,
		UpdatedAt:             s.now().UTC(),
	})
	if err != nil {
		return guess.Guess{}, fmt.Errorf("store guess for session %d: %w", input.SessionID, err)
	}

	s.logger.InfoContext(ctx, "guess stored",
		"session_id", input.SessionID,
		"user_email", email,
		"podium", fmt.Sprintf("%d-%d-%d",
			stored.PositionOneDriverNo, stored.PositionTwoDriverNo, stored.PositionThreeDriverNo),
	)

	return stored, nil
}

// GetMyGuess returns the caller's stored guess for the session, if any.
func (s *GuessService) GetMyGuess(ctx context.Context, userEmail string, sessionID int64) (guess.Guess, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuessService.GetMyGuess")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(userEmail))
	if email == "" {
		return guess.Guess{}, false, fmt.Errorf("%w: user email is required", ErrUnauthorized)
	}
	if sessionID <= 0 {
		return guess.Guess{}, false, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	item, found, err := s.guessRepo.GetByUserAndSession(ctx, email, sessionID)
	if err != nil {
		return guess.Guess{}, false, fmt.Errorf("get guess for session %d: %w", sessionID, err)
	}
	return item, found, nil
}
