package usecase

import (
	"context"
	"fmt"

	"github.com/mexicorn/podium/internal/domain/guess"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/domain/sessionresult"
	"github.com/mexicorn/podium/internal/platform/logging"
)

// StandingRow is one podium position enriched with driver identity.
type StandingRow struct {
	Position     int    `json:"position"`
	DriverNumber int    `json:"driver_number"`
	DriverName   string `json:"driver_name"`
	Team         string `json:"team"`
}

// StandingService reads resolved session outcomes: the official podium and
// the winning guess, if any.
type StandingService struct {
	driverRepo sessiondriver.Repository
	resultRepo sessionresult.Repository
	guessRepo  guess.Repository
	logger     *logging.Logger
}

func NewStandingService(
	driverRepo sessiondriver.Repository,
	resultRepo sessionresult.Repository,
	guessRepo guess.Repository,
	logger *logging.Logger,
) *StandingService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StandingService{
		driverRepo: driverRepo,
		resultRepo: resultRepo,
		guessRepo:  guessRepo,
		logger:     logger,
	}
}

// GetStanding returns the official top-3 of the session. A session without
// a stored result yields an empty standing, not an error. A podium entry
// whose driver row cannot be resolved is omitted with a warning rather than
// failing the whole read.
func (s *StandingService) GetStanding(ctx context.Context, sessionID int64) ([]StandingRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.GetStanding")
	defer span.End()

	if sessionID <= 0 {
		return nil, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	result, found, err := s.resultRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get result for session %d: %w", sessionID, err)
	}
	if !found {
		return []StandingRow{}, nil
	}

	podium := []int{
		result.PositionOneDriverNo,
		result.PositionTwoDriverNo,
		result.PositionThreeDriverNo,
	}

	rows := make([]StandingRow, 0, len(podium))
	for i, driverNo := range podium {
		position := i + 1

		driver, found, err := s.driverRepo.GetByNumber(ctx, sessionID, driverNo)
		if err != nil {
			return nil, fmt.Errorf("resolve driver %d in session %d: %w", driverNo, sessionID, err)
		}
		if !found {
			s.logger.WarnContext(ctx, "podium driver missing from session entry list",
				"session_id", sessionID, "position", position, "driver_number", driverNo)
			continue
		}

		rows = append(rows, StandingRow{
			Position:     position,
			DriverNumber: driver.DriverNumber,
			DriverName:   driver.DriverName,
			Team:         driver.Team,
		})
	}

	return rows, nil
}

// GetWinningGuess returns the first stored guess that matches the official
// podium exactly, position by position. Ties break toward the earliest
// submission. The second return is false when the session has no result yet
// or nobody guessed it right.
func (s *StandingService) GetWinningGuess(ctx context.Context, sessionID int64) (guess.Guess, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.GetWinningGuess")
	defer span.End()

	if sessionID <= 0 {
		return guess.Guess{}, false, fmt.Errorf("%w: session id must be positive", ErrInvalidInput)
	}

	result, found, err := s.resultRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return guess.Guess{}, false, fmt.Errorf("get result for session %d: %w", sessionID, err)
	}
	if !found {
		return guess.Guess{}, false, nil
	}

	guesses, err := s.guessRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return guess.Guess{}, false, fmt.Errorf("list guesses for session %d: %w", sessionID, err)
	}

	for _, item := range guesses {
		if result.Matches(item.PositionOneDriverNo, item.PositionTwoDriverNo, item.PositionThreeDriverNo) {
			return item, true, nil
		}
	}
	return guess.Guess{}, false, nil
}
