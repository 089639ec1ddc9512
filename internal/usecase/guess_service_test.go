package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/infrastructure/repository/memory"
	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

type guessFixture struct {
	sessionRepo *memory.SessionRepository
	driverRepo  *memory.SessionDriverRepository
	guessRepo   *memory.GuessRepository
	userRepo    *memory.UserRepository
	svc         *usecase.GuessService
}

func newGuessFixture(t *testing.T) *guessFixture {
	t.Helper()

	f := &guessFixture{
		sessionRepo: memory.NewSessionRepository(),
		driverRepo:  memory.NewSessionDriverRepository(),
		guessRepo:   memory.NewGuessRepository(),
		userRepo:    memory.NewUserRepository(),
	}
	f.svc = usecase.NewGuessService(f.sessionRepo, f.driverRepo, f.guessRepo, f.userRepo, logging.NewNop())

	_, err := f.sessionRepo.InsertBatch(context.Background(), []session.Session{
		{ID: 7001, Name: "Race", Type: session.TypeRace, Country: "Monaco", Date: time.Now().Add(48 * time.Hour)},
		{ID: 7002, Name: "Race", Type: session.TypeRace, Country: "Spain", Date: time.Now().Add(-2 * time.Hour)},
	})
	require.NoError(t, err)

	entries := make([]sessiondriver.Driver, 0, 6)
	for _, sessionID := range []int64{7001, 7002} {
		for _, driverNo := range []int{44, 1, 16} {
			entries = append(entries, sessiondriver.Driver{
				SessionID:    sessionID,
				DriverNumber: driverNo,
			})
		}
	}
	_, err = f.driverRepo.InsertBatch(context.Background(), entries)
	require.NoError(t, err)

	return f
}

func TestGuessService_SubmitGuess_StoresValidGuessAndUser(t *testing.T) {
	f := newGuessFixture(t)

	stored, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "Ayrton@example.com",
		Username:              "ayrton",
		SessionID:             7001,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   1,
		PositionThreeDriverNo: 16,
	})
	require.NoError(t, err)

	assert.Equal(t, "ayrton@example.com", stored.UserEmail)
	assert.Equal(t, int64(7001), stored.SessionID)
	assert.Equal(t, 44, stored.PositionOneDriverNo)

	_, found, err := f.userRepo.GetByEmail(context.Background(), "ayrton@example.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGuessService_SubmitGuess_RejectsDriverNotInSession(t *testing.T) {
	f := newGuessFixture(t)

	_, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7001,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   99,
		PositionThreeDriverNo: 16,
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidGuess)

	_, found, getErr := f.guessRepo.GetByUserAndSession(context.Background(), "ayrton@example.com", 7001)
	require.NoError(t, getErr)
	assert.False(t, found, "rejected guess must not be stored")
}

func TestGuessService_SubmitGuess_RejectsUnknownSession(t *testing.T) {
	f := newGuessFixture(t)

	// The driver check runs first, so the unknown session surfaces as a
	// referential mismatch.
	_, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7777,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   1,
		PositionThreeDriverNo: 16,
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidGuess)
}

func TestGuessService_SubmitGuess_RejectsStartedSession(t *testing.T) {
	f := newGuessFixture(t)

	_, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7002,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   1,
		PositionThreeDriverNo: 16,
	})
	require.ErrorIs(t, err, usecase.ErrInvalidGuess)
	assert.Contains(t, err.Error(), "already started")
}

func TestGuessService_SubmitGuess_ResubmissionOverwrites(t *testing.T) {
	f := newGuessFixture(t)

	first, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7001,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   1,
		PositionThreeDriverNo: 16,
	})
	require.NoError(t, err)

	second, err := f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7001,
		PositionOneDriverNo:   16,
		PositionTwoDriverNo:   44,
		PositionThreeDriverNo: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "overwrite keeps the original row")

	all, err := f.guessRepo.ListBySession(context.Background(), 7001)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 16, all[0].PositionOneDriverNo)
}

func TestGuessService_GetMyGuess(t *testing.T) {
	f := newGuessFixture(t)

	_, found, err := f.svc.GetMyGuess(context.Background(), "ayrton@example.com", 7001)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = f.svc.SubmitGuess(context.Background(), usecase.SubmitGuessInput{
		UserEmail:             "ayrton@example.com",
		SessionID:             7001,
		PositionOneDriverNo:   44,
		PositionTwoDriverNo:   1,
		PositionThreeDriverNo: 16,
	})
	require.NoError(t, err)

	item, found, err := f.svc.GetMyGuess(context.Background(), "AYRTON@example.com", 7001)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 44, item.PositionOneDriverNo)
}
