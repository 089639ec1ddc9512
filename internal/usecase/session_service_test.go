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

func seedSessions(t *testing.T, repo *memory.SessionRepository) {
	t.Helper()

	_, err := repo.InsertBatch(context.Background(), []session.Session{
		{ID: 6001, Name: "Qualifying", Type: session.TypeQualifying, Date: time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)},
		{ID: 6002, Name: "Race", Type: session.TypeRace, Date: time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)},
		{ID: 6003, Name: "Race", Type: session.TypeRace, Date: time.Date(2026, 3, 22, 14, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
}

func TestSessionService_ListSessions_NewestFirstWithLimit(t *testing.T) {
	sessionRepo := memory.NewSessionRepository()
	seedSessions(t, sessionRepo)

	svc := usecase.NewSessionService(sessionRepo, memory.NewSessionDriverRepository(), logging.NewNop())

	items, err := svc.ListSessions(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(6003), items[0].ID)
	assert.Equal(t, int64(6002), items[1].ID)
}

func TestSessionService_LatestSession(t *testing.T) {
	sessionRepo := memory.NewSessionRepository()

	svc := usecase.NewSessionService(sessionRepo, memory.NewSessionDriverRepository(), logging.NewNop())

	_, err := svc.LatestSession(context.Background())
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	seedSessions(t, sessionRepo)

	item, err := svc.LatestSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6003), item.ID)
}

func TestSessionService_ListSessionDrivers(t *testing.T) {
	sessionRepo := memory.NewSessionRepository()
	seedSessions(t, sessionRepo)

	driverRepo := memory.NewSessionDriverRepository()
	_, err := driverRepo.InsertBatch(context.Background(), []sessiondriver.Driver{
		{SessionID: 6002, DriverNumber: 44, DriverName: "Lewis Hamilton"},
		{SessionID: 6002, DriverNumber: 1, DriverName: "Max Verstappen"},
	})
	require.NoError(t, err)

	svc := usecase.NewSessionService(sessionRepo, driverRepo, logging.NewNop())

	drivers, err := svc.ListSessionDrivers(context.Background(), 6002)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, 1, drivers[0].DriverNumber)

	_, err = svc.ListSessionDrivers(context.Background(), 6999)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}
