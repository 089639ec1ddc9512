package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/infrastructure/repository/memory"
	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

type stubProvider struct {
	fetchSessions         func(ctx context.Context, year int) ([]usecase.ExternalSession, error)
	fetchSessionByKey     func(ctx context.Context, key int64) ([]usecase.ExternalSession, error)
	fetchSessionDrivers   func(ctx context.Context, sessionKey int64) ([]usecase.ExternalDriver, error)
	fetchDriverAtPosition func(ctx context.Context, sessionKey int64, position int) (*usecase.ExternalPosition, error)
}

func (p *stubProvider) FetchSessions(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
	return p.fetchSessions(ctx, year)
}

func (p *stubProvider) FetchSessionByKey(ctx context.Context, key int64) ([]usecase.ExternalSession, error) {
	return p.fetchSessionByKey(ctx, key)
}

func (p *stubProvider) FetchSessionDrivers(ctx context.Context, sessionKey int64) ([]usecase.ExternalDriver, error) {
	return p.fetchSessionDrivers(ctx, sessionKey)
}

func (p *stubProvider) FetchDriverAtPosition(ctx context.Context, sessionKey int64, position int) (*usecase.ExternalPosition, error) {
	return p.fetchDriverAtPosition(ctx, sessionKey, position)
}

func enabledSyncConfig() usecase.SyncConfig {
	return usecase.SyncConfig{Enabled: true, FetchWorkers: 2}
}

func TestSyncService_ReconcileSessions_InsertsOnlyMissingAllowedTypes(t *testing.T) {
	upstream := []usecase.ExternalSession{
		{SessionKey: 9001, Name: "Qualifying", Type: "Qualifying", Country: "Italy", DateStart: time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)},
		{SessionKey: 9002, Name: "Race", Type: "Race", Country: "Italy", DateStart: time.Date(2026, 9, 6, 13, 0, 0, 0, time.UTC)},
		{SessionKey: 9003, Name: "Practice 1", Type: "Practice", Country: "Italy", DateStart: time.Date(2026, 9, 4, 11, 30, 0, 0, time.UTC)},
	}
	byKey := make(map[int64]usecase.ExternalSession, len(upstream))
	for _, item := range upstream {
		byKey[item.SessionKey] = item
	}

	provider := &stubProvider{
		fetchSessions: func(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
			return upstream, nil
		},
		fetchSessionByKey: func(ctx context.Context, key int64) ([]usecase.ExternalSession, error) {
			return []usecase.ExternalSession{byKey[key]}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	_, err := sessionRepo.InsertBatch(context.Background(), []session.Session{
		{ID: 9001, Name: "Qualifying", Type: session.TypeQualifying, Country: "Italy"},
	})
	require.NoError(t, err)

	svc := usecase.NewSyncService(provider, sessionRepo,
		memory.NewSessionDriverRepository(), memory.NewSessionResultRepository(),
		enabledSyncConfig(), logging.NewNop())

	added, err := svc.ReconcileSessions(context.Background(), 2026)
	require.NoError(t, err)
	// 9001 already stored, 9003 filtered by type allow-list.
	assert.Equal(t, 1, added)

	stored, err := sessionRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(9002), stored[1].ID)
	assert.Equal(t, session.TypeRace, stored[1].Type)
}

func TestSyncService_ReconcileSessions_SecondPassIsNoop(t *testing.T) {
	provider := &stubProvider{
		fetchSessions: func(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
			return []usecase.ExternalSession{
				{SessionKey: 9100, Name: "Race", Type: "Race", Country: "Belgium", DateStart: time.Date(2026, 7, 26, 13, 0, 0, 0, time.UTC)},
			}, nil
		},
		fetchSessionByKey: func(ctx context.Context, key int64) ([]usecase.ExternalSession, error) {
			return []usecase.ExternalSession{
				{SessionKey: key, Name: "Race", Type: "Race", Country: "Belgium", DateStart: time.Date(2026, 7, 26, 13, 0, 0, 0, time.UTC)},
			}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	svc := usecase.NewSyncService(provider, sessionRepo,
		memory.NewSessionDriverRepository(), memory.NewSessionResultRepository(),
		enabledSyncConfig(), logging.NewNop())

	added, err := svc.ReconcileSessions(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = svc.ReconcileSessions(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestSyncService_ReconcileSessions_SkipsSessionWhenRefetchFails(t *testing.T) {
	provider := &stubProvider{
		fetchSessions: func(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
			return []usecase.ExternalSession{
				{SessionKey: 9201, Name: "Qualifying", Type: "Qualifying", DateStart: time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)},
				{SessionKey: 9202, Name: "Race", Type: "Race", DateStart: time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC)},
			}, nil
		},
		fetchSessionByKey: func(ctx context.Context, key int64) ([]usecase.ExternalSession, error) {
			if key == 9201 {
				return nil, errors.New("upstream timeout")
			}
			return []usecase.ExternalSession{
				{SessionKey: key, Name: "Race", Type: "Race", DateStart: time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC)},
			}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	svc := usecase.NewSyncService(provider, sessionRepo,
		memory.NewSessionDriverRepository(), memory.NewSessionResultRepository(),
		enabledSyncConfig(), logging.NewNop())

	added, err := svc.ReconcileSessions(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	_, found, err := sessionRepo.GetByID(context.Background(), 9202)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = sessionRepo.GetByID(context.Background(), 9201)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSyncService_ReconcileDrivers_BackfillsUncoveredSessions(t *testing.T) {
	provider := &stubProvider{
		fetchSessionDrivers: func(ctx context.Context, sessionKey int64) ([]usecase.ExternalDriver, error) {
			if sessionKey == 9302 {
				return nil, errors.New("upstream timeout")
			}
			return []usecase.ExternalDriver{
				{SessionKey: sessionKey, DriverNumber: 44, FullName: "Lewis Hamilton", CountryCode: "GBR", TeamName: "Ferrari"},
				{SessionKey: sessionKey, DriverNumber: 1, FullName: "Max Verstappen", CountryCode: "NED", TeamName: "Red Bull Racing"},
				// Duplicate payload entry must not produce a second row.
				{SessionKey: sessionKey, DriverNumber: 44, FullName: "Lewis Hamilton", CountryCode: "GBR", TeamName: "Ferrari"},
			}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	_, err := sessionRepo.InsertBatch(context.Background(), []session.Session{
		{ID: 9301, Type: session.TypeQualifying},
		{ID: 9302, Type: session.TypeRace},
		{ID: 9303, Type: session.TypeRace},
	})
	require.NoError(t, err)

	driverRepo := memory.NewSessionDriverRepository()
	_, err = driverRepo.InsertBatch(context.Background(), []sessiondriver.Driver{
		{SessionID: 9303, DriverNumber: 16, DriverName: "Charles Leclerc"},
	})
	require.NoError(t, err)

	svc := usecase.NewSyncService(provider, sessionRepo, driverRepo,
		memory.NewSessionResultRepository(), enabledSyncConfig(), logging.NewNop())

	added, err := svc.ReconcileDrivers(context.Background())
	require.NoError(t, err)
	// Only 9301 is both uncovered and fetchable; 9302 fails, 9303 is covered.
	assert.Equal(t, 2, added)

	drivers, err := driverRepo.ListBySession(context.Background(), 9301)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, 1, drivers[0].DriverNumber)
	assert.Equal(t, 44, drivers[1].DriverNumber)
}

func TestSyncService_ReconcileResults_SkipsIncompletePodiums(t *testing.T) {
	provider := &stubProvider{
		fetchDriverAtPosition: func(ctx context.Context, sessionKey int64, position int) (*usecase.ExternalPosition, error) {
			if sessionKey == 9402 && position == 3 {
				// Upstream has not published the full classification yet.
				return nil, nil
			}
			return &usecase.ExternalPosition{
				SessionKey:   sessionKey,
				DriverNumber: position * 10,
				Position:     position,
			}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	_, err := sessionRepo.InsertBatch(context.Background(), []session.Session{
		{ID: 9401, Type: session.TypeRace},
		{ID: 9402, Type: session.TypeRace},
	})
	require.NoError(t, err)

	resultRepo := memory.NewSessionResultRepository()
	svc := usecase.NewSyncService(provider, sessionRepo,
		memory.NewSessionDriverRepository(), resultRepo,
		enabledSyncConfig(), logging.NewNop())

	added, err := svc.ReconcileResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	result, found, err := resultRepo.GetBySession(context.Background(), 9401)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10, result.PositionOneDriverNo)
	assert.Equal(t, 20, result.PositionTwoDriverNo)
	assert.Equal(t, 30, result.PositionThreeDriverNo)

	_, found, err = resultRepo.GetBySession(context.Background(), 9402)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSyncService_SyncYear_CollectsStepErrorsAndContinues(t *testing.T) {
	provider := &stubProvider{
		fetchSessions: func(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
			return nil, errors.New("listing endpoint down")
		},
		fetchSessionDrivers: func(ctx context.Context, sessionKey int64) ([]usecase.ExternalDriver, error) {
			return []usecase.ExternalDriver{
				{SessionKey: sessionKey, DriverNumber: 81, FullName: "Oscar Piastri", TeamName: "McLaren"},
			}, nil
		},
		fetchDriverAtPosition: func(ctx context.Context, sessionKey int64, position int) (*usecase.ExternalPosition, error) {
			return &usecase.ExternalPosition{SessionKey: sessionKey, DriverNumber: 81, Position: position}, nil
		},
	}

	sessionRepo := memory.NewSessionRepository()
	_, err := sessionRepo.InsertBatch(context.Background(), []session.Session{
		{ID: 9501, Type: session.TypeRace},
	})
	require.NoError(t, err)

	svc := usecase.NewSyncService(provider, sessionRepo,
		memory.NewSessionDriverRepository(), memory.NewSessionResultRepository(),
		enabledSyncConfig(), logging.NewNop())

	summary := svc.SyncYear(context.Background(), 2026)

	assert.Equal(t, 2026, summary.Year)
	assert.Equal(t, 0, summary.AddedSessions)
	assert.Equal(t, 1, summary.AddedDrivers)
	assert.Equal(t, 1, summary.AddedResults)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "sessions:")
}

func TestSyncService_DisabledSyncIsRejected(t *testing.T) {
	svc := usecase.NewSyncService(&stubProvider{}, memory.NewSessionRepository(),
		memory.NewSessionDriverRepository(), memory.NewSessionResultRepository(),
		usecase.SyncConfig{Enabled: false}, logging.NewNop())

	_, err := svc.ReconcileSessions(context.Background(), 2026)
	assert.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}
