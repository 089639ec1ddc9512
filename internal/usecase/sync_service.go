package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/domain/sessionresult"
	"github.com/mexicorn/podium/internal/platform/logging"
)

const podiumSize = 3

// RaceDataProvider is the gateway contract to the external racing-data API.
// Implementations must return either a clean payload list or an explicit
// absence (nil slice / nil pointer); transient upstream flakiness is retried
// inside the gateway and never leaks here as partial data.
type RaceDataProvider interface {
	FetchSessions(ctx context.Context, year int) ([]ExternalSession, error)
	FetchSessionByKey(ctx context.Context, key int64) ([]ExternalSession, error)
	FetchSessionDrivers(ctx context.Context, sessionKey int64) ([]ExternalDriver, error)
	FetchDriverAtPosition(ctx context.Context, sessionKey int64, position int) (*ExternalPosition, error)
}

type ExternalSession struct {
	SessionKey int64
	Name       string
	Type       string
	Country    string
	DateStart  time.Time
}

type ExternalDriver struct {
	SessionKey   int64
	DriverNumber int
	FullName     string
	CountryCode  string
	TeamName     string
}

type ExternalPosition struct {
	SessionKey   int64
	DriverNumber int
	Position     int
	Date         time.Time
}

type SyncConfig struct {
	Enabled bool
	// SessionTypes is the allow-list of persisted session types; empty means
	// the default Qualifying+Race set.
	SessionTypes []string
	// FetchWorkers bounds the concurrent driver-list fetches during
	// ReconcileDrivers.
	FetchWorkers int
}

// SyncSummary aggregates one SyncYear execution. A failed step is recorded
// in Errors without preventing later steps from running.
type SyncSummary struct {
	Year          int      `json:"year"`
	AddedSessions int      `json:"added_sessions"`
	AddedDrivers  int      `json:"added_drivers"`
	AddedResults  int      `json:"added_results"`
	Errors        []string `json:"errors,omitempty"`
}

// SyncService reconciles the external data source against local storage:
// sessions, then drivers, then results, each step in its own transaction
// scope. It is the single writer for provider-owned entities.
type SyncService struct {
	provider    RaceDataProvider
	sessionRepo session.Repository
	driverRepo  sessiondriver.Repository
	resultRepo  sessionresult.Repository
	cfg         SyncConfig
	logger      *logging.Logger
	now         func() time.Time
}

func NewSyncService(
	provider RaceDataProvider,
	sessionRepo session.Repository,
	driverRepo sessiondriver.Repository,
	resultRepo sessionresult.Repository,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SyncService{
		provider:    provider,
		sessionRepo: sessionRepo,
		driverRepo:  driverRepo,
		resultRepo:  resultRepo,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// SyncYear runs the full reconciliation pass for one year. Ordering is
// mandatory: drivers key off stored sessions and results key off both.
func (s *SyncService) SyncYear(ctx context.Context, year int) SyncSummary {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncYear")
	defer span.End()

	summary := SyncSummary{Year: year}

	added, err := s.ReconcileSessions(ctx, year)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("sessions: %v", err))
		s.logger.ErrorContext(ctx, "session reconciliation failed", "year", year, "error", err)
	}
	summary.AddedSessions = added

	added, err = s.ReconcileDrivers(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("drivers: %v", err))
		s.logger.ErrorContext(ctx, "driver reconciliation failed", "year", year, "error", err)
	}
	summary.AddedDrivers = added

	added, err = s.ReconcileResults(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("results: %v", err))
		s.logger.ErrorContext(ctx, "result reconciliation failed", "year", year, "error", err)
	}
	summary.AddedResults = added

	s.logger.InfoContext(ctx, "sync pass completed",
		"year", year,
		"added_sessions", summary.AddedSessions,
		"added_drivers", summary.AddedDrivers,
		"added_results", summary.AddedResults,
		"step_errors", len(summary.Errors),
	)

	return summary
}

// ReconcileSessions inserts sessions present upstream but absent locally.
// Stored sessions are never re-fetched or modified.
func (s *SyncService) ReconcileSessions(ctx context.Context, year int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ReconcileSessions")
	defer span.End()

	if err := s.ready(); err != nil {
		return 0, err
	}
	if year <= 0 {
		return 0, fmt.Errorf("%w: year must be positive", ErrInvalidInput)
	}

	external, err := s.provider.FetchSessions(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("fetch sessions year=%d: %w", year, err)
	}

	stored, err := s.sessionRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored sessions: %w", err)
	}
	storedIDs := make(map[int64]struct{}, len(stored))
	for _, item := range stored {
		storedIDs[item.ID] = struct{}{}
	}

	allowed := s.allowedTypes()
	missing := make([]int64, 0, len(external))
	seen := make(map[int64]struct{}, len(external))
	for _, item := range external {
		if item.SessionKey <= 0 {
			continue
		}
		if _, ok := allowed[session.NormalizeType(item.Type)]; !ok {
			continue
		}
		if _, ok := storedIDs[item.SessionKey]; ok {
			continue
		}
		if _, ok := seen[item.SessionKey]; ok {
			continue
		}
		seen[item.SessionKey] = struct{}{}
		missing = append(missing, item.SessionKey)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	if len(missing) == 0 {
		s.logger.DebugContext(ctx, "no missing sessions", "year", year)
		return 0, nil
	}

	rows := make([]session.Session, 0, len(missing))
	for _, key := range missing {
		// Defensive re-fetch by key: the year listing may lag behind the
		// per-session endpoint.
		payloads, err := s.provider.FetchSessionByKey(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "skip session this pass: fetch by key failed",
				"session_key", key, "error", err)
			continue
		}
		for _, item := range payloads {
			if item.SessionKey != key {
				continue
			}
			if _, ok := allowed[session.NormalizeType(item.Type)]; !ok {
				continue
			}
			rows = append(rows, session.Session{
				ID:      item.SessionKey,
				Name:    strings.TrimSpace(item.Name),
				Type:    session.NormalizeType(item.Type),
				Country: strings.TrimSpace(item.Country),
				Date:    item.DateStart,
			})
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}

	inserted, err := s.sessionRepo.InsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("insert missing sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "inserted missing sessions", "year", year, "count", inserted)
	return inserted, nil
}

// ReconcileDrivers backfills the driver list for every stored session that
// has none yet. Fetches run on a bounded worker pool; the insert is a single
// transaction that skips already-known (session, driver_number) pairs.
func (s *SyncService) ReconcileDrivers(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ReconcileDrivers")
	defer span.End()

	if err := s.ready(); err != nil {
		return 0, err
	}

	stored, err := s.sessionRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored sessions: %w", err)
	}

	covered, err := s.driverRepo.ListSessionIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions with drivers: %w", err)
	}
	coveredSet := make(map[int64]struct{}, len(covered))
	for _, id := range covered {
		coveredSet[id] = struct{}{}
	}

	missing := make([]int64, 0, len(stored))
	for _, item := range stored {
		if _, ok := coveredSet[item.ID]; !ok {
			missing = append(missing, item.ID)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	if len(missing) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.fetchWorkerCount(len(missing)))
	if err != nil {
		return 0, fmt.Errorf("create fetch worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	fetched := make(map[int64][]ExternalDriver, len(missing))

	var workers sync.WaitGroup
	for _, sessionID := range missing {
		sessionID := sessionID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			drivers, err := s.provider.FetchSessionDrivers(ctx, sessionID)
			if err != nil {
				s.logger.WarnContext(ctx, "skip session drivers this pass: fetch failed",
					"session_id", sessionID, "error", err)
				return
			}
			if len(drivers) == 0 {
				s.logger.DebugContext(ctx, "no drivers published yet", "session_id", sessionID)
				return
			}

			mu.Lock()
			fetched[sessionID] = drivers
			mu.Unlock()
		}); err != nil {
			workers.Done()
			return 0, fmt.Errorf("submit driver fetch task: %w", err)
		}
	}
	workers.Wait()

	rows := make([]sessiondriver.Driver, 0, len(fetched)*20)
	for _, sessionID := range missing {
		// Driver-granularity dedup is defensive: the "missing" test above is
		// at session granularity.
		seen := make(map[int]struct{}, len(fetched[sessionID]))
		for _, item := range fetched[sessionID] {
			if item.DriverNumber <= 0 {
				continue
			}
			if _, ok := seen[item.DriverNumber]; ok {
				continue
			}
			seen[item.DriverNumber] = struct{}{}
			rows = append(rows, sessiondriver.Driver{
				SessionID:    sessionID,
				DriverNumber: item.DriverNumber,
				DriverName:   strings.TrimSpace(item.FullName),
				Nationality:  strings.TrimSpace(item.CountryCode),
				Team:         strings.TrimSpace(item.TeamName),
			})
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}

	inserted, err := s.driverRepo.InsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("insert session drivers: %w", err)
	}

	s.logger.InfoContext(ctx, "inserted session drivers",
		"sessions", len(fetched), "count", inserted)
	return inserted, nil
}

// ReconcileResults upserts the official top-3 for every stored session that
// has no result row. A session with any unavailable position is skipped this
// pass; partial results are never written.
func (s *SyncService) ReconcileResults(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ReconcileResults")
	defer span.End()

	if err := s.ready(); err != nil {
		return 0, err
	}

	stored, err := s.sessionRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored sessions: %w", err)
	}

	covered, err := s.resultRepo.ListSessionIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions with results: %w", err)
	}
	coveredSet := make(map[int64]struct{}, len(covered))
	for _, id := range covered {
		coveredSet[id] = struct{}{}
	}

	missing := make([]int64, 0, len(stored))
	for _, item := range stored {
		if _, ok := coveredSet[item.ID]; !ok {
			missing = append(missing, item.ID)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	upserted := 0
	for _, sessionID := range missing {
		podium, ok := s.fetchPodium(ctx, sessionID)
		if !ok {
			continue
		}

		err := s.resultRepo.Upsert(ctx, sessionresult.Result{
			SessionID:             sessionID,
			PositionOneDriverNo:   podium[0],
			PositionTwoDriverNo:   podium[1],
			PositionThreeDriverNo: podium[2],
			UpdatedAt:             s.now().UTC(),
		})
		if err != nil {
			return upserted, fmt.Errorf("upsert result session_id=%d: %w", sessionID, err)
		}
		upserted++
	}

	if upserted > 0 {
		s.logger.InfoContext(ctx, "upserted session results", "count", upserted)
	}
	return upserted, nil
}

func (s *SyncService) fetchPodium(ctx context.Context, sessionID int64) ([podiumSize]int, bool) {
	var podium [podiumSize]int
	for position := 1; position <= podiumSize; position++ {
		payload, err := s.provider.FetchDriverAtPosition(ctx, sessionID, position)
		if err != nil {
			s.logger.WarnContext(ctx, "skip session result this pass: position fetch failed",
				"session_id", sessionID, "position", position, "error", err)
			return podium, false
		}
		if payload == nil || payload.DriverNumber <= 0 {
			s.logger.WarnContext(ctx, "skip session result this pass: position not available",
				"session_id", sessionID, "position", position)
			return podium, false
		}
		podium[position-1] = payload.DriverNumber
	}
	return podium, true
}

func (s *SyncService) ready() error {
	if !s.cfg.Enabled {
		return fmt.Errorf("%w: race data sync is disabled (SYNC_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.provider == nil || s.sessionRepo == nil || s.driverRepo == nil || s.resultRepo == nil {
		return fmt.Errorf("%w: race data sync is not fully configured", ErrDependencyUnavailable)
	}
	return nil
}

func (s *SyncService) allowedTypes() map[string]struct{} {
	types := s.cfg.SessionTypes
	if len(types) == 0 {
		types = session.DefaultGuessableTypes()
	}

	out := make(map[string]struct{}, len(types))
	for _, item := range types {
		normalized := session.NormalizeType(item)
		if normalized == "" {
			continue
		}
		out[normalized] = struct{}{}
	}
	return out
}

func (s *SyncService) fetchWorkerCount(tasks int) int {
	workers := s.cfg.FetchWorkers
	if workers <= 0 {
		workers = 4
	}
	if workers > tasks {
		workers = tasks
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
