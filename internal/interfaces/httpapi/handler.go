package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/mexicorn/podium/internal/domain/guess"
	"github.com/mexicorn/podium/internal/domain/session"
	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

type Handler struct {
	sessionService  *usecase.SessionService
	guessService    *usecase.GuessService
	standingService *usecase.StandingService
	syncService     *usecase.SyncService
	logger          *logging.Logger
	validator       *validator.Validate
	now             func() time.Time
}

func NewHandler(
	sessionService *usecase.SessionService,
	guessService *usecase.GuessService,
	standingService *usecase.StandingService,
	syncService *usecase.SyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessionService:  sessionService,
		guessService:    guessService,
		standingService: standingService,
		syncService:     syncService,
		logger:          logger,
		validator:       validator.New(),
		now:             time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessions")
	defer span.End()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	sessions, err := h.sessionService.ListSessions(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list sessions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]sessionDTO, 0, len(sessions))
	for _, item := range sessions {
		items = append(items, sessionToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLatestSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLatestSession")
	defer span.End()

	item, err := h.sessionService.LatestSession(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get latest session failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.GetSession(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) ListSessionDrivers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessionDrivers")
	defer span.End()

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	drivers, err := h.sessionService.ListSessionDrivers(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list session drivers failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]driverDTO, 0, len(drivers))
	for _, item := range drivers {
		items = append(items, driverToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitGuess")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: missing principal", usecase.ErrUnauthorized))
		return
	}

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var payload submitGuessRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	stored, err := h.guessService.SubmitGuess(ctx, usecase.SubmitGuessInput{
		UserEmail:             principal.Email,
		Username:              principal.Name,
		SessionID:             sessionID,
		PositionOneDriverNo:   payload.PositionOneDriverNo,
		PositionTwoDriverNo:   payload.PositionTwoDriverNo,
		PositionThreeDriverNo: payload.PositionThreeDriverNo,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit guess failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, guessToDTO(stored))
}

func (h *Handler) GetMyGuess(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyGuess")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: missing principal", usecase.ErrUnauthorized))
		return
	}

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, found, err := h.guessService.GetMyGuess(ctx, principal.Email, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get my guess failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: no guess for session %d", usecase.ErrNotFound, sessionID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, guessToDTO(item))
}

func (h *Handler) GetSessionStanding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSessionStanding")
	defer span.End()

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.standingService.GetStanding(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get session standing failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) GetSessionWinner(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSessionWinner")
	defer span.End()

	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	winner, found, err := h.standingService.GetWinningGuess(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get session winner failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: no winning guess for session %d", usecase.ErrNotFound, sessionID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, guessToDTO(winner))
}

func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	year := h.now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: year must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		year = parsed
	}

	summary := h.syncService.SyncYear(ctx, year)
	writeSuccess(ctx, w, http.StatusOK, summary)
}

func pathSessionID(r *http.Request) (int64, error) {
	raw := r.PathValue("sessionID")
	sessionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sessionID <= 0 {
		return 0, fmt.Errorf("%w: session id must be a positive integer", usecase.ErrInvalidInput)
	}
	return sessionID, nil
}

type submitGuessRequest struct {
	PositionOneDriverNo   int `json:"position_1_driver_no" validate:"required,gt=0"`
	PositionTwoDriverNo   int `json:"position_2_driver_no" validate:"required,gt=0"`
	PositionThreeDriverNo int `json:"position_3_driver_no" validate:"required,gt=0"`
}

type sessionDTO struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Country string    `json:"country"`
	Date    time.Time `json:"date"`
}

type driverDTO struct {
	SessionID    int64  `json:"session_id"`
	DriverNumber int    `json:"driver_number"`
	DriverName   string `json:"driver_name"`
	Nationality  string `json:"nationality"`
	Team         string `json:"team"`
}

type guessDTO struct {
	UserEmail             string    `json:"user_email"`
	SessionID             int64     `json:"session_id"`
	PositionOneDriverNo   int       `json:"position_1_driver_no"`
	PositionTwoDriverNo   int       `json:"position_2_driver_no"`
	PositionThreeDriverNo int       `json:"position_3_driver_no"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func sessionToDTO(item session.Session) sessionDTO {
	return sessionDTO{
		ID:      item.ID,
		Name:    item.Name,
		Type:    item.Type,
		Country: item.Country,
		Date:    item.Date,
	}
}

func driverToDTO(item sessiondriver.Driver) driverDTO {
	return driverDTO{
		SessionID:    item.SessionID,
		DriverNumber: item.DriverNumber,
		DriverName:   item.DriverName,
		Nationality:  item.Nationality,
		Team:         item.Team,
	}
}

func guessToDTO(item guess.Guess) guessDTO {
	return guessDTO{
		UserEmail:             item.UserEmail,
		SessionID:             item.SessionID,
		PositionOneDriverNo:   item.PositionOneDriverNo,
		PositionTwoDriverNo:   item.PositionTwoDriverNo,
		PositionThreeDriverNo: item.PositionThreeDriverNo,
		UpdatedAt:             item.UpdatedAt,
	}
}
