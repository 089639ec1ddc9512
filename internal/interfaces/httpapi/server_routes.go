package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/sessions", RequireAuth(verifier, http.HandlerFunc(handler.ListSessions)))
	mux.Handle("GET /v1/sessions/latest", RequireAuth(verifier, http.HandlerFunc(handler.GetLatestSession)))
	mux.Handle("GET /v1/sessions/{sessionID}", RequireAuth(verifier, http.HandlerFunc(handler.GetSession)))
	mux.Handle("GET /v1/sessions/{sessionID}/drivers", RequireAuth(verifier, http.HandlerFunc(handler.ListSessionDrivers)))
	mux.Handle("POST /v1/sessions/{sessionID}/guesses", RequireAuth(verifier, http.HandlerFunc(handler.SubmitGuess)))
	mux.Handle("GET /v1/sessions/{sessionID}/guesses/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyGuess)))
	mux.Handle("GET /v1/sessions/{sessionID}/standing", RequireAuth(verifier, http.HandlerFunc(handler.GetSessionStanding)))
	mux.Handle("GET /v1/sessions/{sessionID}/winner", RequireAuth(verifier, http.HandlerFunc(handler.GetSessionWinner)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncJob)))
}
