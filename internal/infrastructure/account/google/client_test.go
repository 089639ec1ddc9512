package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

func newTokenInfoServer(t *testing.T, calls *atomic.Int32, response func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		status, body := response(r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_VerifyAccessToken_MapsAndCachesPrincipal(t *testing.T) {
	var calls atomic.Int32
	exp := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	server := newTokenInfoServer(t, &calls, func(r *http.Request) (int, string) {
		assert.Equal(t, "id-token-1", r.URL.Query().Get("id_token"))
		return http.StatusOK, fmt.Sprintf(
			`{"aud":"podium-client","email":"Ayrton@Example.com","email_verified":"true","name":"Ayrton Senna","exp":"%s"}`, exp)
	})

	client := NewClient(ClientConfig{
		TokenInfoURL: server.URL,
		ClientID:     "podium-client",
		Logger:       logging.NewNop(),
	})

	principal, err := client.VerifyAccessToken(context.Background(), "id-token-1")
	require.NoError(t, err)
	assert.Equal(t, "ayrton@example.com", principal.Email)
	assert.Equal(t, "Ayrton Senna", principal.Name)

	_, err = client.VerifyAccessToken(context.Background(), "id-token-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second verification must be served from cache")
}

func TestClient_VerifyAccessToken_RejectsAudienceMismatch(t *testing.T) {
	var calls atomic.Int32
	server := newTokenInfoServer(t, &calls, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"aud":"someone-else","email":"a@example.com","email_verified":"true"}`
	})

	client := NewClient(ClientConfig{
		TokenInfoURL: server.URL,
		ClientID:     "podium-client",
		Logger:       logging.NewNop(),
	})

	_, err := client.VerifyAccessToken(context.Background(), "id-token-2")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestClient_VerifyAccessToken_RejectsUnverifiedEmailAndBadTokens(t *testing.T) {
	var calls atomic.Int32
	server := newTokenInfoServer(t, &calls, func(r *http.Request) (int, string) {
		if r.URL.Query().Get("id_token") == "expired" {
			return http.StatusBadRequest, `{"error":"invalid_token"}`
		}
		return http.StatusOK, `{"aud":"podium-client","email":"a@example.com","email_verified":"false"}`
	})

	client := NewClient(ClientConfig{
		TokenInfoURL: server.URL,
		ClientID:     "podium-client",
		Logger:       logging.NewNop(),
	})

	_, err := client.VerifyAccessToken(context.Background(), "expired")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = client.VerifyAccessToken(context.Background(), "unverified")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = client.VerifyAccessToken(context.Background(), "   ")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load(), "empty token must not reach google")
}
