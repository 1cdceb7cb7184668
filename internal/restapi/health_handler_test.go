package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metroroute.org/internal/transit"
)

func healthOf(t *testing.T, api *RestAPI) (int, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	api.healthHandler(w, req)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func TestHealthHandlerWithNilApplication(t *testing.T) {
	code, resp := healthOf(t, &RestAPI{})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "manager or database not initialized", resp.Detail)
}

func TestHealthHandlerReturnsOK(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestHealthHandlerWithoutNetwork(t *testing.T) {
	api := createTestApiWith(t, testAppConfig(), transit.Config{})

	code, resp := healthOf(t, api)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "starting", resp.Status)
}

func TestHealthHandlerDatabaseClosed(t *testing.T) {
	api := createTestApi(t)
	require.NoError(t, api.Manager.DB.DB.Close())

	code, resp := healthOf(t, api)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "database connection failed", resp.Detail)
}
