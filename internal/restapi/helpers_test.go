package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"metroroute.org/internal/app"
	"metroroute.org/internal/appconf"
	"metroroute.org/internal/clock"
	"metroroute.org/internal/logging"
	"metroroute.org/internal/metrics"
	"metroroute.org/internal/models"
	"metroroute.org/internal/transit"
)

const testAPIKey = "TEST"

var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func testAppConfig() appconf.Config {
	return appconf.Config{
		Env:       appconf.Test,
		ApiKeys:   []string{testAPIKey},
		RateLimit: 100,
	}
}

// createTestApi serves the station CSV fixture.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWith(t, testAppConfig(), transit.Config{
		DataPath: models.GetFixturePath(t, "stations.csv"),
	})
}

func createTestApiWith(t *testing.T, cfg appconf.Config, transitCfg transit.Config) *RestAPI {
	t.Helper()
	transitCfg.Env = appconf.Test

	m := metrics.New()
	c := clock.NewMockClock(testNow)
	manager, err := transit.InitManager(context.Background(), transitCfg, m, c)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	api := NewRestAPI(&app.Application{
		Config:        cfg,
		TransitConfig: transitCfg,
		Logger:        logging.NewStructuredLogger(io.Discard, 0),
		Manager:       manager,
		Clock:         c,
		Metrics:       m,
	})
	t.Cleanup(api.Shutdown)
	return api
}

func newTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(api.Handler(mux))
	t.Cleanup(server.Close)
	return server
}

func decodeResponse(t *testing.T, resp *http.Response) models.ResponseModel {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	return model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := newTestServer(t, api)
	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	return resp, decodeResponse(t, resp)
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func dataOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", model.Data)
	return data
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	entry, ok := dataOf(t, model)["entry"].(map[string]interface{})
	require.True(t, ok, "entry missing")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	list, ok := dataOf(t, model)["list"].([]interface{})
	require.True(t, ok, "list missing")
	return list
}

func referencesOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	refs, ok := dataOf(t, model)["references"].(map[string]interface{})
	require.True(t, ok, "references missing")
	return refs
}

// collectAllIdsFromObjects reads the "id" of every object in list.
func collectAllIdsFromObjects(t *testing.T, list []interface{}, key string) []string {
	t.Helper()
	ids := make([]string, 0, len(list))
	for i, item := range list {
		object, ok := item.(map[string]interface{})
		require.True(t, ok, "item %d is %T", i, item)
		id, ok := object[key].(string)
		require.True(t, ok, "item %d key %q is %T", i, key, object[key])
		ids = append(ids, id)
	}
	return ids
}

func stringsOf(t *testing.T, v interface{}) []string {
	t.Helper()
	raw, ok := v.([]interface{})
	require.True(t, ok, "value is %T", v)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		require.True(t, ok)
		out = append(out, s)
	}
	return out
}

func createTestApiWithLineTable(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWith(t, testAppConfig(), transit.Config{
		DataPath:        models.GetFixturePath(t, "lines.csv"),
		CoordinatesPath: models.GetFixturePath(t, "coordinates.csv"),
		WalkingPath:     models.GetFixturePath(t, "walking.csv"),
	})
}

func transitConfigWithoutData() transit.Config {
	return transit.Config{}
}
