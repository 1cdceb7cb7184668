package webui

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metroroute.org/internal/app"
	"metroroute.org/internal/appconf"
	"metroroute.org/internal/models"
	"metroroute.org/internal/transit"
)

func newTestWebUI(t *testing.T, env appconf.Environment) *WebUI {
	t.Helper()
	manager, err := transit.InitManager(context.Background(), transit.Config{
		DataPath: models.GetFixturePath(t, "stations.csv"),
		Env:      appconf.Test,
	}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	return &WebUI{Application: &app.Application{
		Config:  appconf.Config{Env: env},
		Manager: manager,
	}}
}

func getDebug(t *testing.T, webUI *WebUI, query string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	webUI.SetWebUIRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/"+query, nil))
	return rr
}

func TestDebugIndexHandlerProductionReturns404(t *testing.T) {
	webUI := newTestWebUI(t, appconf.Production)
	assert.Equal(t, http.StatusNotFound, getDebug(t, webUI, "?dataType=stations").Code)
}

func TestDebugIndexHandlerWithoutManager(t *testing.T) {
	webUI := &WebUI{Application: &app.Application{Config: appconf.Config{Env: appconf.Development}}}
	assert.Equal(t, http.StatusNotFound, getDebug(t, webUI, "").Code)
}

func TestDebugIndexHandlerDataTypes(t *testing.T) {
	webUI := newTestWebUI(t, appconf.Development)

	tests := []struct {
		dataType string
		title    string
		contains []string
	}{
		{"info", "Network - Info", []string{"stations.csv", "TransferEdges: (int) 1", `(string) (len=8) "stations": (int) 6`}},
		{"stations", "Network - Stations", []string{"North", "Central", "East"}},
		{"lines", "Network - Lines", []string{"Red", "#27ae60", "Blue"}},
		{"transfers", "Network - Transfers", []string{`From: (string) (len=1) "2"`, `To: (string) (len=1) "4"`}},
		{"graph", "Network - Graph", []string{`Line: (string) (len=8) "transfer"`}},
		{"warnings", "Network - Import Warnings", []string{"skipped incomplete station"}},
		{"", "Choose a data type", []string{"Please use one of the following"}},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			rr := getDebug(t, webUI, "?dataType="+tt.dataType)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

			body := rr.Body.String()
			assert.Contains(t, body, "<title>"+tt.title+"</title>")
			for _, want := range tt.contains {
				assert.Contains(t, body, html.EscapeString(want))
			}
		})
	}
}
