// Package webui serves development-only pages for inspecting the loaded network.
package webui

import (
	"net/http"

	"metroroute.org/internal/app"
)

type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/{$}", webUI.debugIndexHandler)
}
