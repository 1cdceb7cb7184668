package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"metroroute.org/internal/logging"
	"metroroute.org/internal/models"
	"metroroute.org/internal/network"
	"metroroute.org/internal/routing"
)

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(w)
	if response.Code != 0 && response.Code != http.StatusOK {
		w.WriteHeader(response.Code)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err,
			slog.String("path", r.URL.Path))
	}
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	api.sendResponse(w, r, models.ResponseModel{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        message,
		Version:     2,
	})
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) sendUnauthorized(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.ResponseModel{
		Code:        http.StatusUnauthorized,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        "permission denied",
		Version:     1,
	})
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "internal server error", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

// sendDomainError maps planner and import failures onto HTTP status codes.
func (api *RestAPI) sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidRequest), errors.Is(err, network.ErrMalformedInput):
		api.sendError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, routing.ErrNotFound):
		api.sendError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, network.ErrDataIntegrity):
		api.sendError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		api.serverErrorResponse(w, r, err)
	}
}

// validationErrorResponse reports bad query parameters keyed by parameter name.
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendResponse(w, r, models.ResponseModel{
		Code:        http.StatusBadRequest,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Data:        map[string]interface{}{"fieldErrors": fieldErrors},
		Text:        "validation error",
		Version:     2,
	})
}
