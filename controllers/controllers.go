package controllers

import (
	"errors"
	"net/http"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		helpers.WriteErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyExists):
		helpers.WriteErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalid):
		helpers.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		helpers.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}
