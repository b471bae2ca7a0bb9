package handler

import (
	"errors"
	"net/http"

	"github.com/gocar-app/gocar/internal/domain/types"
)

// errorResponse writes the API's `{success:false, message}` envelope.
func errorResponse(w http.ResponseWriter, status int, message string) {
	env := envelope{"success": false, "message": message}

	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// failedValidationResponse returns 422 Unprocessable Entity with the
// per-field errors. Repeating the request unchanged will fail the same way,
// which is exactly what 422 tells the client.
func failedValidationResponse(w http.ResponseWriter, errs map[string]string) {
	env := envelope{"success": false, "message": "validation failed", "errors": errs}

	if err := writeJSON(w, http.StatusUnprocessableEntity, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

func badRequestResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusBadRequest, message)
}

func serviceErrorResponse(w http.ResponseWriter, err error) {
	errorResponse(w, statusCode(err), err.Error())
}

// statusCode maps service errors to HTTP statuses.
func statusCode(err error) int {
	switch {
	case isOneOf(err, types.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case isOneOf(err, types.ErrUserNotFound, types.ErrRideNotFound, types.ErrProposalNotFound, types.ErrRentalNotFound):
		return http.StatusNotFound
	case isOneOf(err, types.ErrUserAlreadyExists, types.ErrRideAlreadyMatched):
		return http.StatusConflict
	case isOneOf(err, types.ErrDriverNotEligible):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func isOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
