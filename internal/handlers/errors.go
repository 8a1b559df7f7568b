package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"activity-log-api/internal/generation"
	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
)

// Plain-text bodies kept from the original client contract
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgUnknownAction    = "Unknown action"
	msgInternal         = "Internal server error"
	msgBodyTooLarge     = "request body too large"
)

// isValidationError checks if an error is a presence or allow-list failure
func isValidationError(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}

// decodeError turns a per-action decode failure into a client error.
// Type mismatches name the offending field.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &models.ValidationError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s is invalid", typeErr.Field),
		}
	}
	return &models.ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}
}

// errorStatus maps a service error to a status code. A query the store
// cannot express, such as a day_of_week an integer column cannot hold, is
// the caller's fault.
func errorStatus(err error) int {
	if isValidationError(err) || repositories.IsInvalidQuery(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// generationStatus maps a generation result to a status code.
// The legacy convention always answers 200 and reports failures in the body.
func generationStatus(result generation.Result, strict bool) int {
	if !strict {
		return http.StatusOK
	}
	switch result.Failure {
	case generation.FailureNotConfigured:
		return http.StatusServiceUnavailable
	case generation.FailureProvider:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
