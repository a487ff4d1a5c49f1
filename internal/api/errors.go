package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/store"
)

// Error codes for failures that are not command faults.
const (
	ErrCodeNotFound     = "RESOURCE_NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// StandardError is the body of every error response.
type StandardError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Account string `json:"account,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}

// statusOf maps a command fault code to an HTTP status.
func statusOf(code fault.Code) int {
	switch code {
	case fault.InvalidArgument, fault.DecodeFailure:
		return http.StatusBadRequest
	case fault.MissingAuthentication:
		return http.StatusUnauthorized
	case fault.AuthorizationMismatch:
		return http.StatusForbidden
	case fault.CapacityExceeded, fault.ExternalServiceIdentityMismatch, fault.ExternalTransferFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorBody converts err to a status and response body.
func errorBody(err error) (int, StandardErrorResponse) {
	var fe *fault.Error
	switch {
	case errors.As(err, &fe):
		return statusOf(fe.Code), StandardErrorResponse{Error: StandardError{
			Code:    string(fe.Code),
			Message: fe.Error(),
			Account: fe.Account,
		}}
	case errors.Is(err, store.ErrCellNotFound):
		return http.StatusNotFound, StandardErrorResponse{Error: StandardError{
			Code:    ErrCodeNotFound,
			Message: err.Error(),
		}}
	default:
		return http.StatusInternalServerError, StandardErrorResponse{Error: StandardError{
			Code:    ErrCodeInternal,
			Message: "internal server error",
		}}
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	respondJSON(w, status, body)
}

func respondInvalid(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, StandardErrorResponse{Error: StandardError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}})
}
