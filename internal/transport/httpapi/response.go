package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode identifies an error category in API responses.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeNotFound             ErrorCode = "not_found"
	CodeAlreadyExists        ErrorCode = "already_exists"
	CodeDuplicateMember      ErrorCode = "duplicate_member"
	CodePrivateGroup         ErrorCode = "private_group"
	CodeCapacityExceeded     ErrorCode = "capacity_exceeded"
	CodeInvalidTransition    ErrorCode = "invalid_transition"
	CodeModelUnavailable     ErrorCode = "model_unavailable"
	CodeEmbeddingProviderErr ErrorCode = "embedding_provider_error"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// listResponse wraps ranked collections returned by list endpoints.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
