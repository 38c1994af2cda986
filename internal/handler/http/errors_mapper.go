package http

import (
	"errors"
	"net/http"

	"github.com/ykarpov/billkeeper/internal/service"
	"github.com/ykarpov/billkeeper/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:        http.StatusBadRequest,
	service.ErrTokenIsExpired:             http.StatusUnauthorized,
	service.ErrValidationNoUserID:         http.StatusBadRequest,
	service.ErrValidationBatchTooLarge:    http.StatusRequestEntityTooLarge,
	service.ErrValidationBadEntity:        http.StatusBadRequest,
	service.ErrValidationUnknownKind:      http.StatusBadRequest,
	service.ErrValidationUnknownAction:    http.StatusBadRequest,
	service.ErrValidationNegativeAmount:   http.StatusBadRequest,
	service.ErrValidationSinceInTheFuture: http.StatusBadRequest,

	store.ErrNoUserWasFound: http.StatusNotFound,
	store.ErrEntityNotFound: http.StatusNotFound,
	store.ErrNotSpaceMember: http.StatusForbidden,

	// ErrStorageUnavailable marks transient database failures: 503 tells
	// the client's backoff loop that a retry is worthwhile.
	store.ErrStorageUnavailable: http.StatusServiceUnavailable,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	// ErrStorageUnavailable wraps the low-level sentinels, so it has to win
	// regardless of map iteration order.
	if errors.Is(err, store.ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
