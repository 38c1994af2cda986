package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrTokenIsExpired      = errors.New("token is expired")

	ErrValidationNoUserID         = errors.New("no user ID for sync call was given")
	ErrValidationBatchTooLarge    = errors.New("mutation batch exceeds the allowed size")
	ErrValidationBadEntity        = errors.New("mutation carries an invalid entity")
	ErrValidationUnknownKind      = errors.New("mutation carries an unknown entity kind")
	ErrValidationUnknownAction    = errors.New("mutation carries an unknown action")
	ErrValidationNegativeAmount   = errors.New("entity amount must not be negative")
	ErrValidationSinceInTheFuture = errors.New("checkpoint lies in the future")
)
