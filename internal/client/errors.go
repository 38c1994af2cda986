package client

import "errors"

// ErrEntityNotFoundLocally is returned by delete calls addressing an id
// that is not present in the local collection.
var ErrEntityNotFoundLocally = errors.New("entity not found in local collection")
