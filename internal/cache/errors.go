package cache

import "errors"

// ErrNotFound is returned when a record with the given id is not cached.
var ErrNotFound = errors.New("record not found")
