package repository

import "errors"

// ErrNotFound indicates the requested row does not exist. Expired sessions are
// reported with the same error as absent ones so callers cannot distinguish
// the two cases.
var ErrNotFound = errors.New("not found")
