package reports

import "errors"

// ErrNotFound means no record matched the lookup.
var ErrNotFound = errors.New("record not found")
