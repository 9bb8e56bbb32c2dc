package plan

import "errors"

// errNotFound and errCorrupt are wrapped into Store's returned errors
// so callers (the Tool wrapper) can classify them with errors.Is
// instead of string matching.
var (
	errNotFound = errors.New("plan not found")
	errCorrupt  = errors.New("plan document is corrupt")
)
