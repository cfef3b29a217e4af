package coordinator

import "errors"

// Domain errors for the coordinator package. Checked with errors.Is().
var (
	// ErrConfirmationRequired is returned when an irreversible operation
	// is requested without the explicit confirmation flag.
	ErrConfirmationRequired = errors.New("coordinator: confirmation required")
)
