package ircode

import "errors"

// Domain errors for the ircode package. Checked with errors.Is().
var (
	// ErrCommandNotFound is returned when a (category, name) pair has no entry.
	ErrCommandNotFound = errors.New("ircode: command not found")

	// ErrInvalidCategory is returned for categories outside the closed set.
	ErrInvalidCategory = errors.New("ircode: invalid category")

	// ErrInvalidName is returned when a command name is empty or too long.
	ErrInvalidName = errors.New("ircode: invalid command name")

	// ErrInvalidPayload is returned when a code payload is empty or not
	// valid Base64.
	ErrInvalidPayload = errors.New("ircode: invalid payload")

	// ErrEmptyLibrary is returned when exporting a device with no commands.
	ErrEmptyLibrary = errors.New("ircode: library is empty")

	// ErrMalformedDocument is returned when an import document is missing
	// required fields or contains invalidly encoded codes.
	ErrMalformedDocument = errors.New("ircode: malformed document")
)
