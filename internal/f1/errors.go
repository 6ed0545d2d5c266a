package f1

import "errors"

var (
	// ErrFetchFailed is returned when an upstream answers with a non-success status.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidPayload is returned when an upstream body cannot be decoded
	// or does not satisfy the record schema.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidQuery is returned when caller supplied parameters are rejected.
	ErrInvalidQuery = errors.New("invalid query")
)
