package domain

import "errors"

// Error classes of the aggregation pipeline. Callers wrap them with %w and test with errors.Is.
var (
	// ErrTransport is a connection, timeout or non-2xx failure of one page or detail request
	ErrTransport = errors.New("transport error")
	// ErrDecode means the response body is not valid structured data
	ErrDecode = errors.New("decode error")
	// ErrFieldExtraction means an expected field is absent or malformed in a valid response
	ErrFieldExtraction = errors.New("field extraction error")
	// ErrCacheUnavailable means the result cache backend could not be reached
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrPersistence is the only class surfaced to callers, and only to the refresh job
	ErrPersistence = errors.New("persistence error")
)
