package notify

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("notify: invalid config")

	// ErrRequestFailed wraps transport failures.
	ErrRequestFailed = errors.New("notify: http request failed")

	// ErrAPIError is returned for a non-2xx webhook response.
	ErrAPIError = errors.New("notify: webhook returned error")
)
