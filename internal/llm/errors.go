package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the backend answers without text.
	ErrEmptyResponse = errors.New("empty response from backend")

	// ErrBackend wraps transport and non-2xx failures.
	ErrBackend = errors.New("backend request failed")

	// ErrFatalAPI marks errors that will not go away on their own, such as
	// bad credentials or exhausted quota.
	ErrFatalAPI = errors.New("fatal API error")
)

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like a credential or quota
// problem.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal errors with ErrFatalAPI and returns others as-is.
func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}

// IsFatal reports whether err was tagged as a fatal API error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalAPI)
}
