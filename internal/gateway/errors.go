package gateway

import (
	"errors"
	"fmt"
	"time"
)

// #region errors

// TransportError reports a non-2xx backend reply. The raw body is kept so
// callers can log what the backend rejected.
type TransportError struct {
	Op     string
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Body)
}

// TimeoutError reports that no reply arrived within the configured deadline.
// Distinct from TransportError so callers can tell "backend rejected" from
// "backend unreachable or slow".
type TimeoutError struct {
	Op    string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response within %s", e.Op, e.Limit)
}

// IsTimeout reports whether err is (or wraps) a gateway timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// #endregion errors
