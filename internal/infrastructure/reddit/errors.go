package reddit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// categorizeStatus maps a non-2xx reddit response to a domain error.
func categorizeStatus(status int, operation string) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", operation, domainerrors.ErrCredentialRejected)

	case status == http.StatusTooManyRequests:
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: rate limited", operation),
			nil,
		)

	case status >= 500:
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: reddit server error %d", operation, status),
			nil,
		)

	default:
		return domainerrors.NewPermanentError(
			fmt.Sprintf("%s: unexpected status %d", operation, status),
			nil,
		)
	}
}

// categorizeTransportError wraps errors from the HTTP round trip.
func categorizeTransportError(err error, operation string) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
