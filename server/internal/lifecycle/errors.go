package lifecycle

import (
	"errors"

	"github.com/caldog20/tempnet/server/internal/registry"
)

var (
	ErrCapacityExceeded     = errors.New("too many active peers")
	ErrAddressPoolExhausted = errors.New("no available ip addresses")
	ErrKeyGenerationFailed  = errors.New("key generation failed")
	ErrActivationFailed     = errors.New("peer activation failed")
	// ErrDeactivationFailed leaves the peer registered; the next sweep retries it.
	ErrDeactivationFailed = errors.New("peer deactivation failed")
	ErrDuplicateIdentity  = registry.ErrDuplicateIdentity
)

// failureReason maps a create error to the metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, ErrAddressPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, ErrKeyGenerationFailed):
		return "keygen"
	case errors.Is(err, ErrActivationFailed):
		return "activation"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate"
	default:
		return "other"
	}
}
