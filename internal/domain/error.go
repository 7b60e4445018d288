package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrQueueFull          = errors.New("task queue full")
)

// IsRetriable reports whether err is a transient external failure worth
// another delivery attempt (as opposed to a terminal outcome).
func IsRetriable(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, ErrQueueFull)
}
