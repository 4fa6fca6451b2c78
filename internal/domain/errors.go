package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// PriceFetchError represents a failed live price lookup. It never
// reaches gameplay: the price source converts it into fallback pricing
// and only logs it. Retriable failures are retried before giving up.
type PriceFetchError struct {
	Op        string // Operation that failed (e.g., "request", "decode", "status")
	Err       error  // Underlying error
	Retriable bool   // Whether the lookup is worth retrying
}

func (e *PriceFetchError) Error() string {
	return "price fetch " + e.Op + ": " + e.Err.Error()
}

func (e *PriceFetchError) IsRetriable() bool {
	return e.Retriable
}

func (e *PriceFetchError) Unwrap() error {
	return e.Err
}

// NewPriceFetchError creates a retriable price fetch error
func NewPriceFetchError(op string, err error) *PriceFetchError {
	return &PriceFetchError{Op: op, Err: err, Retriable: true}
}

// NewFatalPriceFetchError creates a non-retriable price fetch error
func NewFatalPriceFetchError(op string, err error) *PriceFetchError {
	return &PriceFetchError{Op: op, Err: err, Retriable: false}
}

var (
	// ErrInvalidWager is returned when a bet is non-positive or exceeds
	// the balance. Recoverable; the round state does not change.
	ErrInvalidWager = errors.New("invalid wager")

	// ErrInvalidSelection is returned when the picked id is not one of
	// the round's two assets. Recoverable; state unchanged.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrInvalidTransition is returned when an intent does not apply to
	// the current phase (e.g., selecting during the countdown).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrSessionClosed is returned for intents sent after shutdown.
	ErrSessionClosed = errors.New("session closed")
)
