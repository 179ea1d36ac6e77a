package swap

import (
	"errors"
	"fmt"
)

// ErrQuoteUnavailable indicates the quoting service returned a non-2xx
// response or a malformed payload. The client never retries; the caller
// decides whether to try again.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// ErrBalanceUnavailable indicates a transport failure while fetching a
// balance. Callers substitute zero and log instead of propagating.
var ErrBalanceUnavailable = errors.New("balance unavailable")

// SwapFailedError indicates the swap-execution service rejected or
// failed the swap.
type SwapFailedError struct {
	Reason string
	Err    error
}

func (e *SwapFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("swap failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("swap failed: %s", e.Reason)
}

func (e *SwapFailedError) Unwrap() error { return e.Err }
