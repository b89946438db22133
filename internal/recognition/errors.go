package recognition

import (
	"errors"
	"fmt"
)

// ErrNoProviderAvailable is returned when no provider in the fallback
// chain was configured, so no recognition attempt could be made at all.
var ErrNoProviderAvailable = errors.New("recognition: no AI provider available")

// ThrottledError rejects a request that exceeded the per-minute rate
// window. Recoverable by waiting RetryAfter seconds.
type ThrottledError struct {
	RetryAfter int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("recognition: rate limit exceeded, retry in %ds", e.RetryAfter)
}

// BudgetExceededError rejects a request whose identifier reached a spend
// ceiling. Recoverable at the next period boundary.
type BudgetExceededError struct {
	Reason string
}

func (e *BudgetExceededError) Error() string {
	return "recognition: " + e.Reason
}
