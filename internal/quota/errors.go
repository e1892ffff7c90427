package quota

import (
	"errors"
	"fmt"
)

// ErrNegativeTokens is returned when a deduction is attempted with a
// negative token count. Usage only ever increases; there is no refund path.
var ErrNegativeTokens = errors.New("token deduction must not be negative")

// The user's monthly token budget is fully spent
type QuotaExceededError struct {
	Used      int
	Limit     int
	ResetDate string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly token quota exceeded: %d/%d, resets %s", e.Used, e.Limit, e.ResetDate)
}

// Pre-flight signal: the remaining budget is smaller than the estimated
// cost of the request. Advisory only - the true cost is known after the
// upstream call completes.
type InsufficientQuotaError struct {
	Remaining int
	Required  int
}

func (e *InsufficientQuotaError) Error() string {
	return fmt.Sprintf("insufficient quota: %d remaining, ~%d required", e.Remaining, e.Required)
}
