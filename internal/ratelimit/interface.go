package ratelimit

import (
	"context"
	"time"
)

// Chat completions are limited to 10 requests per sliding 60-second window
// per user. These are hard product constants, not tunables.
const (
	Requests      = 10
	WindowSeconds = 60
)

// Window as a time.Duration
func Window() time.Duration {
	return WindowSeconds * time.Second
}

// Outcome of a single admission check
type Result struct {
	Allowed   bool
	Remaining int
	// Seconds until the caller should retry. On rejection this is when the
	// oldest in-window request expires; on admission it is a conservative
	// upper bound (the full window), not the next slot opening.
	ResetIn int
}

type Limiter interface {
	// Purges expired entries, counts the user's in-window requests and,
	// if under the limit, records this one. Backend failures surface as
	// errors and must be treated as request failures, never as an
	// implicit allow.
	CheckAndRecord(ctx context.Context, userID string) (Result, error)
}
