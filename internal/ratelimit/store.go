package ratelimit

import (
	"context"
	"time"
)

// Store tracks the last accepted submission per client identity and enforces
// a cooldown window between accepted submissions.
//
// CheckAndRecord must be atomic per key: when two submissions for the same
// key race, exactly one may be admitted. An admitted check starts the
// cooldown; a denied check is a read-only observation and does not reset it.
// When denied, retryAfter approximates the remaining wait time.
type Store interface {
	CheckAndRecord(ctx context.Context, key string, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// Close releases backing resources for stores that hold any
type Closer interface {
	Close() error
}
