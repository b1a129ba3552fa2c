package global

import (
	"context"
)

type ContextKey uint

const (
	CancelKey ContextKey = iota
	VersionKey
)

func Version(ctx context.Context) string {
	if v, ok := ctx.Value(VersionKey).(string); ok {
		return v
	}
	return ""
}

// Cancel calls the CancelFunc stored under CancelKey, if any
func Cancel(ctx context.Context) {
	if cancel, ok := ctx.Value(CancelKey).(context.CancelFunc); ok {
		cancel()
	}
}
