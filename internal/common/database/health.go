package database

import (
	"context"
	"time"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency with a shared timeout and returns the failures by name.
func CheckAll(ctx context.Context, timeout time.Duration, deps ...Pinger) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	failures := make(map[string]string)
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			failures[dep.Name()] = err.Error()
		}
	}
	return failures
}
