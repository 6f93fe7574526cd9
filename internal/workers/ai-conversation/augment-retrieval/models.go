package augmentretrieval

import (
	"context"
	"time"

	"asha-assistant/internal/models"
)

// Source is one live provider of statistics and resources.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string) (*SourceResult, error)
}

type SourceResult struct {
	Statistics []models.Statistic `json:"statistics"`
	Resources  []models.Resource  `json:"resources"`
}

// Dataset is the static fallback used when live retrieval fails.
type Dataset struct {
	Statistics []models.Statistic
	Resources  []models.Resource
}

// DiagnosticsRecorder receives per-source call latencies.
type DiagnosticsRecorder interface {
	Record(source string, latency time.Duration, ok bool)
}
