// internal/models/retrieval.go
package models

import "time"

type Statistic struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

type Resource struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type RetrievalMetrics struct {
	SourcesQueried int   `json:"sourcesQueried"`
	SourcesFailed  int   `json:"sourcesFailed"`
	ElapsedMs      int64 `json:"elapsedMs"`
	FromCache      bool  `json:"fromCache"`
	Fallback       bool  `json:"fallback"`
}

// RetrievalResult holds at most a handful of deduplicated statistics and resources.
type RetrievalResult struct {
	Statistics []Statistic       `json:"statistics"`
	Resources  []Resource        `json:"resources"`
	FetchedAt  time.Time         `json:"fetchedAt"`
	Metrics    *RetrievalMetrics `json:"metrics,omitempty"`
}

func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || (len(r.Statistics) == 0 && len(r.Resources) == 0)
}
