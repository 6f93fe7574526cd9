package observability

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultHistorySize is the number of calls kept per source.
	DefaultHistorySize = 100
	// DefaultSlowThreshold triggers a high-latency warning.
	DefaultSlowThreshold = 500 * time.Millisecond
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// Call is one observed outbound call.
type Call struct {
	Latency   time.Duration
	OK        bool
	Timestamp time.Time
}

// SourceReport summarises the recorded history of one source.
type SourceReport struct {
	Source       string    `json:"source"`
	Calls        int       `json:"calls"`
	Failures     int       `json:"failures"`
	AvgLatencyMs float64   `json:"avgLatencyMs"`
	MaxLatencyMs int64     `json:"maxLatencyMs"`
	LastCallAt   time.Time `json:"lastCallAt"`
}

// Diagnostics keeps a rolling latency history per outbound source (LLM, retrieval
// sources) for the diagnostics endpoint.
type Diagnostics struct {
	mu      sync.Mutex
	size    int
	slow    time.Duration
	history map[string][]Call
	logger  Logger
}

func NewDiagnostics(size int, slow time.Duration, logger Logger) *Diagnostics {
	if size < 1 {
		size = DefaultHistorySize
	}
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &Diagnostics{
		size:    size,
		slow:    slow,
		history: make(map[string][]Call),
		logger:  logger,
	}
}

// Record appends a call for source, dropping the oldest beyond the history size.
func (d *Diagnostics) Record(source string, latency time.Duration, ok bool) {
	if d == nil {
		return
	}
	d.mu.Lock()
	calls := append(d.history[source], Call{Latency: latency, OK: ok, Timestamp: time.Now().UTC()})
	if len(calls) > d.size {
		calls = calls[len(calls)-d.size:]
	}
	d.history[source] = calls
	d.mu.Unlock()

	if latency > d.slow && d.logger != nil {
		d.logger.Warn("high latency detected", map[string]interface{}{
			"source":    source,
			"latencyMs": latency.Milliseconds(),
			"ok":        ok,
		})
	}
}

// Report returns one summary per source sorted by name.
func (d *Diagnostics) Report() []SourceReport {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]SourceReport, 0, len(d.history))
	for source, calls := range d.history {
		r := SourceReport{Source: source, Calls: len(calls)}
		var total time.Duration
		for _, c := range calls {
			total += c.Latency
			if !c.OK {
				r.Failures++
			}
			if ms := c.Latency.Milliseconds(); ms > r.MaxLatencyMs {
				r.MaxLatencyMs = ms
			}
			if c.Timestamp.After(r.LastCallAt) {
				r.LastCallAt = c.Timestamp
			}
		}
		if len(calls) > 0 {
			r.AvgLatencyMs = float64(total.Milliseconds()) / float64(len(calls))
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
