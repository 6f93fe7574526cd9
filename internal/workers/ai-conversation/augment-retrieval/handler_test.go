// internal/workers/ai-conversation/augment-retrieval/handler_test.go
package augmentretrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asha-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t        *testing.T
	fields   map[string]interface{}
	mu       *sync.Mutex
	warnings *[]string
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{
		t:        t,
		fields:   make(map[string]interface{}),
		mu:       &sync.Mutex{},
		warnings: &[]string{},
	}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	*l.warnings = append(*l.warnings, msg)
	l.mu.Unlock()
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	newLogger := &TestLogger{
		t:        l.t,
		fields:   make(map[string]interface{}),
		mu:       l.mu,
		warnings: l.warnings,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *TestLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), *l.warnings...)
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	allFields := make(map[string]interface{})
	for k, v := range l.fields {
		allFields[k] = v
	}
	for k, v := range fields {
		allFields[k] = v
	}
	return allFields
}

type BenchmarkLogger struct{}

func (b *BenchmarkLogger) Info(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Warn(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Error(msg string, fields map[string]interface{}) {}
func (b *BenchmarkLogger) With(fields map[string]interface{}) Logger       { return b }

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		SourceTimeout: time.Second,
		GlobalTimeout: 2 * time.Second,
		MaxItems:      5,
	}
}

type fakeSource struct {
	name   string
	result *SourceResult
	err    error
	delay  time.Duration
	calls  int32
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(ctx context.Context, query string) (*SourceResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func (s *fakeSource) Calls() int { return int(atomic.LoadInt32(&s.calls)) }

type recordingDiagnostics struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (d *recordingDiagnostics) Record(source string, _ time.Duration, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string][]bool)
	}
	d.calls[source] = append(d.calls[source], ok)
}

func liveStats() *SourceResult {
	return &SourceResult{
		Statistics: []models.Statistic{
			{Value: "Current unemployment rate: 3.9% (March 2025)", Source: BLSSourceName},
		},
		Resources: []models.Resource{
			{Text: "Women in Tech Returnship", URL: "https://www.jobsforher.com/returnship"},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Fetch_CacheRoundTrip(t *testing.T) {
	src := &fakeSource{name: "live", result: liveStats()}
	cache := NewMemoryCache(16, time.Hour)
	h := NewHandler(createTestConfig(), []Source{src}, cache, NewTestLogger(t))

	first := h.Fetch(context.Background(), "  Mentorship Statistics ")
	second := h.Fetch(context.Background(), "mentorship statistics")

	assert.Equal(t, 1, src.Calls(), "second fetch must be served from cache")
	assert.Equal(t, first.Statistics, second.Statistics)
	assert.Equal(t, first.Resources, second.Resources)
	assert.True(t, first.FetchedAt.Equal(second.FetchedAt))
	assert.False(t, first.Metrics.FromCache)
	assert.True(t, second.Metrics.FromCache)
}

func TestHandler_Fetch_CacheExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src := &fakeSource{name: "live", result: liveStats()}
	cache := NewMemoryCache(16, time.Hour, withCacheClock(&now))
	h := NewHandler(createTestConfig(), []Source{src}, cache, NewTestLogger(t), WithClock(clock))

	h.Fetch(context.Background(), "jobs")
	now = now.Add(61 * time.Minute)
	h.Fetch(context.Background(), "jobs")

	assert.Equal(t, 2, src.Calls())
}

func TestHandler_Fetch_AllSourcesFail(t *testing.T) {
	failing := []Source{
		&fakeSource{name: "a", err: errors.New("connection refused")},
		&fakeSource{name: "b", err: errors.New("status 503")},
	}
	cache := NewMemoryCache(16, time.Hour)
	log := NewTestLogger(t)
	h := NewHandler(createTestConfig(), failing, cache, log)

	result := h.Fetch(context.Background(), "career growth")

	require.NotNil(t, result)
	assert.Equal(t, DefaultDataset.Statistics[:2], result.Statistics)
	assert.Equal(t, DefaultDataset.Resources[:2], result.Resources)
	assert.True(t, result.Metrics.Fallback)
	assert.Equal(t, 2, result.Metrics.SourcesFailed)
	assert.Equal(t, 0, cache.Len(), "fallback results are not cached")
	assert.Contains(t, log.Warnings(), "all retrieval sources failed, using static dataset")
}

func TestHandler_Fetch_NoSourcesConfigured(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, NewTestLogger(t))

	result := h.Fetch(context.Background(), "anything")
	assert.False(t, result.IsEmpty())
	assert.True(t, result.Metrics.Fallback)
	assert.Equal(t, 0, result.Metrics.SourcesQueried)
}

func TestHandler_Fetch_PartialFailureMergesLiveFirst(t *testing.T) {
	diag := &recordingDiagnostics{}
	sources := []Source{
		&fakeSource{name: "down", err: errors.New("boom")},
		&fakeSource{name: "bls", result: liveStats()},
	}
	h := NewHandler(createTestConfig(), sources, NewMemoryCache(16, time.Hour), NewTestLogger(t), WithDiagnostics(diag))

	result := h.Fetch(context.Background(), "mentorship program")

	require.NotEmpty(t, result.Statistics)
	assert.Equal(t, "Current unemployment rate: 3.9% (March 2025)", result.Statistics[0].Value)
	assert.Equal(t, DefaultDataset.Statistics[0], result.Statistics[1])
	assert.Len(t, result.Statistics, 2)

	require.Len(t, result.Resources, 2)
	assert.Equal(t, "https://www.jobsforher.com/returnship", result.Resources[0].URL)
	assert.Equal(t, "https://www.jobsforher.com/mentorship", result.Resources[1].URL)

	assert.Equal(t, 1, result.Metrics.SourcesFailed)
	assert.False(t, result.Metrics.Fallback)
	assert.Equal(t, []bool{false}, diag.calls["down"])
	assert.Equal(t, []bool{true}, diag.calls["bls"])
}

func TestHandler_Fetch_DedupesAndTruncates(t *testing.T) {
	var stats []models.Statistic
	var resources []models.Resource
	for i := 0; i < 8; i++ {
		stats = append(stats, models.Statistic{Value: fmt.Sprintf("stat %d", i%4), Source: "src"})
		resources = append(resources, models.Resource{Text: fmt.Sprintf("res %d", i), URL: fmt.Sprintf("https://example.org/%d", i%6)})
	}
	src := &fakeSource{name: "noisy", result: &SourceResult{Statistics: stats, Resources: resources}}
	h := NewHandler(createTestConfig(), []Source{src}, nil, NewTestLogger(t))

	result := h.Fetch(context.Background(), "zzz")

	assert.Len(t, result.Statistics, 5)
	assert.Len(t, result.Resources, 5)

	seen := map[string]bool{}
	for _, s := range result.Statistics {
		key := s.Value + "|" + s.Source
		assert.False(t, seen[key], "duplicate statistic %s", key)
		seen[key] = true
	}
	urls := map[string]bool{}
	for _, r := range result.Resources {
		assert.False(t, urls[r.URL], "duplicate url %s", r.URL)
		urls[r.URL] = true
	}
}

func TestMerge_RespectsLimitAcrossResults(t *testing.T) {
	live := SourceResult{
		Statistics: []models.Statistic{{Value: "a"}, {Value: "b"}},
		Resources:  []models.Resource{{URL: "https://example.org/1"}},
	}
	static := SourceResult{
		Statistics: []models.Statistic{{Value: "a"}, {Value: "c"}, {Value: "d"}},
		Resources:  []models.Resource{{URL: "https://example.org/1"}, {URL: "https://example.org/2"}, {URL: ""}},
	}

	out := merge(3, live, static)

	assert.Equal(t, []models.Statistic{{Value: "a"}, {Value: "b"}, {Value: "c"}}, out.Statistics)
	assert.Equal(t, []models.Resource{{URL: "https://example.org/1"}, {URL: "https://example.org/2"}}, out.Resources)
	assert.Empty(t, merge(0, live).Statistics)
}

func TestHandler_Fetch_SourceTimeout(t *testing.T) {
	cfg := createTestConfig()
	cfg.SourceTimeout = 50 * time.Millisecond

	slow := &fakeSource{name: "slow", result: liveStats(), delay: time.Second}
	fast := &fakeSource{name: "fast", result: &SourceResult{Statistics: []models.Statistic{{Value: "fast stat", Source: "fast"}}}}
	h := NewHandler(cfg, []Source{slow, fast}, nil, NewTestLogger(t))

	start := time.Now()
	result := h.Fetch(context.Background(), "jobs")

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "fast stat", result.Statistics[0].Value)
	assert.Equal(t, 1, result.Metrics.SourcesFailed)
}

func TestHandler_Fetch_GlobalDeadlineUsesCollectedResults(t *testing.T) {
	cfg := createTestConfig()
	cfg.SourceTimeout = 5 * time.Second
	cfg.GlobalTimeout = 80 * time.Millisecond

	slow := &fakeSource{name: "slow", result: liveStats(), delay: 3 * time.Second}
	fast := &fakeSource{name: "fast", result: &SourceResult{Statistics: []models.Statistic{{Value: "fast stat", Source: "fast"}}}}
	h := NewHandler(cfg, []Source{slow, fast}, nil, NewTestLogger(t))

	start := time.Now()
	result := h.Fetch(context.Background(), "jobs")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "fast stat", result.Statistics[0].Value)
	assert.False(t, result.Metrics.Fallback)
}

func TestHandler_Fetch_ConcurrentCallers(t *testing.T) {
	src := &fakeSource{name: "live", result: liveStats()}
	h := NewHandler(createTestConfig(), []Source{src}, NewMemoryCache(4, time.Hour), NewTestLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := h.Fetch(context.Background(), fmt.Sprintf("query %d", i%8))
			assert.NotEmpty(t, r.Statistics)
		}(i)
	}
	wg.Wait()
}

func TestDataset_Filter(t *testing.T) {
	r := DefaultDataset.Filter("mentorship program")
	assert.Equal(t, []models.Statistic{DefaultDataset.Statistics[0]}, r.Statistics)
	assert.Equal(t, []models.Resource{DefaultDataset.Resources[0]}, r.Resources)

	r = DefaultDataset.Filter("xy zz")
	assert.Equal(t, DefaultDataset.Statistics[:2], r.Statistics)
	assert.Equal(t, DefaultDataset.Resources[:2], r.Resources)

	r = DefaultDataset.Filter("workshops for women in tech")
	assert.Contains(t, r.Resources, DefaultDataset.Resources[2])
	assert.Contains(t, r.Statistics, DefaultDataset.Statistics[2])
}

func BenchmarkHandler_FetchCached(b *testing.B) {
	src := &fakeSource{name: "live", result: liveStats()}
	h := NewHandler(createTestConfig(), []Source{src}, NewMemoryCache(16, time.Hour), &BenchmarkLogger{})
	h.Fetch(context.Background(), "jobs")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Fetch(context.Background(), "jobs")
	}
}
