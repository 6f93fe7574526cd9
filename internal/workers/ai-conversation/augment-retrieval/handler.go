// Package augmentretrieval fetches statistics and resources that ground a reply,
// querying live sources in parallel behind a cache with a static fallback.
package augmentretrieval

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "asha-assistant/internal/common/errors"
	"asha-assistant/internal/common/metrics"
	"asha-assistant/internal/models"
)

const (
	ComponentName = "augment-retrieval"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config      *Config
	sources     []Source
	cache       Cache
	dataset     Dataset
	diagnostics DiagnosticsRecorder
	logger      Logger
	now         func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithDataset replaces the static fallback dataset.
func WithDataset(d Dataset) Option {
	return func(h *Handler) { h.dataset = d }
}

func WithDiagnostics(d DiagnosticsRecorder) Option {
	return func(h *Handler) { h.diagnostics = d }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(config *Config, sources []Source, cache Cache, log Logger, opts ...Option) *Handler {
	h := &Handler{
		config:  config,
		sources: sources,
		cache:   cache,
		dataset: DefaultDataset,
		logger: log.With(map[string]interface{}{
			"component": ComponentName,
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch never fails: when every live source fails it returns the head of the static
// dataset with Metrics.Fallback set.
func (h *Handler) Fetch(ctx context.Context, query string) *models.RetrievalResult {
	start := h.now()
	key := NormalizeQuery(query)

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, key); ok {
			metrics.RetrievalCache.WithLabelValues("hit").Inc()
			if cached.Metrics == nil {
				cached.Metrics = &models.RetrievalMetrics{}
			}
			cached.Metrics.FromCache = true
			h.logger.Info("retrieval served from cache", map[string]interface{}{
				"query": key,
			})
			return cached
		}
		metrics.RetrievalCache.WithLabelValues("miss").Inc()
	}

	live, failed := h.queryAll(ctx, key)

	if len(live) == 0 {
		result := h.fallbackResult(start, len(h.sources), failed)
		h.logger.Warn("all retrieval sources failed, using static dataset", map[string]interface{}{
			"query":          key,
			"sourcesQueried": len(h.sources),
		})
		return result
	}

	merged := merge(h.config.MaxItems, append(live, h.dataset.Filter(key))...)
	result := &models.RetrievalResult{
		Statistics: merged.Statistics,
		Resources:  merged.Resources,
		FetchedAt:  h.now().UTC(),
		Metrics: &models.RetrievalMetrics{
			SourcesQueried: len(h.sources),
			SourcesFailed:  failed,
			ElapsedMs:      h.now().Sub(start).Milliseconds(),
		},
	}

	if h.cache != nil {
		h.cache.Set(ctx, key, result)
	}

	h.logger.Info("retrieval completed", map[string]interface{}{
		"query":          key,
		"statistics":     len(result.Statistics),
		"resources":      len(result.Resources),
		"sourcesFailed":  failed,
		"sourcesQueried": len(h.sources),
	})
	return result
}

func (h *Handler) fallbackResult(start time.Time, queried, failed int) *models.RetrievalResult {
	metrics.RetrievalFallbacks.Inc()
	head := h.dataset.Head()
	return &models.RetrievalResult{
		Statistics: head.Statistics,
		Resources:  head.Resources,
		FetchedAt:  h.now().UTC(),
		Metrics: &models.RetrievalMetrics{
			SourcesQueried: queried,
			SourcesFailed:  failed,
			ElapsedMs:      h.now().Sub(start).Milliseconds(),
			Fallback:       true,
		},
	}
}

// queryAll fans out to every source and returns the successful results in source
// order. Results still outstanding at the global deadline count as failed.
func (h *Handler) queryAll(ctx context.Context, query string) ([]SourceResult, int) {
	if len(h.sources) == 0 {
		return nil, 0
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.GlobalTimeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]*SourceResult, len(h.sources))
		closed  bool
	)

	for i, src := range h.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			res, err := h.querySource(ctx, src, query)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if !closed {
				results[i] = res
			}
		}(i, src)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("retrieval global deadline reached", map[string]interface{}{
			"timeoutMs": h.config.GlobalTimeout.Milliseconds(),
		})
	}

	mu.Lock()
	closed = true
	snapshot := make([]*SourceResult, len(results))
	copy(snapshot, results)
	mu.Unlock()

	var live []SourceResult
	for _, r := range snapshot {
		if r != nil {
			live = append(live, *r)
		}
	}
	return live, len(h.sources) - len(live)
}

func (h *Handler) querySource(ctx context.Context, src Source, query string) (*SourceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.SourceTimeout)
	defer cancel()

	start := time.Now()
	res, err := src.Fetch(ctx, query)
	latency := time.Since(start)

	if err == nil && res == nil {
		err = errors.New("source returned no result")
	}
	if h.diagnostics != nil {
		h.diagnostics.Record(src.Name(), latency, err == nil)
	}

	if err != nil {
		var stdErr *apperrors.StandardError
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			result = "timeout"
			stdErr = apperrors.NewRetrievalTimeoutError(src.Name())
		} else {
			stdErr = apperrors.NewRetrievalSourceError(src.Name(), err)
		}
		metrics.RetrievalSourceCalls.WithLabelValues(src.Name(), result).Inc()
		h.logger.Warn("retrieval source failed", map[string]interface{}{
			"source":    src.Name(),
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
			"latencyMs": latency.Milliseconds(),
		})
		return nil, stdErr
	}

	metrics.RetrievalSourceCalls.WithLabelValues(src.Name(), "ok").Inc()
	return res, nil
}
