// internal/workers/ai-conversation/response-pipeline/handler.go
package responsepipeline

import (
	"context"
	"strings"
	"time"

	"asha-assistant/internal/common/cache"
	"asha-assistant/internal/common/events"
	"asha-assistant/internal/common/metrics"
	"asha-assistant/internal/common/retry"
	"asha-assistant/internal/models"
	completechat "asha-assistant/internal/workers/ai-conversation/complete-chat"
	detectlanguage "asha-assistant/internal/workers/ai-conversation/detect-language"
	parsereply "asha-assistant/internal/workers/ai-conversation/parse-reply"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const ComponentName = "response-pipeline"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Pipeline turns one user message into a display reply. It is safe for concurrent use.
type Pipeline struct {
	config   *Config
	deps     Dependencies
	recent   *cache.Bounded[string, time.Time]
	failures *cache.Bounded[string, int]
	logger   Logger
	now      func() time.Time
}

type Option func(*Pipeline)

// WithRecentQueries injects the recent-query set.
func WithRecentQueries(c *cache.Bounded[string, time.Time]) Option {
	return func(p *Pipeline) { p.recent = c }
}

// WithFailureCounters injects the per-session consecutive failure counters.
func WithFailureCounters(c *cache.Bounded[string, int]) Option {
	return func(p *Pipeline) { p.failures = c }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(config *Config, deps Dependencies, log Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		config: config,
		deps:   deps,
		logger: log.With(map[string]interface{}{
			"component": ComponentName,
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recent == nil {
		p.recent = cache.New[string, time.Time](config.RepeatCapacity, config.RepeatWindow)
	}
	if p.failures == nil {
		p.failures = cache.New[string, int](config.SessionCapacity, 0)
	}
	if p.deps.Events == nil {
		p.deps.Events = events.NopPublisher{}
	}
	return p
}

// RepeatKey identifies a question within a session.
func RepeatKey(sessionID, text string) string {
	return sessionID + "\x00" + strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Respond runs the pipeline. It never fails: provider and retrieval problems produce a
// degraded reply with the matching Outcome.
func (p *Pipeline) Respond(ctx context.Context, req models.PipelineRequest) *models.PipelineResponse {
	start := p.now()
	metrics.PipelineActive.Inc()
	defer metrics.PipelineActive.Dec()

	ctx, span := p.deps.Telemetry.StartSpan(ctx, "pipeline.respond",
		attribute.String("session.id", req.SessionID))
	defer span.End()

	log := p.logger.With(map[string]interface{}{"sessionId": req.SessionID})
	resp := &models.PipelineResponse{Sentiment: models.DefaultConfidence()}
	p.stage(ctx, span, resp, models.StageReceived)

	if len(req.SessionHistory) == 0 {
		p.publish(ctx, log, events.New(events.SessionStart, req.SessionID, nil))
	}

	resp.Language = detectlanguage.Resolve(req.UserText, req.LanguageOverride)
	p.stage(ctx, span, resp, models.StageLanguageDetected)

	decision := p.deps.Router.Decide(req.UserText)
	resp.Topic = decision.Topic
	p.stage(ctx, span, resp, models.StageIntentRouted)
	p.publish(ctx, log, events.New(events.IntentDetected, req.SessionID, map[string]interface{}{
		"topic":    string(decision.Topic),
		"keyword":  decision.MatchedKeyword,
		"language": string(resp.Language),
	}))

	repeatKey := RepeatKey(req.SessionID, req.UserText)
	if _, seen := p.recent.Get(repeatKey); seen {
		resp.Text = RepeatText
		resp.Outcome = models.OutcomeRepeat
		p.stage(ctx, span, resp, models.StageReturnedRepeat)
		p.finish(ctx, span, log, resp, start)
		return resp
	}

	if decision.NeedsRetrieval && p.deps.Retriever != nil {
		rctx, rspan := p.deps.Telemetry.StartSpan(ctx, "pipeline.retrieve")
		resp.Retrieval = p.deps.Retriever.Fetch(rctx, req.UserText)
		if resp.Retrieval != nil && resp.Retrieval.Metrics != nil {
			rspan.SetAttributes(
				attribute.Bool("retrieval.from_cache", resp.Retrieval.Metrics.FromCache),
				attribute.Bool("retrieval.fallback", resp.Retrieval.Metrics.Fallback),
			)
		}
		rspan.End()
		p.stage(ctx, span, resp, models.StageRetrievalFetched)
	} else {
		p.stage(ctx, span, resp, models.StageRetrievalSkipped)
	}

	prompt := p.deps.Prompts.Build(resp.Topic, resp.Language, resp.Retrieval, req.SessionHistory, req.UserText)
	p.stage(ctx, span, resp, models.StagePromptBuilt)

	p.stage(ctx, span, resp, models.StageCompletionRequested)
	raw, err := p.complete(ctx, log, prompt.Messages)
	if err != nil {
		p.handleCompletionFailure(ctx, span, log, req, resp, err)
		p.analyzeSentiment(ctx, span, resp, req.UserText)
		p.stage(ctx, span, resp, models.StageReturnedErrorFallback)
		p.finish(ctx, span, log, resp, start)
		return resp
	}

	p.failures.Delete(req.SessionID)
	p.recent.Set(repeatKey, p.now())

	result := parsereply.Parse(raw)
	resp.Text = parsereply.Render(result)
	if result.OK() {
		resp.Outcome = models.OutcomeOK
		p.stage(ctx, span, resp, models.StageParsedOK)
	} else {
		resp.Outcome = models.OutcomeFallback
		log.Warn("model reply did not match the reply schema", map[string]interface{}{
			"reason": result.Reason,
		})
		p.stage(ctx, span, resp, models.StageParsedFallback)
	}

	p.analyzeSentiment(ctx, span, resp, req.UserText)
	p.stage(ctx, span, resp, models.StageReturned)
	p.finish(ctx, span, log, resp, start)
	return resp
}

func (p *Pipeline) complete(ctx context.Context, log Logger, messages []models.ChatMessage) (string, error) {
	ctx, span := p.deps.Telemetry.StartSpan(ctx, "pipeline.complete")
	defer span.End()

	policy := p.config.Retry
	policy.Retryable = retry.IsRetryable
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("retrying completion", map[string]interface{}{
			"attempt": attempt,
			"delayMs": delay.Milliseconds(),
			"error":   err.Error(),
		})
	}

	raw, err := retry.DoValue(ctx, policy, func(ctx context.Context) (string, error) {
		return p.deps.Completer.Complete(ctx, completechat.CompletionRequest{
			Messages:    messages,
			MaxTokens:   p.config.MaxTokens,
			Temperature: p.config.Temperature,
			JSON:        true,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(completechat.KindOf(err)))
	}
	return raw, err
}

func (p *Pipeline) handleCompletionFailure(ctx context.Context, span trace.Span, log Logger, req models.PipelineRequest, resp *models.PipelineResponse, err error) {
	kind := completechat.KindOf(err)
	count := p.failures.Update(req.SessionID, func(n int, _ bool) int { return n + 1 })

	resp.Text = p.failureText(kind, count)
	resp.Outcome = models.OutcomeError
	resp.ErrorKind = string(kind)
	span.SetAttributes(attribute.String("error.kind", string(kind)))

	log.Error("completion failed", map[string]interface{}{
		"kind":                string(kind),
		"consecutiveFailures": count,
		"error":               err.Error(),
	})
	p.publish(ctx, log, events.New(events.APIError, req.SessionID, map[string]interface{}{
		"kind":                string(kind),
		"consecutiveFailures": count,
		"topic":               string(resp.Topic),
	}))
}

// failureText picks the user-visible text for the count-th consecutive failure.
// Credential problems are reported as such regardless of the count.
func (p *Pipeline) failureText(kind completechat.Kind, count int) string {
	switch {
	case kind == completechat.KindAuth:
		return AuthText
	case p.config.FailureThreshold > 0 && count >= p.config.FailureThreshold:
		return SupportText
	default:
		return ApologyText
	}
}

func (p *Pipeline) analyzeSentiment(ctx context.Context, span trace.Span, resp *models.PipelineResponse, text string) {
	p.stage(ctx, span, resp, models.StageSentimentRequested)
	if p.deps.Sentiment != nil {
		sctx, sspan := p.deps.Telemetry.StartSpan(ctx, "pipeline.sentiment")
		resp.Sentiment = p.deps.Sentiment.Analyze(sctx, text)
		sspan.End()
	}
	p.stage(ctx, span, resp, models.StageSentimentResolved)
}

func (p *Pipeline) stage(ctx context.Context, span trace.Span, resp *models.PipelineResponse, s models.Stage) {
	resp.Stages = append(resp.Stages, s)
	span.AddEvent(string(s))
	p.deps.Telemetry.RecordStage(ctx, string(s))
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, log Logger, resp *models.PipelineResponse, start time.Time) {
	elapsed := p.now().Sub(start)
	outcome := string(resp.Outcome)

	metrics.PipelineRequests.WithLabelValues(string(resp.Topic), outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	p.deps.Telemetry.RecordRequestProcessed(ctx, outcome, string(resp.Topic))
	p.deps.Telemetry.RecordRequestDuration(ctx, elapsed, outcome)

	span.SetAttributes(
		attribute.String("pipeline.outcome", outcome),
		attribute.String("pipeline.topic", string(resp.Topic)),
		attribute.String("pipeline.language", string(resp.Language)),
	)

	log.Info("response generated", map[string]interface{}{
		"outcome":   outcome,
		"topic":     string(resp.Topic),
		"language":  string(resp.Language),
		"latencyMs": elapsed.Milliseconds(),
		"stages":    len(resp.Stages),
	})
}

func (p *Pipeline) publish(ctx context.Context, log Logger, ev events.Event) {
	if err := p.deps.Events.Publish(ctx, ev); err != nil {
		log.Warn("analytics event dropped", map[string]interface{}{
			"event": ev.Name,
			"error": err.Error(),
		})
	}
}
