// internal/workers/ai-conversation/response-pipeline/handler_test.go
package responsepipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asha-assistant/internal/common/cache"
	"asha-assistant/internal/common/events"
	"asha-assistant/internal/common/observability"
	"asha-assistant/internal/common/retry"
	"asha-assistant/internal/models"
	buildprompt "asha-assistant/internal/workers/ai-conversation/build-prompt"
	completechat "asha-assistant/internal/workers/ai-conversation/complete-chat"
	routeintent "asha-assistant/internal/workers/ai-conversation/route-intent"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Fakes
// ==========================

type fakeCompleter struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int32
	requests  []completechat.CompletionRequest
}

type fakeResponse struct {
	raw string
	err error
}

func (f *fakeCompleter) Complete(_ context.Context, req completechat.CompletionRequest) (string, error) {
	n := int(atomic.AddInt32(&f.calls, 1))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return `{"acknowledgment":"Happy to help!"}`, nil
	}
	if n > len(f.responses) {
		n = len(f.responses)
	}
	r := f.responses[n-1]
	return r.raw, r.err
}

func (f *fakeCompleter) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeRetriever struct {
	result *models.RetrievalResult
	calls  int32
}

func (f *fakeRetriever) Fetch(context.Context, string) *models.RetrievalResult {
	atomic.AddInt32(&f.calls, 1)
	return f.result
}

type fakeSentiment struct {
	result models.ConfidenceAnalysis
	calls  int32
}

func (f *fakeSentiment) Analyze(context.Context, string) models.ConfidenceAnalysis {
	atomic.AddInt32(&f.calls, 1)
	return f.result
}

func anxious() models.ConfidenceAnalysis {
	return models.ConfidenceAnalysis{
		ConfidenceLevel: models.ConfidenceLow,
		EmotionTone:     models.ToneAnxious,
		SupportLevel:    models.SupportHigh,
	}
}

func careerRetrieval() *models.RetrievalResult {
	return &models.RetrievalResult{
		Statistics: []models.Statistic{{Value: "Current unemployment rate: 3.9% (March 2025)", Source: "U.S. Bureau of Labor Statistics"}},
		Resources:  []models.Resource{{Text: "Women in Tech Returnship", URL: "https://www.jobsforher.com/returnship"}},
		Metrics:    &models.RetrievalMetrics{SourcesQueried: 1},
	}
}

const careerReply = `{
  "acknowledgment": "Restarting your career after a break is absolutely possible! 🌟",
  "guidance": ["Update your resume with recent learning", "Apply to returnship programs"],
  "contextualData": {"statistics": [{"value": "Current unemployment rate: 3.9% (March 2025)", "source": "U.S. Bureau of Labor Statistics"}]},
  "resources": [{"text": "Women in Tech Returnship", "url": "https://www.jobsforher.com/returnship"}],
  "followUp": "Would you like help preparing for interviews?"
}`

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Retry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return cfg
}

type harness struct {
	pipeline  *Pipeline
	completer *fakeCompleter
	retriever *fakeRetriever
	sentiment *fakeSentiment
	events    *events.Recorder
	spans     *tracetest.SpanRecorder
}

func newHarness(t *testing.T, cfg *Config, completer Completer, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		retriever: &fakeRetriever{result: careerRetrieval()},
		sentiment: &fakeSentiment{result: anxious()},
		events:    &events.Recorder{},
		spans:     tracetest.NewSpanRecorder(),
	}
	if fc, ok := completer.(*fakeCompleter); ok {
		h.completer = fc
	}
	obs := observability.New("asha-test",
		observability.WithRegisterer(promclient.NewRegistry()),
		observability.WithSpanProcessor(h.spans),
		observability.WithoutGlobal(),
	)
	t.Cleanup(obs.Shutdown)

	h.pipeline = NewPipeline(cfg, Dependencies{
		Router:    routeintent.NewDefault(),
		Retriever: h.retriever,
		Prompts:   buildprompt.NewBuilder(buildprompt.LoadConfig()),
		Completer: completer,
		Sentiment: h.sentiment,
		Events:    h.events,
		Telemetry: obs,
	}, NewTestLogger(t), opts...)
	return h
}

func request(session, text string) models.PipelineRequest {
	return models.PipelineRequest{SessionID: session, UserText: text}
}

func openAIServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	})
}

func realCompleter(t *testing.T, url string, timeout time.Duration) *completechat.Client {
	cfg := completechat.LoadConfig()
	cfg.BaseURL = url
	cfg.APIKey = "sk-test"
	cfg.Timeout = timeout
	return completechat.NewClient(cfg, nil, &completerLogger{t})
}

type completerLogger struct{ t *testing.T }

func (l *completerLogger) Info(msg string, fields map[string]interface{})  {}
func (l *completerLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *completerLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *completerLogger) With(map[string]interface{}) completechat.Logger { return l }

// ==========================
// End-to-end Scenarios
// ==========================

func TestRespond_CareerQuestionWithRetrieval(t *testing.T) {
	var gotMessages int
	server := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []models.ChatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotMessages = len(body.Messages)
		writeCompletion(w, careerReply)
	})
	h := newHarness(t, createTestConfig(), realCompleter(t, server.URL, time.Second))

	resp := h.pipeline.Respond(context.Background(), request("s1", "How can I restart my career after a break?"))

	assert.Equal(t, models.OutcomeOK, resp.Outcome)
	assert.Equal(t, models.TopicCareer, resp.Topic)
	assert.Equal(t, models.English, resp.Language)
	assert.Equal(t, anxious(), resp.Sentiment)
	require.NotNil(t, resp.Retrieval)
	assert.Equal(t, 2, gotMessages)

	assert.True(t, strings.HasPrefix(resp.Text, "Restarting your career after a break is absolutely possible! 🌟"))
	assert.Contains(t, resp.Text, "• Apply to returnship programs")
	assert.Contains(t, resp.Text, "📊 Key facts:\n• Current unemployment rate: 3.9% (March 2025) (U.S. Bureau of Labor Statistics)")
	assert.Contains(t, resp.Text, `<a href="https://www.jobsforher.com/returnship">Women in Tech Returnship</a>`)
	assert.True(t, strings.HasSuffix(resp.Text, "Would you like help preparing for interviews?"))

	assert.Equal(t, []models.Stage{
		models.StageReceived,
		models.StageLanguageDetected,
		models.StageIntentRouted,
		models.StageRetrievalFetched,
		models.StagePromptBuilt,
		models.StageCompletionRequested,
		models.StageParsedOK,
		models.StageSentimentRequested,
		models.StageSentimentResolved,
		models.StageReturned,
	}, resp.Stages)
}

func TestRespond_RepeatShortCircuits(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, createTestConfig(), completer)

	first := h.pipeline.Respond(context.Background(), request("s1", "Tell me about mentorship programs"))
	second := h.pipeline.Respond(context.Background(), request("s1", "  tell me about   MENTORSHIP programs "))

	assert.Equal(t, 1, completer.Calls())
	assert.Equal(t, models.OutcomeOK, first.Outcome)
	assert.Equal(t, models.OutcomeRepeat, second.Outcome)
	assert.Equal(t, RepeatText, second.Text)
	assert.Equal(t, models.DefaultConfidence(), second.Sentiment)
	assert.Equal(t, models.StageReturnedRepeat, second.Stages[len(second.Stages)-1])
	assert.NotContains(t, second.Stages, models.StageCompletionRequested)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.sentiment.calls))
}

func TestRespond_RepeatIsPerSession(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, createTestConfig(), completer)

	h.pipeline.Respond(context.Background(), request("s1", "What jobs are open?"))
	other := h.pipeline.Respond(context.Background(), request("s2", "What jobs are open?"))

	assert.Equal(t, 2, completer.Calls())
	assert.Equal(t, models.OutcomeOK, other.Outcome)
}

func TestRespond_RepeatWindowExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cfg := createTestConfig()
	recent := cache.New[string, time.Time](cfg.RepeatCapacity, cfg.RepeatWindow, cache.WithClock(clock))

	completer := &fakeCompleter{}
	h := newHarness(t, cfg, completer, WithRecentQueries(recent), WithClock(clock))

	h.pipeline.Respond(context.Background(), request("s1", "hello"))
	now = now.Add(11 * time.Minute)
	resp := h.pipeline.Respond(context.Background(), request("s1", "hello"))

	assert.Equal(t, 2, completer.Calls())
	assert.Equal(t, models.OutcomeOK, resp.Outcome)
}

func TestRespond_ProviderTimeoutReturnsApology(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	timeout := 100 * time.Millisecond
	h := newHarness(t, createTestConfig(), realCompleter(t, server.URL, timeout))

	start := time.Now()
	resp := h.pipeline.Respond(context.Background(), request("s1", "How do I prepare for an interview?"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, timeout+400*time.Millisecond, "timeouts are not retried")
	assert.Equal(t, models.OutcomeError, resp.Outcome)
	assert.Equal(t, ApologyText, resp.Text)
	assert.Equal(t, string(completechat.KindTimeout), resp.ErrorKind)
	assert.Equal(t, anxious(), resp.Sentiment, "sentiment still resolves after a completion failure")
	assert.Equal(t, models.StageReturnedErrorFallback, resp.Stages[len(resp.Stages)-1])
	assert.Contains(t, resp.Stages, models.StageSentimentResolved)
	assert.Contains(t, h.events.Names(), events.APIError)
}

func TestRespond_NonJSONReplyPassesThrough(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{{raw: "Here are **two** ideas:\n- Join a community\n- Find a mentor"}}}
	h := newHarness(t, createTestConfig(), completer)

	resp := h.pipeline.Respond(context.Background(), request("s1", "hi there"))

	assert.Equal(t, models.OutcomeFallback, resp.Outcome)
	assert.Equal(t, "Here are <strong>two</strong> ideas:\n• Join a community\n• Find a mentor", resp.Text)
	assert.Contains(t, resp.Stages, models.StageParsedFallback)
	assert.Equal(t, models.StageReturned, resp.Stages[len(resp.Stages)-1])
}

// ==========================
// Failure Handling Tests
// ==========================

func networkErr() error {
	return &completechat.ProviderError{Kind: completechat.KindNetwork, StatusCode: 503, Retryable: true, Err: errors.New("unavailable")}
}

func TestRespond_RetriesRetryableErrors(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{
		{err: networkErr()},
		{err: networkErr()},
		{raw: `{"acknowledgment":"Back online!"}`},
	}}
	h := newHarness(t, createTestConfig(), completer)

	resp := h.pipeline.Respond(context.Background(), request("s1", "hello"))

	assert.Equal(t, 3, completer.Calls())
	assert.Equal(t, models.OutcomeOK, resp.Outcome)
	assert.Equal(t, "Back online!", resp.Text)
}

func TestRespond_AuthErrorNotRetried(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{
		{err: &completechat.ProviderError{Kind: completechat.KindAuth, StatusCode: 401, Err: errors.New("invalid key")}},
	}}
	h := newHarness(t, createTestConfig(), completer)

	resp := h.pipeline.Respond(context.Background(), request("s1", "hello"))

	assert.Equal(t, 1, completer.Calls())
	assert.Equal(t, AuthText, resp.Text)
	assert.Equal(t, "auth", resp.ErrorKind)
}

func TestRespond_ConsecutiveFailuresEscalate(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{{err: completechat.ErrProviderTimeout}}}
	h := newHarness(t, createTestConfig(), completer)

	texts := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		resp := h.pipeline.Respond(context.Background(), request("s1", "question "+string(rune('a'+i))))
		texts = append(texts, resp.Text)
	}
	assert.Equal(t, []string{ApologyText, ApologyText, SupportText, SupportText}, texts)

	other := h.pipeline.Respond(context.Background(), request("s2", "question"))
	assert.Equal(t, ApologyText, other.Text, "counters are per session")
}

func TestRespond_SuccessResetsFailureCount(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{
		{err: completechat.ErrProviderTimeout},
		{err: completechat.ErrProviderTimeout},
		{raw: `{"acknowledgment":"ok"}`},
		{err: completechat.ErrProviderTimeout},
	}}
	h := newHarness(t, createTestConfig(), completer)

	var last *models.PipelineResponse
	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		last = h.pipeline.Respond(context.Background(), request("s1", q))
	}
	assert.Equal(t, ApologyText, last.Text)
}

func TestRespond_FailedQuestionIsNotRecordedAsRepeat(t *testing.T) {
	completer := &fakeCompleter{responses: []fakeResponse{
		{err: completechat.ErrProviderTimeout},
		{raw: `{"acknowledgment":"Here you go"}`},
	}}
	h := newHarness(t, createTestConfig(), completer)

	h.pipeline.Respond(context.Background(), request("s1", "same question"))
	resp := h.pipeline.Respond(context.Background(), request("s1", "same question"))

	assert.Equal(t, models.OutcomeOK, resp.Outcome)
	assert.Equal(t, 2, completer.Calls())
}

// ==========================
// Routing, Language and Telemetry
// ==========================

func TestRespond_GeneralSmallTalkSkipsRetrieval(t *testing.T) {
	h := newHarness(t, createTestConfig(), &fakeCompleter{})

	resp := h.pipeline.Respond(context.Background(), request("s1", "good morning"))

	assert.Equal(t, models.TopicGeneral, resp.Topic)
	assert.Nil(t, resp.Retrieval)
	assert.Contains(t, resp.Stages, models.StageRetrievalSkipped)
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.retriever.calls))
}

func TestRespond_LanguageDetectionAndOverride(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, createTestConfig(), completer)

	resp := h.pipeline.Respond(context.Background(), request("s1", "नमस्ते, मुझे नौकरी चाहिए"))
	assert.Equal(t, models.Hindi, resp.Language)
	assert.Contains(t, completer.requests[0].Messages[0].Content, "Respond in Hindi language")

	req := request("s1", "hello again")
	req.LanguageOverride = models.Tamil
	resp = h.pipeline.Respond(context.Background(), req)
	assert.Equal(t, models.Tamil, resp.Language)
}

func TestRespond_HistoryWindowReachesPrompt(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, createTestConfig(), completer)

	history := make([]models.ConversationTurn, 0, 7)
	for i := 0; i < 7; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, models.ConversationTurn{ID: int64(i + 1), Role: role, Content: "turn", SessionID: "s1"})
	}
	req := request("s1", "and what next?")
	req.SessionHistory = history
	h.pipeline.Respond(context.Background(), req)

	require.Len(t, completer.requests, 1)
	msgs := completer.requests[0].Messages
	assert.Len(t, msgs, 7, "system + last 5 turns + user")
	assert.Equal(t, 800, completer.requests[0].MaxTokens)
	assert.True(t, completer.requests[0].JSON)
	assert.NotContains(t, h.events.Names(), events.SessionStart)
}

func TestRespond_EmitsEventsAndSpans(t *testing.T) {
	h := newHarness(t, createTestConfig(), &fakeCompleter{})

	h.pipeline.Respond(context.Background(), request("s1", "Find mentorship statistics"))

	assert.Equal(t, []string{events.SessionStart, events.IntentDetected}, h.events.Names())
	intent := h.events.Events()[1]
	assert.Equal(t, "mentorship", intent.Properties["topic"])
	assert.Equal(t, "s1", intent.SessionID)

	var names []string
	for _, s := range h.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "pipeline.respond")
	assert.Contains(t, names, "pipeline.retrieve")
	assert.Contains(t, names, "pipeline.complete")
	assert.Contains(t, names, "pipeline.sentiment")
}

func TestRespond_BoundedState(t *testing.T) {
	cfg := createTestConfig()
	recent := cache.New[string, time.Time](2, cfg.RepeatWindow)
	h := newHarness(t, cfg, &fakeCompleter{}, WithRecentQueries(recent))

	for _, q := range []string{"one", "two", "three"} {
		h.pipeline.Respond(context.Background(), request("s1", q))
	}
	assert.Equal(t, 2, recent.Len())

	resp := h.pipeline.Respond(context.Background(), request("s1", "one"))
	assert.Equal(t, models.OutcomeOK, resp.Outcome, "oldest entry was evicted")
}

func TestRespond_ConcurrentSessions(t *testing.T) {
	completer := &fakeCompleter{}
	h := newHarness(t, createTestConfig(), completer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := h.pipeline.Respond(context.Background(), request("session-"+string(rune('a'+i)), "career advice please"))
			assert.Equal(t, models.OutcomeOK, resp.Outcome)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, completer.Calls())
}
