// internal/workers/ai-conversation/analyze-sentiment/handler.go
package analyzesentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"asha-assistant/internal/models"
	completechat "asha-assistant/internal/workers/ai-conversation/complete-chat"
)

const ComponentName = "analyze-sentiment"

var ErrInvalidClassification = errors.New("INVALID_CLASSIFICATION")

const systemPrompt = `You classify how confident a woman sounds about her career, based on one message.
Respond ONLY with a JSON object:
{"confidenceLevel": "low" | "medium" | "high", "emotionTone": "anxious" | "neutral" | "confident", "supportLevel": "high-support" | "moderate-support" | "minimal-guidance"}`

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Completer interface {
	Complete(ctx context.Context, req completechat.CompletionRequest) (string, error)
}

type Analyzer struct {
	config   *Config
	provider Completer
	logger   Logger
}

func NewAnalyzer(config *Config, provider Completer, log Logger) *Analyzer {
	return &Analyzer{
		config:   config,
		provider: provider,
		logger: log.With(map[string]interface{}{
			"component": ComponentName,
		}),
	}
}

type completion struct {
	raw string
	err error
}

// Analyze classifies text. It returns models.DefaultConfidence on any failure and never
// waits past its own timeout.
func (a *Analyzer) Analyze(ctx context.Context, text string) models.ConfidenceAnalysis {
	if strings.TrimSpace(text) == "" || a.provider == nil {
		return models.DefaultConfidence()
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		raw, err := a.provider.Complete(ctx, completechat.CompletionRequest{
			Messages: []models.ChatMessage{
				{Role: models.RoleSystem, Content: systemPrompt},
				{Role: models.RoleUser, Content: text},
			},
			MaxTokens:   a.config.MaxTokens,
			Temperature: 0,
			JSON:        true,
		})
		done <- completion{raw: raw, err: err}
	}()

	var c completion
	select {
	case c = <-done:
	case <-ctx.Done():
		c.err = ctx.Err()
	}
	if c.err != nil {
		a.logger.Warn("sentiment analysis failed, using default", map[string]interface{}{
			"error": c.err.Error(),
		})
		return models.DefaultConfidence()
	}

	analysis, err := Classify(c.raw)
	if err != nil {
		a.logger.Warn("sentiment reply rejected, using default", map[string]interface{}{
			"error": err.Error(),
		})
		return models.DefaultConfidence()
	}
	return analysis
}

var (
	toneAliases = map[string]models.EmotionTone{
		"negative": models.ToneAnxious,
		"positive": models.ToneConfident,
	}
	supportAliases = map[string]models.SupportLevel{
		"high":          models.SupportHigh,
		"moderate":      models.SupportModerate,
		"light":         models.SupportMinimal,
		"light-support": models.SupportMinimal,
		"minimal":       models.SupportMinimal,
	}
)

// Classify decodes a classifier reply, mapping accepted aliases. Any unknown value
// rejects the whole reply.
func Classify(raw string) (models.ConfidenceAnalysis, error) {
	body := raw
	if start, end := strings.IndexByte(raw, '{'), strings.LastIndexByte(raw, '}'); start >= 0 && end > start {
		body = raw[start : end+1]
	}

	var doc struct {
		ConfidenceLevel string `json:"confidenceLevel"`
		EmotionTone     string `json:"emotionTone"`
		SupportLevel    string `json:"supportLevel"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return models.ConfidenceAnalysis{}, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	level := models.ConfidenceLevel(normalize(doc.ConfidenceLevel))

	tone := models.EmotionTone(normalize(doc.EmotionTone))
	if alias, ok := toneAliases[string(tone)]; ok {
		tone = alias
	}

	support := models.SupportLevel(normalize(doc.SupportLevel))
	if alias, ok := supportAliases[string(support)]; ok {
		support = alias
	}

	if !level.Valid() || !tone.Valid() || !support.Valid() {
		return models.ConfidenceAnalysis{}, fmt.Errorf("%w: %q/%q/%q", ErrInvalidClassification,
			doc.ConfidenceLevel, doc.EmotionTone, doc.SupportLevel)
	}
	return models.ConfidenceAnalysis{ConfidenceLevel: level, EmotionTone: tone, SupportLevel: support}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
