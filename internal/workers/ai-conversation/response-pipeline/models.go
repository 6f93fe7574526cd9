// internal/workers/ai-conversation/response-pipeline/models.go
package responsepipeline

import (
	"context"

	"asha-assistant/internal/common/events"
	"asha-assistant/internal/common/observability"
	"asha-assistant/internal/models"
	buildprompt "asha-assistant/internal/workers/ai-conversation/build-prompt"
	completechat "asha-assistant/internal/workers/ai-conversation/complete-chat"
	routeintent "asha-assistant/internal/workers/ai-conversation/route-intent"
)

const (
	// RepeatText answers an identical question asked again inside the repeat window.
	RepeatText = "It looks like we already covered that question! 😊 Scroll up to see my earlier answer, or ask me something new and I'll gladly help. 💖"
	// ApologyText is returned for a transient completion failure.
	ApologyText = "🌟 I apologize, but I'm having trouble processing your request right now. Please try again in a moment! 💝"
	// AuthText tells operators the provider rejected the configured credentials.
	AuthText = "🔧 I can't reach my knowledge service right now because it isn't configured correctly. Please let the JobsForHer team know so they can fix it. 💝"
	// SupportText replaces the apology once failures for a session reach the threshold.
	SupportText = "😔 I'm still having trouble responding, which suggests an ongoing issue on our side. Please contact the JobsForHer support team if you need help right away. 💝"
)

type IntentRouter interface {
	Decide(text string) routeintent.Decision
}

type Retriever interface {
	Fetch(ctx context.Context, query string) *models.RetrievalResult
}

type PromptBuilder interface {
	Build(topic models.Topic, lang models.Language, retrieval *models.RetrievalResult, history []models.ConversationTurn, userText string) buildprompt.Prompt
}

type Completer interface {
	Complete(ctx context.Context, req completechat.CompletionRequest) (string, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) models.ConfidenceAnalysis
}

// Dependencies are the pipeline components. Retriever, Events and Telemetry may be nil.
type Dependencies struct {
	Router    IntentRouter
	Retriever Retriever
	Prompts   PromptBuilder
	Completer Completer
	Sentiment SentimentAnalyzer
	Events    events.Publisher
	Telemetry *observability.Observability
}
