// internal/models/pipeline.go
package models

type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
	OutcomeRepeat   Outcome = "repeat"
)

// Stage names the pipeline state a request passed through.
type Stage string

const (
	StageReceived              Stage = "received"
	StageLanguageDetected      Stage = "language_detected"
	StageIntentRouted          Stage = "intent_routed"
	StageRetrievalFetched      Stage = "retrieval_fetched"
	StageRetrievalSkipped      Stage = "retrieval_skipped"
	StagePromptBuilt           Stage = "prompt_built"
	StageCompletionRequested   Stage = "completion_requested"
	StageParsedOK              Stage = "parsed_ok"
	StageParsedFallback        Stage = "parsed_fallback"
	StageSentimentRequested    Stage = "sentiment_requested"
	StageSentimentResolved     Stage = "sentiment_resolved"
	StageReturned              Stage = "returned"
	StageReturnedErrorFallback Stage = "returned_error_fallback"
	StageReturnedRepeat        Stage = "returned_repeat"
)

type PipelineRequest struct {
	SessionID        string             `json:"sessionId,omitempty"`
	UserText         string             `json:"userText"`
	SessionHistory   []ConversationTurn `json:"sessionHistory"`
	LanguageOverride Language           `json:"languageOverride,omitempty"`
}

type PipelineResponse struct {
	Text      string             `json:"text"`
	Sentiment ConfidenceAnalysis `json:"sentiment"`
	Topic     Topic              `json:"topic"`
	Language  Language           `json:"language"`
	Outcome   Outcome            `json:"outcome"`
	Stages    []Stage            `json:"stages"`
	Retrieval *RetrievalResult   `json:"retrieval,omitempty"`
	// ErrorKind is the completion failure kind when Outcome is error.
	ErrorKind string `json:"errorKind,omitempty"`
}
