// internal/workers/ai-conversation/parse-reply/models.go
package parsereply

import "asha-assistant/internal/models"

type Kind string

const (
	KindOK       Kind = "ok"
	KindFallback Kind = "fallback"
)

// Result is either a validated reply (KindOK) or the raw model text (KindFallback).
type Result struct {
	Kind  Kind
	Reply *models.StructuredReply
	Raw   string
	// Reason explains a fallback.
	Reason string
}

func (r Result) OK() bool { return r.Kind == KindOK }
