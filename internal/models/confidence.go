// internal/models/confidence.go
package models

type ConfidenceLevel string
type EmotionTone string
type SupportLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"

	ToneAnxious   EmotionTone = "anxious"
	ToneNeutral   EmotionTone = "neutral"
	ToneConfident EmotionTone = "confident"

	SupportHigh     SupportLevel = "high-support"
	SupportModerate SupportLevel = "moderate-support"
	SupportMinimal  SupportLevel = "minimal-guidance"
)

// ConfidenceAnalysis tints the chat UI. It is always present on a response.
type ConfidenceAnalysis struct {
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
	EmotionTone     EmotionTone     `json:"emotionTone"`
	SupportLevel    SupportLevel    `json:"supportLevel"`
}

// DefaultConfidence is medium / neutral / moderate-support.
func DefaultConfidence() ConfidenceAnalysis {
	return ConfidenceAnalysis{
		ConfidenceLevel: ConfidenceMedium,
		EmotionTone:     ToneNeutral,
		SupportLevel:    SupportModerate,
	}
}

func (c ConfidenceLevel) Valid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

func (t EmotionTone) Valid() bool {
	return t == ToneAnxious || t == ToneNeutral || t == ToneConfident
}

func (s SupportLevel) Valid() bool {
	return s == SupportHigh || s == SupportModerate || s == SupportMinimal
}
