// Package detectlanguage maps user text to a supported language by Unicode script block.
package detectlanguage

import (
	"errors"
	"fmt"
	"strings"

	"asha-assistant/internal/models"
)

var ErrUnsupportedLanguage = errors.New("UNSUPPORTED_LANGUAGE")

// Block assigns a Unicode range to a language.
type Block struct {
	Language models.Language
	Lo, Hi   rune
}

// Blocks are disjoint and checked in order.
var Blocks = []Block{
	{Language: models.Hindi, Lo: 0x0900, Hi: 0x097F},   // Devanagari
	{Language: models.Tamil, Lo: 0x0B80, Hi: 0x0BFF},   // Tamil
	{Language: models.Telugu, Lo: 0x0C00, Hi: 0x0C7F},  // Telugu
	{Language: models.Kannada, Lo: 0x0C80, Hi: 0x0CFF}, // Kannada
	{Language: models.Bengali, Lo: 0x0980, Hi: 0x09FF}, // Bengali
}

// Detect returns the language of the first block with a codepoint in text, or the
// default language when none matches.
func Detect(text string) models.Language {
	for _, b := range Blocks {
		if containsRange(text, b.Lo, b.Hi) {
			return b.Language
		}
	}
	return models.DefaultLanguage
}

func containsRange(text string, lo, hi rune) bool {
	for _, r := range text {
		if r >= lo && r <= hi {
			return true
		}
	}
	return false
}

// Supported lists every language the assistant can answer in, default first.
func Supported() []models.Language {
	out := make([]models.Language, 0, len(Blocks)+1)
	out = append(out, models.DefaultLanguage)
	for _, b := range Blocks {
		out = append(out, b.Language)
	}
	return out
}

// Parse validates a language override such as "Hindi" or " tamil ".
func Parse(name string) (models.Language, error) {
	candidate := models.Language(strings.ToLower(strings.TrimSpace(name)))
	for _, l := range Supported() {
		if l == candidate {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

// Resolve returns override when set, otherwise the detected language of text.
func Resolve(text string, override models.Language) models.Language {
	if override != "" {
		if l, err := Parse(string(override)); err == nil {
			return l
		}
	}
	return Detect(text)
}
