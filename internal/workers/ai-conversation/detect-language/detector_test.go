package detectlanguage

import (
	"errors"
	"testing"

	"asha-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Language
	}{
		{"hindi", "मुझे नौकरी चाहिए", models.Hindi},
		{"tamil", "எனக்கு வேலை வேண்டும்", models.Tamil},
		{"telugu", "నాకు ఉద్యోగం కావాలి", models.Telugu},
		{"kannada", "ನನಗೆ ಕೆಲಸ ಬೇಕು", models.Kannada},
		{"bengali", "আমার একটি চাকরি দরকার", models.Bengali},
		{"ascii", "How do I apply for a software engineering job?", models.English},
		{"empty", "", models.English},
		{"emoji only", "😊💖", models.English},
		{"mixed english and hindi", "I want a job नौकरी", models.Hindi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetect_BlockOrderIsDeterministic(t *testing.T) {
	// Bengali first in the text, Hindi first in the table.
	text := "আমার नौकरी"
	for i := 0; i < 10; i++ {
		assert.Equal(t, models.Hindi, Detect(text))
	}
}

func TestDetect_BlockBoundaries(t *testing.T) {
	for _, b := range Blocks {
		assert.Equal(t, b.Language, Detect(string(b.Lo)), "lower bound of %s", b.Language)
		assert.Equal(t, b.Language, Detect(string(b.Hi)), "upper bound of %s", b.Language)
	}
	assert.Equal(t, models.English, Detect(string(rune(0x08FF))))
}

func TestBlocksAreDisjoint(t *testing.T) {
	for i, a := range Blocks {
		for j, b := range Blocks {
			if i == j {
				continue
			}
			assert.False(t, a.Lo <= b.Hi && b.Lo <= a.Hi, "%s overlaps %s", a.Language, b.Language)
		}
	}
}

func TestSupported(t *testing.T) {
	langs := Supported()
	require.Len(t, langs, 6)
	assert.Equal(t, models.English, langs[0])
	assert.Contains(t, langs, models.Bengali)
}

func TestParse(t *testing.T) {
	l, err := Parse(" Hindi ")
	require.NoError(t, err)
	assert.Equal(t, models.Hindi, l)

	_, err = Parse("klingon")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	_, err = Parse("")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, models.Tamil, Resolve("hello", "tamil"))
	assert.Equal(t, models.Hindi, Resolve("नमस्ते", ""))
	assert.Equal(t, models.English, Resolve("hello", "klingon"))
}

func BenchmarkDetect(b *testing.B) {
	text := "How do I apply for a software engineering job? मुझे नौकरी चाहिए"
	for i := 0; i < b.N; i++ {
		Detect(text)
	}
}
