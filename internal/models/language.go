// internal/models/language.go
package models

type Language string

const (
	English Language = "english"
	Hindi   Language = "hindi"
	Tamil   Language = "tamil"
	Telugu  Language = "telugu"
	Kannada Language = "kannada"
	Bengali Language = "bengali"

	DefaultLanguage = English
)

var languageNames = map[Language]string{
	English: "English",
	Hindi:   "Hindi",
	Tamil:   "Tamil",
	Telugu:  "Telugu",
	Kannada: "Kannada",
	Bengali: "Bengali",
}

// DisplayName is the language name used in prompt directives.
func (l Language) DisplayName() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

type Topic string

const (
	TopicCareer     Topic = "career"
	TopicMentorship Topic = "mentorship"
	TopicGeneral    Topic = "general"
)
