// internal/workers/ai-conversation/build-prompt/builder.go
package buildprompt

import (
	"fmt"
	"strings"

	"asha-assistant/internal/models"
)

const ComponentName = "build-prompt"

var personas = map[models.Topic]string{
	models.TopicGeneral: "You are Asha AI, an intelligent, responsive, and ethical virtual assistant developed for the JobsForHer Foundation platform. " +
		"You help users explore career opportunities, mentorships, and more. Keep your answers concise, helpful, and focused on women's career development and JobsForHer services. " +
		"Your tone should be warm, professional, and encouraging.",
	models.TopicCareer: "You are Asha AI, a specialized career advisor for women. Provide concise, actionable career advice related to the JobsForHer Foundation. " +
		"Focus on empowering women in their career journeys, helping them overcome barriers, and connecting them with relevant opportunities.",
	models.TopicMentorship: "You are Asha AI, a mentorship program specialist for the JobsForHer Foundation. " +
		"Provide information about mentorship programs, how to find mentors, and the benefits of mentorship for women's career development. Be concise and helpful.",
}

const styleRules = `Your responses must:
1. Open warmly, for example "🌟 Hello! I'm Asha AI 😊 How can I empower you today? 💖"
2. Be warm, encouraging and tailored to women
3. Include appropriate emojis woven naturally into the response
4. Use accurate data, quoting sources when available
5. Format any URLs as clickable HTML <a> tags with descriptive text
6. End with "Let me know if I can support you further! 💕"

IMPORTANT GUIDELINES:
- If you're unsure about any information, say "I'm sorry, I don't have reliable info on that right now."
- Keep responses concise but informative
- Focus on actionable advice and practical solutions
- Reference previous conversation context when relevant`

// ReplyInstruction describes the one JSON shape every topic must answer in.
const ReplyInstruction = `Respond ONLY with a JSON object of this exact shape:
{
  "acknowledgment": "one or two warm sentences acknowledging the question",
  "guidance": ["short actionable point", "..."],
  "contextualData": {"statistics": [{"value": "a relevant figure", "source": "where it comes from"}]},
  "resources": [{"text": "descriptive link text", "url": "https://..."}],
  "followUp": "one question or offer that continues the conversation"
}
"acknowledgment" is required. Use empty arrays or null for anything you have nothing to say about. Do not wrap the JSON in markdown.`

// Persona returns the persona text for topic, falling back to the general persona.
func Persona(topic models.Topic) string {
	if p, ok := personas[topic]; ok {
		return p
	}
	return personas[models.TopicGeneral]
}

// LanguageDirective is appended to the system prompt for non-English replies.
func LanguageDirective(lang models.Language) string {
	name := lang.DisplayName()
	return fmt.Sprintf("IMPORTANT: Respond in %s language. All text should be in %s, not English.", name, name)
}

type Builder struct {
	config *Config
}

func NewBuilder(config *Config) *Builder {
	if config == nil {
		config = LoadConfig()
	}
	return &Builder{config: config}
}

// Build assembles the system prompt and message list. Only the last HistoryWindow turns
// of history are included, in their original order, followed by the user turn.
func (b *Builder) Build(topic models.Topic, lang models.Language, retrieval *models.RetrievalResult, history []models.ConversationTurn, userText string) Prompt {
	system := b.systemPrompt(topic, lang, retrieval)

	window := history
	if n := b.config.HistoryWindow; n >= 0 && len(window) > n {
		window = window[len(window)-n:]
	}

	messages := make([]models.ChatMessage, 0, len(window)+2)
	messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: system})
	for _, turn := range window {
		if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
			continue
		}
		messages = append(messages, models.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: userText})

	return Prompt{SystemPrompt: system, Messages: messages}
}

func (b *Builder) systemPrompt(topic models.Topic, lang models.Language, retrieval *models.RetrievalResult) string {
	parts := []string{Persona(topic), styleRules, ReplyInstruction}

	if block := retrievalBlock(retrieval); block != "" {
		parts = append(parts, block)
	}
	if lang != "" && lang != models.English {
		parts = append(parts, LanguageDirective(lang))
	}
	return strings.Join(parts, "\n\n")
}

func retrievalBlock(r *models.RetrievalResult) string {
	if r.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Here is relevant contextual data. Prefer it over general knowledge and cite it:")
	if len(r.Statistics) > 0 {
		sb.WriteString("\nStatistics:")
		for _, s := range r.Statistics {
			if s.Source != "" {
				fmt.Fprintf(&sb, "\n- %s (Source: %s)", s.Value, s.Source)
			} else {
				fmt.Fprintf(&sb, "\n- %s", s.Value)
			}
		}
	}
	if len(r.Resources) > 0 {
		sb.WriteString("\nResources:")
		for _, res := range r.Resources {
			fmt.Fprintf(&sb, "\n- %s: %s", res.Text, res.URL)
		}
	}
	return sb.String()
}
