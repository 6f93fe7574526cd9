// internal/workers/ai-conversation/parse-reply/formatter.go
package parsereply

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"asha-assistant/internal/models"
)

const (
	bullet          = "• "
	statisticsTitle = "📊 Key facts:"
	resourcesTitle  = "📚 Helpful resources:"
)

// Format renders a reply as blank-line separated sections. Empty sections are left out
// together with their headers.
func Format(reply *models.StructuredReply) string {
	if reply == nil {
		return ""
	}
	var sections []string

	if ack := strings.TrimSpace(reply.Acknowledgment); ack != "" {
		sections = append(sections, ack)
	}

	var guidance []string
	for _, g := range reply.Guidance {
		if g = strings.TrimSpace(g); g != "" {
			guidance = append(guidance, bullet+g)
		}
	}
	if len(guidance) > 0 {
		sections = append(sections, strings.Join(guidance, "\n"))
	}

	if stats := reply.Statistics(); len(stats) > 0 {
		lines := []string{statisticsTitle}
		for _, s := range stats {
			if s.Source != "" {
				lines = append(lines, fmt.Sprintf("%s%s (%s)", bullet, s.Value, s.Source))
			} else {
				lines = append(lines, bullet+s.Value)
			}
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	var links []string
	for _, r := range reply.Resources {
		if r.URL == "" {
			continue
		}
		text := r.Text
		if strings.TrimSpace(text) == "" {
			text = r.URL
		}
		links = append(links, fmt.Sprintf(`%s<a href="%s">%s</a>`, bullet, html.EscapeString(r.URL), html.EscapeString(text)))
	}
	if len(links) > 0 {
		sections = append(sections, resourcesTitle+"\n"+strings.Join(links, "\n"))
	}

	if f := strings.TrimSpace(reply.FollowUp); f != "" {
		sections = append(sections, f)
	}
	return strings.Join(sections, "\n\n")
}

var (
	boldPattern   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	emPattern     = regexp.MustCompile(`\*([^*\n]+)\*`)
	listPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+\.)[ \t]+`)
	headerPattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
)

// FormatRaw lightly converts markdown in a non-JSON reply for display.
func FormatRaw(raw string) string {
	s := strings.TrimSpace(raw)
	s = listPattern.ReplaceAllString(s, bullet)
	s = headerPattern.ReplaceAllString(s, "")
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = emPattern.ReplaceAllString(s, "<em>$1</em>")
	return s
}

// Render formats an OK result and passes a fallback through FormatRaw.
func Render(r Result) string {
	if r.OK() {
		return Format(r.Reply)
	}
	return FormatRaw(r.Raw)
}
