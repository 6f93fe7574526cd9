// Package routeintent classifies a user message into a topic with ordered keyword rules.
package routeintent

import (
	"strings"

	"asha-assistant/internal/models"
)

// Rule maps keywords to a topic. Rules are evaluated in order and the first rule with a
// keyword found in the text wins.
type Rule struct {
	Topic    models.Topic
	Keywords []string
}

// DefaultRules checks career before mentorship, so a message with both kinds of
// keyword routes to career.
var DefaultRules = []Rule{
	{
		Topic: models.TopicCareer,
		Keywords: []string{
			"job", "career", "work", "employment", "salary", "pay", "interview",
			"resume", "cv", "application", "apply", "position", "opportunity", "skill",
			"procedure", "experience", "qualification", "hire", "employer", "tech", "industry",
		},
	},
	{
		Topic: models.TopicMentorship,
		Keywords: []string{
			"mentor", "mentorship", "guidance", "coach", "advisor", "support", "help",
			"network", "connection", "grow", "advice", "learn",
		},
	},
}

// DefaultFactKeywords mark general questions that still benefit from retrieval.
var DefaultFactKeywords = []string{
	"statistics", "data", "report", "research", "numbers", "study", "survey",
	"percentage", "rate", "trend", "analysis", "findings", "results",
	"how many", "what is the", "tell me about", "show me", "find", "search",
}

// Decision is the routing outcome for one message.
type Decision struct {
	Topic          models.Topic `json:"topic"`
	NeedsRetrieval bool         `json:"needsRetrieval"`
	MatchedKeyword string       `json:"matchedKeyword,omitempty"`
}

type Router struct {
	rules        []Rule
	factKeywords []string
}

// New builds a router. Nil arguments select the defaults.
func New(rules []Rule, factKeywords []string) *Router {
	if rules == nil {
		rules = DefaultRules
	}
	if factKeywords == nil {
		factKeywords = DefaultFactKeywords
	}
	return &Router{rules: rules, factKeywords: factKeywords}
}

func NewDefault() *Router {
	return New(nil, nil)
}

// Rules returns the rule list in evaluation order.
func (r *Router) Rules() []Rule {
	return r.rules
}

// Route returns the topic of text, falling back to general.
func (r *Router) Route(text string) models.Topic {
	topic, _ := r.match(strings.ToLower(text))
	return topic
}

// Decide routes text and reports whether external facts should be fetched: always for
// career and mentorship, and for general only when a fact keyword is present.
func (r *Router) Decide(text string) Decision {
	lower := strings.ToLower(text)
	topic, keyword := r.match(lower)

	d := Decision{Topic: topic, MatchedKeyword: keyword}
	switch topic {
	case models.TopicGeneral:
		if kw, ok := firstMatch(lower, r.factKeywords); ok {
			d.NeedsRetrieval = true
			d.MatchedKeyword = kw
		}
	default:
		d.NeedsRetrieval = true
	}
	return d
}

func (r *Router) match(lower string) (models.Topic, string) {
	for _, rule := range r.rules {
		if kw, ok := firstMatch(lower, rule.Keywords); ok {
			return rule.Topic, kw
		}
	}
	return models.TopicGeneral, ""
}

func firstMatch(lower string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
