// internal/models/reply.go
package models

import "fmt"

// StructuredReply is the canonical parsed shape of a model reply.
type StructuredReply struct {
	Acknowledgment string                 `json:"acknowledgment"`
	Guidance       []string               `json:"guidance"`
	ContextualData map[string]interface{} `json:"contextualData"`
	Resources      []Resource             `json:"resources"`
	FollowUp       string                 `json:"followUp"`
	Style          string                 `json:"style,omitempty"`
}

// Statistics extracts contextualData.statistics. Items may be {value, source}
// objects or bare strings.
func (r *StructuredReply) Statistics() []Statistic {
	if r == nil || r.ContextualData == nil {
		return nil
	}
	raw, ok := r.ContextualData["statistics"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Statistic, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, Statistic{Value: v})
			}
		case map[string]interface{}:
			s := Statistic{Value: stringify(v["value"]), Source: stringify(v["source"])}
			if s.Value != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
