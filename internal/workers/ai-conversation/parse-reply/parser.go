// internal/workers/ai-conversation/parse-reply/parser.go
package parsereply

import (
	"encoding/json"
	"fmt"
	"strings"

	"asha-assistant/internal/models"
)

const ComponentName = "parse-reply"

// Parse never fails: text that holds no JSON object becomes a fallback carrying the raw
// text. A JSON object is repaired field by field, and only falls back when nothing
// displayable is left.
func Parse(raw string) Result {
	body := extractObject(stripFences(raw))
	if body == "" {
		return fallback(raw, "empty reply")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return fallback(raw, fmt.Sprintf("not a JSON object: %v", err))
	}
	if doc == nil {
		return fallback(raw, "reply is null")
	}
	applyAliases(doc)
	repair(doc)

	vr, err := ReplySchema.Validate(doc)
	if err != nil {
		return fallback(raw, err.Error())
	}
	if !vr.Valid {
		return fallback(raw, vr.Summary())
	}

	// The document already matched the schema, so this round trip cannot lose fields.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return fallback(raw, err.Error())
	}
	var reply models.StructuredReply
	if err := json.Unmarshal(normalized, &reply); err != nil {
		return fallback(raw, err.Error())
	}

	reply.Acknowledgment = strings.TrimSpace(reply.Acknowledgment)
	reply.FollowUp = strings.TrimSpace(reply.FollowUp)
	if reply.Guidance == nil {
		reply.Guidance = []string{}
	}
	if reply.Resources == nil {
		reply.Resources = []models.Resource{}
	}
	if Format(&reply) == "" {
		return fallback(raw, "reply has no displayable content")
	}
	return Result{Kind: KindOK, Reply: &reply, Raw: raw}
}

func fallback(raw, reason string) Result {
	return Result{Kind: KindFallback, Raw: raw, Reason: reason}
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the outermost {...} span when the model wrapped its JSON in
// prose. Text without braces is returned unchanged.
func extractObject(s string) string {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// repair coerces optional fields into their canonical shapes. Values that cannot be
// coerced are dropped so they default to empty.
func repair(doc map[string]interface{}) {
	for _, key := range []string{"acknowledgment", "followUp", "style"} {
		if v, ok := doc[key]; ok && v != nil {
			if _, isString := v.(string); !isString {
				delete(doc, key)
			}
		}
	}

	switch g := doc["guidance"].(type) {
	case nil:
	case string:
		doc["guidance"] = []interface{}{g}
	case []interface{}:
		kept := make([]interface{}, 0, len(g))
		for _, item := range g {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				kept = append(kept, s)
			}
		}
		doc["guidance"] = kept
	default:
		delete(doc, "guidance")
	}

	switch r := doc["resources"].(type) {
	case nil:
	case map[string]interface{}:
		doc["resources"] = repairResources([]interface{}{r})
	case []interface{}:
		doc["resources"] = repairResources(r)
	default:
		delete(doc, "resources")
	}

	if v, ok := doc["contextualData"]; ok && v != nil {
		cd, isMap := v.(map[string]interface{})
		if !isMap {
			delete(doc, "contextualData")
		} else if stats, ok := cd["statistics"]; ok && stats != nil {
			list, isList := stats.([]interface{})
			if !isList {
				delete(cd, "statistics")
			} else {
				kept := make([]interface{}, 0, len(list))
				for _, item := range list {
					switch item.(type) {
					case string, map[string]interface{}:
						kept = append(kept, item)
					}
				}
				cd["statistics"] = kept
			}
		}
	}
}

// repairResources keeps items with a usable url. A missing or non-string text becomes
// empty and is rendered as the url.
func repairResources(items []interface{}) []interface{} {
	kept := make([]interface{}, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		url, _ := m["url"].(string)
		if strings.TrimSpace(url) == "" {
			continue
		}
		text, _ := m["text"].(string)
		kept = append(kept, map[string]interface{}{"text": text, "url": strings.TrimSpace(url)})
	}
	return kept
}

// applyAliases maps field names from older prompt variants onto the canonical ones.
// Canonical fields win when both are present.
func applyAliases(doc map[string]interface{}) {
	rename := func(from, to string) {
		v, ok := doc[from]
		if !ok {
			return
		}
		delete(doc, from)
		if _, exists := doc[to]; !exists {
			doc[to] = v
		}
	}
	rename("understanding", "acknowledgment")
	rename("keyPoints", "guidance")

	stats, ok := doc["statistics"]
	if !ok {
		return
	}
	delete(doc, "statistics")

	cd, isMap := doc["contextualData"].(map[string]interface{})
	if !isMap {
		cd = map[string]interface{}{}
		doc["contextualData"] = cd
	}
	if _, exists := cd["statistics"]; !exists {
		cd["statistics"] = stats
	}
}
