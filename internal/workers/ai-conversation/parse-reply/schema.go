// internal/workers/ai-conversation/parse-reply/schema.go
package parsereply

import "asha-assistant/internal/common/validation"

// ReplySchema is the canonical shape of a model reply after alias mapping and repair.
var ReplySchema = validation.MustCompile(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"acknowledgment": map[string]interface{}{
			"type": []interface{}{"string", "null"},
		},
		"guidance": map[string]interface{}{
			"type":  []interface{}{"array", "null"},
			"items": map[string]interface{}{"type": "string"},
		},
		"contextualData": map[string]interface{}{
			"type": []interface{}{"object", "null"},
			"properties": map[string]interface{}{
				"statistics": map[string]interface{}{
					"type": []interface{}{"array", "null"},
					"items": map[string]interface{}{
						"type": []interface{}{"object", "string"},
					},
				},
			},
		},
		"resources": map[string]interface{}{
			"type": []interface{}{"array", "null"},
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{"type": "string"},
					"url":  map[string]interface{}{"type": "string", "minLength": 1},
				},
				"required": []interface{}{"url"},
			},
		},
		"followUp": map[string]interface{}{
			"type": []interface{}{"string", "null"},
		},
		"style": map[string]interface{}{
			"type": []interface{}{"string", "null"},
		},
	},
})
