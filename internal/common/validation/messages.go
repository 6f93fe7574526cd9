package validation

// MessageRequestSchema describes the body of POST /api/messages.
var MessageRequestSchema = MustCompile(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"role": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"user"},
		},
		"content": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"sessionId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"languageOverride": map[string]interface{}{
			"type": "string",
		},
	},
	"required": []interface{}{"role", "content", "sessionId"},
})

// ValidateMessageRequest validates a raw POST /api/messages body.
func ValidateMessageRequest(raw []byte) (*ValidationResult, error) {
	return MessageRequestSchema.ValidateJSON(raw)
}
