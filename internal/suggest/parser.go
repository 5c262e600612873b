package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
)

type generatedMessages struct {
	Messages []string `json:"messages"`
}

// ParseResponse extracts candidate messages from a model reply. Code fences
// are tolerated; blank entries are dropped.
func ParseResponse(responseBody string) ([]string, error) {
	cleaned := stripCodeFences(responseBody)

	var out generatedMessages
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var messages []string
	for _, m := range out.Messages {
		m = strings.Join(strings.Fields(m), " ")
		if m != "" {
			messages = append(messages, m)
		}
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("response contained no messages")
	}
	return messages, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
