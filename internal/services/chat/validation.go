package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateContent trims raw and enforces the 1..max character bounds.
// Length is counted in Unicode code points.
func ValidateContent(raw string, max int) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", NewValidationError(OpSend, "Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > max {
		return "", NewValidationError(OpSend, fmt.Sprintf("Message too long (max %d characters)", max))
	}
	return content, nil
}
