package ai

import "strings"

// SanitizeAssistantText normalizes model output before persistence: CRLF to
// LF, trailing whitespace trimmed, and any stray <think> markup removed so
// chain-of-thought never reaches the messages table.
func SanitizeAssistantText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Drop complete think blocks, then any dangling tags.
	for {
		open := strings.Index(s, thinkOpen)
		if open < 0 {
			break
		}
		end := strings.Index(s[open:], thinkClose)
		if end < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+end+len(thinkClose):]
	}
	s = strings.ReplaceAll(s, thinkOpen, "")
	s = strings.ReplaceAll(s, thinkClose, "")

	return strings.TrimSpace(s)
}
