package ai

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// thinkSplitter incrementally separates <think>...</think> blocks from the
// surrounding answer text. Reasoning models interleave both in one token
// stream and the tags can arrive split across chunk boundaries, so the
// splitter keeps any tail that could still turn into a tag until the next
// chunk resolves it.
type thinkSplitter struct {
	carry   string
	inThink bool
}

// feed consumes one chunk and returns the text and reasoning portions that
// are safe to emit now.
func (sp *thinkSplitter) feed(chunk string) (text, think string) {
	sp.carry += chunk
	var textOut, thinkOut strings.Builder

	for {
		tag := thinkOpen
		if sp.inThink {
			tag = thinkClose
		}
		idx := strings.Index(sp.carry, tag)
		if idx >= 0 {
			if sp.inThink {
				thinkOut.WriteString(sp.carry[:idx])
			} else {
				textOut.WriteString(sp.carry[:idx])
			}
			sp.carry = sp.carry[idx+len(tag):]
			sp.inThink = !sp.inThink
			continue
		}

		// No full tag: hold back the longest suffix that is a prefix of the
		// tag we are looking for, emit the rest.
		hold := 0
		for n := len(tag) - 1; n > 0; n-- {
			if n <= len(sp.carry) && strings.HasSuffix(sp.carry, tag[:n]) {
				hold = n
				break
			}
		}
		safe := sp.carry[:len(sp.carry)-hold]
		if sp.inThink {
			thinkOut.WriteString(safe)
		} else {
			textOut.WriteString(safe)
		}
		sp.carry = sp.carry[len(sp.carry)-hold:]
		return textOut.String(), thinkOut.String()
	}
}

// flush drains whatever is still held back once the stream is done. An
// unterminated tag prefix is emitted verbatim to the current side.
func (sp *thinkSplitter) flush() (text, think string) {
	out := sp.carry
	sp.carry = ""
	if sp.inThink {
		return "", out
	}
	return out, ""
}
