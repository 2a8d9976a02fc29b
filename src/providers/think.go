package providers

import (
	"fmt"
	"strings"
)

// Reasoning text returned next to a reply is wrapped in a literal <think> block
// and placed before the reply so renderers can show it as a collapsible aside.
// This is a lenschat convention, not a provider standard.
const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// withThinking prepends reasoning to content as a <think> block.
func withThinking(reasoning, content string) string {
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		return content
	}
	return fmt.Sprintf("%s%s%s\n\n%s", thinkOpen, reasoning, thinkClose, content)
}

// SplitThinking separates a leading <think> block from the reply text.
func SplitThinking(text string) (thinking, reply string) {
	if !strings.HasPrefix(text, thinkOpen) {
		return "", text
	}
	end := strings.Index(text, thinkClose)
	if end < 0 {
		return "", text
	}
	thinking = text[len(thinkOpen):end]
	reply = strings.TrimLeft(text[end+len(thinkClose):], "\n")
	return thinking, reply
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
