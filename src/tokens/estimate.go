// Package tokens estimates the token cost of an assembled context and derives a
// safe output token limit for a model's context window.
//
// The estimate is a coarse heuristic rather than a tokenizer: four characters per
// token, a flat cost per image and a fixed formatting overhead. It only needs to be
// conservative enough to keep requests clear of provider-side context overflow.
package tokens

import (
	"unicode/utf8"

	"github.com/elee1766/lenschat/src/aisdk"
)

const (
	// CharsPerToken is the assumed average token length.
	CharsPerToken = 4

	// ImageTokens is the flat estimate charged for every image attachment.
	ImageTokens = 1500

	// Overhead is added once per estimate for message formatting.
	Overhead = 100

	// SafetyMargin is the fraction of the context window kept free.
	SafetyMargin = 0.2

	// MinOutputTokens is the smallest output limit ever requested.
	MinOutputTokens = 512
)

// EstimateText returns ceil(runes/4). Characters are counted, not bytes.
func EstimateText(text string) int {
	return (utf8.RuneCountInString(text) + CharsPerToken - 1) / CharsPerToken
}

// EstimateTokens estimates the input cost of messages.
func EstimateTokens(messages []*aisdk.Message) int {
	total := 0
	for _, m := range messages {
		if m == nil {
			continue
		}
		for _, seg := range m.TextSegments() {
			total += EstimateText(seg)
		}
		total += len(m.Images()) * ImageTokens
	}
	return total + Overhead
}

// CalculateSafeMaxTokens returns the output token limit to request: the window
// minus its safety margin and the estimated input, clamped to
// [MinOutputTokens, maxTokens]. A maxTokens of zero means no user limit.
//
// The result never exceeds the user's maxTokens, including when maxTokens is
// below MinOutputTokens. A request may still overflow provider-side when the input
// alone exceeds the window.
func CalculateSafeMaxTokens(messages []*aisdk.Message, contextWindow, maxTokens int) int {
	usable := int(float64(contextWindow) * (1 - SafetyMargin))
	safe := usable - EstimateTokens(messages)

	if maxTokens > 0 && safe > maxTokens {
		safe = maxTokens
	}
	if safe < MinOutputTokens {
		safe = MinOutputTokens
	}
	if maxTokens > 0 && safe > maxTokens {
		safe = maxTokens
	}
	return safe
}
