package assembler

import (
	"regexp"
	"strings"
)

// imageRefPattern matches markdown image embeds: ![label](target).
var imageRefPattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

var blankLines = regexp.MustCompile(`\n{3,}`)

type imageRef struct {
	Label  string
	Target string
}

func findImageRefs(content string) []imageRef {
	matches := imageRefPattern.FindAllStringSubmatch(content, -1)
	refs := make([]imageRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, imageRef{Label: m[1], Target: strings.TrimSpace(m[2])})
	}
	return refs
}

func hasImageRefs(content string) bool {
	return imageRefPattern.MatchString(content)
}

// stripImageRefs removes image embeds, leaving the surrounding text.
func stripImageRefs(content string) string {
	out := imageRefPattern.ReplaceAllString(content, "")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
