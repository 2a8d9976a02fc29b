// Package modes defines the selectable behavioural prompts layered on top of the
// global system prompt.
package modes

import (
	"sort"
	"strings"
	"sync"
)

// DefaultModeID is the mode selected when none is chosen. Its prompt is empty.
const DefaultModeID = "default"

// Mode is a named system instruction.
type Mode struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	// ImageOriented modes carry per-image instructions and are re-applied every
	// time the current turn attaches images.
	ImageOriented bool `json:"image_oriented"`
}

// HasPrompt reports whether the mode contributes any prompt text.
func (m *Mode) HasPrompt() bool {
	return m != nil && strings.TrimSpace(m.Prompt) != ""
}

var builtin = []Mode{
	{ID: DefaultModeID, Name: "Default"},
	{
		ID:            "analyze",
		Name:          "Analyze image",
		Prompt:        "Analyze the attached image in detail. Describe its subject, composition, notable details and any text it contains, then answer the user's question about it.",
		ImageOriented: true,
	},
	{
		ID:            "ocr",
		Name:          "Extract text (OCR)",
		Prompt:        "Extract all text visible in the attached image. Preserve the original layout, line breaks and reading order as closely as possible. Output only the extracted text.",
		ImageOriented: true,
	},
	{
		ID:            "describe",
		Name:          "Describe image",
		Prompt:        "Write a concise, objective description of the attached image suitable for use as alt text.",
		ImageOriented: true,
	},
	{
		ID:     "summarize",
		Name:   "Summarize",
		Prompt: "Summarize the content the user provides. Lead with the key points as a short bulleted list.",
	},
	{
		ID:     "code",
		Name:   "Code assistant",
		Prompt: "You are an expert software engineer. When an image shows code or a user interface, transcribe the relevant code and explain it precisely.",
	},
}

// Catalog is the set of modes available to a session.
type Catalog struct {
	mu    sync.RWMutex
	modes map[string]Mode
}

// NewCatalog creates a catalog holding the built-in modes followed by extra.
// Extra modes replace built-ins with the same id.
func NewCatalog(extra ...Mode) *Catalog {
	c := &Catalog{modes: make(map[string]Mode, len(builtin)+len(extra))}
	for _, m := range builtin {
		c.modes[m.ID] = m
	}
	for _, m := range extra {
		c.modes[m.ID] = m
	}
	return c
}

// Get returns a mode by id. Unknown ids resolve to the default mode.
func (c *Catalog) Get(id string) *Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modes[id]
	if !ok {
		m = c.modes[DefaultModeID]
	}
	return &m
}

// Has reports whether id is a known mode.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.modes[id]
	return ok
}

// Register adds or replaces a mode.
func (c *Catalog) Register(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes[m.ID] = m
}

// List returns every mode ordered by id, the default mode first.
func (c *Catalog) List() []Mode {
	c.mu.RLock()
	out := make([]Mode, 0, len(c.modes))
	for _, m := range c.modes {
		out = append(out, m)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == DefaultModeID {
			return true
		}
		if out[j].ID == DefaultModeID {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out
}
