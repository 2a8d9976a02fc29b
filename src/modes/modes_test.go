package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog(Mode{ID: "poem", Name: "Poem", Prompt: "Answer in verse."})

	assert.False(t, c.Get(DefaultModeID).HasPrompt())
	assert.True(t, c.Get("ocr").ImageOriented)
	assert.True(t, c.Get("poem").HasPrompt())
	assert.Equal(t, DefaultModeID, c.Get("unknown").ID)
	assert.False(t, c.Has("unknown"))

	list := c.List()
	assert.Equal(t, DefaultModeID, list[0].ID)
	assert.Len(t, list, len(builtin)+1)
}

func TestCatalogOverridesBuiltin(t *testing.T) {
	c := NewCatalog(Mode{ID: "ocr", Prompt: "custom"})
	assert.Equal(t, "custom", c.Get("ocr").Prompt)
	assert.False(t, c.Get("ocr").ImageOriented)

	c.Register(Mode{ID: "ocr", Prompt: "again", ImageOriented: true})
	assert.True(t, c.Get("ocr").ImageOriented)
}
