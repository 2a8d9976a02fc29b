package imagestore

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pixel = "data:image/png;base64,iVBORw0KGgo="

func TestAddAndGet(t *testing.T) {
	s := New(nil)
	id := s.AddTempImage(pixel, SourcePaste, "shot.png")

	rec := s.GetTempImageData(id)
	require.NotNil(t, rec)
	assert.Equal(t, pixel, rec.DataURI)
	assert.Equal(t, SourcePaste, rec.Source)
	assert.Equal(t, "shot.png", rec.FileName)
	assert.Equal(t, 0, rec.RefCount)

	assert.Nil(t, s.GetTempImageData("missing"))
}

func TestRefsInContent(t *testing.T) {
	content := "look ![a](temp:abc-1) and ![b](temp:def_2) and again ![a](temp:abc-1) ![c](notes/x.png)"
	assert.Equal(t, []string{"abc-1", "def_2", "abc-1"}, RefsInContent(content))
	assert.Empty(t, RefsInContent("no images here"))
}

func TestParseRef(t *testing.T) {
	id, ok := ParseRef(Ref("abc"))
	require.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = ParseRef("notes/temp:abc")
	assert.False(t, ok)
}

func TestUpdateRefsFromContent(t *testing.T) {
	s := New(nil)
	id := s.AddTempImage(pixel, SourceDrop, "")
	content := "![img](" + Ref(id) + ")"

	s.UpdateRefsFromContent(content, true)
	s.UpdateRefsFromContent(content, true)
	assert.Equal(t, 2, s.GetTempImageData(id).RefCount)

	s.UpdateRefsFromContent(content, false)
	require.NotNil(t, s.GetTempImageData(id))
	assert.Equal(t, 1, s.GetTempImageData(id).RefCount)

	s.UpdateRefsFromContent(content, false)
	assert.Nil(t, s.GetTempImageData(id))

	// decrementing an evicted record is a no-op
	s.UpdateRefsFromContent(content, false)
	assert.Equal(t, 0, s.Len())
}

func TestRemoveRefDiscardsPendingPreview(t *testing.T) {
	s := New(nil)
	id := s.AddTempImage(pixel, SourceScreenshot, "")
	s.RemoveRef(id)
	assert.Nil(t, s.GetTempImageData(id))
}

func TestRefCountNeverNegative(t *testing.T) {
	s := New(nil)
	rng := rand.New(rand.NewSource(42))

	ids := make([]string, 5)
	counts := make(map[string]int)
	evicted := make(map[string]bool)
	for i := range ids {
		ids[i] = s.AddTempImage(pixel, SourcePaste, "")
	}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		inc := rng.Intn(2) == 0
		s.UpdateRefsFromContent("![x]("+Ref(id)+")", inc)

		if !evicted[id] {
			if inc {
				counts[id]++
			} else {
				counts[id]--
				if counts[id] <= 0 {
					evicted[id] = true
				}
			}
		}

		rec := s.GetTempImageData(id)
		if evicted[id] {
			assert.Nil(t, rec, "evicted record must stay unreachable")
			continue
		}
		require.NotNil(t, rec)
		assert.GreaterOrEqual(t, rec.RefCount, 0)
		assert.Equal(t, counts[id], rec.RefCount)
	}
}
