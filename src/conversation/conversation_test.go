package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var restoredAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// refRecorder counts reference updates per content string.
type refRecorder struct {
	counts map[string]int
}

func newRefRecorder() *refRecorder {
	return &refRecorder{counts: make(map[string]int)}
}

func (r *refRecorder) UpdateRefsFromContent(content string, increment bool) {
	if increment {
		r.counts[content]++
	} else {
		r.counts[content]--
	}
}

func TestAddMessageCountsCommittedOnly(t *testing.T) {
	refs := newRefRecorder()
	conv := New("", refs)

	user := NewMessage(aisdk.RoleUser, "hello ![x](temp:1)")
	conv.AddMessage(user)
	conv.AddMessage(NewTypingMessage())

	assert.Equal(t, 1, refs.counts[user.Content])
	assert.Equal(t, 1, conv.Len())
	assert.Len(t, conv.Messages(), 2)
	assert.Len(t, conv.Committed(), 1)
	assert.Equal(t, "hello ![x](temp:1)", conv.Title)
}

func TestRemoveTyping(t *testing.T) {
	conv := New("t", nil)
	conv.AddMessage(NewMessage(aisdk.RoleUser, "a"))
	conv.AddMessage(NewTypingMessage())
	conv.AddMessage(NewTypingMessage())

	assert.Equal(t, 2, conv.RemoveTyping())
	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsTyping)
}

func TestRemoveAndEditMessageAreSymmetric(t *testing.T) {
	refs := newRefRecorder()
	conv := New("", refs)
	msg := NewMessage(aisdk.RoleUser, "old ![x](temp:1)")
	conv.AddMessage(msg)

	require.NoError(t, conv.EditMessage(msg.ID, "new ![y](temp:2)"))
	assert.Equal(t, 0, refs.counts["old ![x](temp:1)"])
	assert.Equal(t, 1, refs.counts["new ![y](temp:2)"])

	removed, err := conv.RemoveMessage(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "new ![y](temp:2)", removed.Content)
	assert.Equal(t, 0, refs.counts["new ![y](temp:2)"])
	assert.True(t, conv.IsEmpty())

	_, err = conv.RemoveMessage(msg.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.ErrorIs(t, conv.EditMessage("nope", "x"), ErrMessageNotFound)
}

func TestTitleTruncated(t *testing.T) {
	conv := New("", nil)
	conv.AddMessage(NewMessage(aisdk.RoleUser, strings.Repeat("é", 80)))
	assert.Equal(t, strings.Repeat("é", 50)+"...", conv.Title)
}

func TestStoreCurrentAndSwitch(t *testing.T) {
	refs := newRefRecorder()
	s := NewStore(refs, nil)

	first := s.Current()
	require.NotNil(t, first)
	assert.Same(t, first, s.Current())

	second := s.Create("second")
	assert.Same(t, second, s.Current())

	got, err := s.Get(first.ID)
	require.NoError(t, err)
	assert.Same(t, first, got, "old conversation stays in memory")

	_, err = s.SetCurrent(first.ID)
	require.NoError(t, err)
	assert.Same(t, first, s.Current())

	_, err = s.SetCurrent("missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Len(t, s.List(), 2)
}

func TestStoreRemoveReleasesRefs(t *testing.T) {
	refs := newRefRecorder()
	s := NewStore(refs, nil)
	conv := s.Create("")
	conv.AddMessage(NewMessage(aisdk.RoleUser, "a ![x](temp:1)"))
	conv.AddMessage(NewMessage(aisdk.RoleAssistant, "reply"))

	require.NoError(t, s.Remove(conv.ID))
	assert.Equal(t, 0, refs.counts["a ![x](temp:1)"])
	assert.Equal(t, 0, refs.counts["reply"])
	assert.ErrorIs(t, s.Remove(conv.ID), ErrConversationNotFound)
}

func TestStoreAdopt(t *testing.T) {
	refs := newRefRecorder()
	s := NewStore(refs, nil)

	restored := Restore("conv-1", "restored", restoredAt, restoredAt, "ocr")
	s.Adopt(restored, []*Message{
		NewMessage(aisdk.RoleUser, "q"),
		NewMessage(aisdk.RoleAssistant, "a"),
	})

	assert.Same(t, restored, s.Current())
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, "ocr", restored.GetLastModeUsed())
	assert.Equal(t, restoredAt, restored.LastUpdated)
	assert.Equal(t, 1, refs.counts["q"])
}
