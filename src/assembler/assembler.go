// Package assembler builds the bounded, provider-neutral message list sent for a
// conversation turn.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/conversation"
	"github.com/elee1766/lenschat/src/imagestore"
	"github.com/elee1766/lenschat/src/modes"
)

// DefaultSystemPrompt is used when no global system prompt is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// Strategy selects which historical messages enter the context.
type Strategy string

const (
	// StrategyRecent keeps the most recent messages.
	StrategyRecent Strategy = "recent"
	// StrategySmart keeps the most recent image-bearing messages first and fills
	// the rest with the most recent text-only messages.
	StrategySmart Strategy = "smart"
)

// ErrNoModel is returned when a context is built without a model configuration.
var ErrNoModel = errors.New("no model configured")

// Settings control context selection.
type Settings struct {
	SystemPrompt        string
	IncludeSystemPrompt bool
	MaxContextMessages  int
	MaxContextImages    int
	Strategy            Strategy
}

// TempImageSource looks up temporary images.
type TempImageSource interface {
	GetTempImageData(id string) *imagestore.Record
}

// Request is the input of a single context build.
type Request struct {
	// Conversation is the history to draw from. It may be nil.
	Conversation *conversation.Conversation
	// Text is the user's message for the current turn.
	Text string
	// ImageURIs are the images attached to the current turn.
	ImageURIs []string
	Model     *aisdk.ModelConfig
	// Mode is the selected mode id.
	Mode string
	// ApplyModePrompt enables the mode prompt policy for this build.
	ApplyModePrompt bool
}

// Assembler builds context message lists.
type Assembler struct {
	settings Settings
	images   TempImageSource
	loader   aisdk.ImageLoader
	modes    *modes.Catalog
	logger   *slog.Logger
}

// New creates an assembler. loader may be nil, in which case path references
// are skipped.
func New(settings Settings, images TempImageSource, loader aisdk.ImageLoader, catalog *modes.Catalog, logger *slog.Logger) *Assembler {
	if catalog == nil {
		catalog = modes.NewCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		settings: settings,
		images:   images,
		loader:   loader,
		modes:    catalog,
		logger:   logger.With("component", "context_assembler"),
	}
}

// Settings returns the active settings.
func (a *Assembler) Settings() Settings {
	return a.settings
}

// SetSettings replaces the settings used by later builds.
func (a *Assembler) SetSettings(s Settings) {
	a.settings = s
}

// BuildContextMessages assembles the ordered message list for the current turn:
// the global system prompt, the selected history, the mode prompt when the
// policy applies it, and the current user turn. Applying a mode prompt records
// it as the conversation's last used mode.
func (a *Assembler) BuildContextMessages(ctx context.Context, req Request) ([]*aisdk.Message, error) {
	if req.Model == nil {
		return nil, ErrNoModel
	}
	logger := a.logger.With("model", req.Model.ModelID)

	var out []*aisdk.Message
	if a.settings.IncludeSystemPrompt {
		prompt := a.settings.SystemPrompt
		if strings.TrimSpace(prompt) == "" {
			prompt = DefaultSystemPrompt
		}
		out = append(out, aisdk.NewTextMessage(aisdk.RoleSystem, prompt))
	}

	vision := req.Model.IsVisionCapable
	current := a.resolveCurrentImages(ctx, req.ImageURIs, vision, logger)

	if req.Conversation != nil {
		history := a.selectHistory(eligibleHistory(req.Conversation.Committed()))
		historyBudget := max(0, a.settings.MaxContextImages-len(current))
		out = append(out, a.renderHistory(ctx, history, vision, historyBudget, logger)...)
	}

	if req.ApplyModePrompt {
		if mode := a.modes.Get(req.Mode); a.shouldApplyMode(req.Conversation, mode, len(req.ImageURIs) > 0) {
			out = append(out, aisdk.NewTextMessage(aisdk.RoleSystem, mode.Prompt))
			if req.Conversation != nil {
				req.Conversation.SetLastModeUsed(mode.ID)
			}
			logger.Debug("mode prompt applied", "mode", mode.ID)
		}
	}

	out = append(out, aisdk.NewMultimodalMessage(aisdk.RoleUser, req.Text, current))

	logger.Debug("context assembled",
		"messages", len(out),
		"images", aisdk.CountImages(out),
		"strategy", a.settings.Strategy)
	return out, nil
}

// eligibleHistory drops typing placeholders and recorded errors.
func eligibleHistory(msgs []*conversation.Message) []*conversation.Message {
	out := make([]*conversation.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsTyping || m.IsError() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// selectHistory applies the context strategy. The result is chronological.
func (a *Assembler) selectHistory(msgs []*conversation.Message) []*conversation.Message {
	maxMessages := max(0, a.settings.MaxContextMessages)

	if a.settings.Strategy != StrategySmart {
		if len(msgs) > maxMessages {
			msgs = msgs[len(msgs)-maxMessages:]
		}
		return msgs
	}

	type indexed struct {
		idx int
		msg *conversation.Message
	}
	var withImages, textOnly []indexed
	for i, m := range msgs {
		if hasImageRefs(m.Content) {
			withImages = append(withImages, indexed{i, m})
		} else {
			textOnly = append(textOnly, indexed{i, m})
		}
	}

	if n := max(0, a.settings.MaxContextImages); len(withImages) > n {
		withImages = withImages[len(withImages)-n:]
	}
	// a negative remainder (more image slots than message slots) selects no text
	if remaining := max(0, maxMessages-len(withImages)); len(textOnly) > remaining {
		textOnly = textOnly[len(textOnly)-remaining:]
	}

	selected := append(withImages, textOnly...)
	sort.SliceStable(selected, func(i, j int) bool {
		ti, tj := selected[i].msg.Timestamp, selected[j].msg.Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return selected[i].idx < selected[j].idx
	})

	out := make([]*conversation.Message, len(selected))
	for i, s := range selected {
		out[i] = s.msg
	}
	return out
}

// renderHistory converts history into neutral messages, resolving at most
// budget images. The newest messages get images first, whatever their role.
// Images from a non-user message follow it as a user turn.
func (a *Assembler) renderHistory(ctx context.Context, history []*conversation.Message, vision bool, budget int, logger *slog.Logger) []*aisdk.Message {
	resolved := make([][]aisdk.ImageContent, len(history))
	if vision {
		for i := len(history) - 1; i >= 0 && budget > 0; i-- {
			m := history[i]
			for _, ref := range findImageRefs(m.Content) {
				if budget == 0 {
					break
				}
				img, err := a.resolveRef(ctx, ref.Target)
				if err != nil {
					logger.Warn("skipping unresolvable image", "message_id", m.ID, "ref", truncateRef(ref.Target), "error", err)
					continue
				}
				img.Label = ref.Label
				resolved[i] = append(resolved[i], img)
				budget--
			}
		}
	}

	out := make([]*aisdk.Message, 0, len(history))
	for i, m := range history {
		text := m.Content
		if hasImageRefs(text) {
			text = stripImageRefs(text)
		}
		if text == "" && len(resolved[i]) == 0 {
			continue
		}
		if m.Role != aisdk.RoleUser && len(resolved[i]) > 0 {
			// providers only accept images in user turns
			if text != "" {
				out = append(out, aisdk.NewTextMessage(m.Role, text))
			}
			out = append(out, aisdk.NewMultimodalMessage(aisdk.RoleUser, "", resolved[i]))
			continue
		}
		out = append(out, aisdk.NewMultimodalMessage(m.Role, text, resolved[i]))
	}
	return out
}

// resolveCurrentImages resolves the current turn's images, capped at the image
// limit. Non-vision models get none.
func (a *Assembler) resolveCurrentImages(ctx context.Context, uris []string, vision bool, logger *slog.Logger) []aisdk.ImageContent {
	if len(uris) == 0 {
		return nil
	}
	if !vision {
		logger.Debug("model is not vision capable, sending text only", "dropped_images", len(uris))
		return nil
	}

	limit := max(0, a.settings.MaxContextImages)
	var images []aisdk.ImageContent
	for _, uri := range uris {
		if len(images) >= limit {
			logger.Warn("image limit reached, dropping attachments", "limit", limit, "attached", len(uris))
			break
		}
		img, err := a.resolveRef(ctx, uri)
		if err != nil {
			logger.Warn("skipping unresolvable image", "ref", truncateRef(uri), "error", err)
			continue
		}
		images = append(images, img)
	}
	return images
}

// resolveRef turns a temp reference, data URI or file path into image content.
func (a *Assembler) resolveRef(ctx context.Context, target string) (aisdk.ImageContent, error) {
	if id, ok := imagestore.ParseRef(target); ok {
		if a.images == nil {
			return aisdk.ImageContent{}, errors.New("no temp image store")
		}
		rec := a.images.GetTempImageData(id)
		if rec == nil {
			return aisdk.ImageContent{}, fmt.Errorf("temp image %s not found", id)
		}
		return aisdk.ParseDataURI(rec.DataURI)
	}
	if aisdk.IsDataURI(target) {
		return aisdk.ParseDataURI(target)
	}
	if a.loader == nil {
		return aisdk.ImageContent{}, fmt.Errorf("no image loader for %s", target)
	}
	uri, err := a.loader.LoadImageAsDataURI(ctx, target)
	if err != nil {
		return aisdk.ImageContent{}, err
	}
	return aisdk.ParseDataURI(uri)
}

// shouldApplyMode decides whether the mode prompt is inserted for this turn.
func (a *Assembler) shouldApplyMode(conv *conversation.Conversation, mode *modes.Mode, hasImages bool) bool {
	if !mode.HasPrompt() {
		return false
	}
	if conv == nil {
		return true
	}
	last := conv.GetLastModeUsed()
	switch {
	case conv.IsEmpty() && last == "":
		return true
	case mode.ID != last:
		return true
	case mode.ImageOriented && hasImages:
		return true
	}
	return false
}

func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
