package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/elee1766/lenschat/src/app"
	"github.com/elee1766/lenschat/src/manager"
	"github.com/elee1766/lenschat/src/providers"
	"github.com/elee1766/lenschat/src/vault"
)

// RunPromptParams holds parameters for running a prompt
type RunPromptParams struct {
	Text           string
	Images         []string
	ConversationID string
	Output         string
	Raw            bool
	Logger         *slog.Logger
}

// promptResult is the JSON output of a prompt.
type promptResult struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id,omitempty"`
	Model          string `json:"model,omitempty"`
	Thinking       string `json:"thinking,omitempty"`
	Reply          string `json:"reply,omitempty"`
	Error          string `json:"error,omitempty"`
}

// RunPrompt attaches the images by path, sends one turn and writes the reply to w.
func RunPrompt(ctx context.Context, a *app.App, w io.Writer, params RunPromptParams) error {
	logger := params.Logger
	if logger == nil {
		logger = a.Logger
	}

	if params.ConversationID != "" {
		if _, err := a.ResumeConversation(ctx, params.ConversationID); err != nil {
			return err
		}
	}

	// Images are committed as path refs rather than temp refs so a later
	// process resuming the conversation can still load them.
	var refs []string
	for _, path := range params.Images {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if _, err := a.Vault.LoadImageAsDataURI(ctx, abs); err != nil {
			return err
		}
		refs = append(refs, vault.PathRef(abs))
		logger.Debug("image attached", "path", abs)
	}

	reply, sendErr := a.Manager.Send(ctx, manager.SendRequest{Text: params.Text, ImageURIs: refs})

	result := promptResult{ConversationID: a.Manager.Current().ID}
	if model := a.Manager.Model(); model != nil {
		result.Model = model.ID
	}
	if sendErr != nil {
		result.Error = sendErr.Error()
	} else {
		result.MessageID = reply.ID
		result.Thinking, result.Reply = providers.SplitThinking(reply.Content)
	}

	if params.Output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		return sendErr
	}

	if sendErr != nil {
		return sendErr
	}
	if params.Raw {
		_, err := fmt.Fprintln(w, result.Reply)
		return err
	}
	if result.Thinking != "" {
		fmt.Fprintln(w, thinkingStyle.Render(result.Thinking))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, result.Reply)
	fmt.Fprintln(w, mutedStyle.Render("conversation "+result.ConversationID))
	return nil
}
