package main

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/elee1766/lenschat/src/app"
)

// PromptCmd represents the single prompt command
type PromptCmd struct {
	Text         []string `arg:"" optional:"" help:"The prompt text to send"`
	Image        []string `short:"i" type:"existingfile" help:"Image file to attach (repeatable)"`
	Model        string   `short:"m" help:"Model id from the configuration (defaults to default_model)"`
	Mode         string   `help:"Mode whose prompt is applied (default, analyze, ocr, describe, summarize, code, or a configured one)"`
	Conversation string   `short:"r" help:"Continue a stored conversation by id"`
	Output       string   `short:"o" enum:"text,json" default:"text" help:"Output format (text, json)"`
	Raw          bool     `help:"Print the reply without styling or thinking"`
}

func (p *PromptCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, logger, err := openApp(ctx, cli, app.Options{
		ModelID: p.Model,
		Mode:    p.Mode,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	return RunPrompt(ctx, a, kctx.Stdout, RunPromptParams{
		Text:           strings.Join(p.Text, " "),
		Images:         p.Image,
		ConversationID: p.Conversation,
		Output:         p.Output,
		Raw:            p.Raw,
		Logger:         logger,
	})
}
