package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/app"
	"github.com/elee1766/lenschat/src/conversation"
	"github.com/elee1766/lenschat/src/providers"
)

// HistoryCmd lists stored conversations
type HistoryCmd struct {
	Limit  int    `short:"n" default:"20" help:"Maximum conversations to list (0 for all)"`
	Format string `enum:"table,json" default:"table" help:"Output format (table, json)"`
}

// Run executes the history command
func (c *HistoryCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireStorage(a); err != nil {
		return err
	}

	list, err := a.Storage.ListConversations(ctx, c.Limit)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		_, err := fmt.Fprintln(kctx.Stdout, mutedStyle.Render("no stored conversations"))
		return err
	}
	t := newTable("ID", "TITLE", "MESSAGES", "MODE", "UPDATED")
	for _, conv := range list {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		t.Row(conv.ID, title, strconv.Itoa(conv.MessageCount), conv.LastModeUsed, conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_, err = fmt.Fprintln(kctx.Stdout, t.Render())
	return err
}

// ShowCmd prints a stored conversation
type ShowCmd struct {
	ID     string `arg:"" help:"Conversation id"`
	Format string `enum:"text,json" default:"text" help:"Output format (text, json)"`
}

// Run executes the show command
func (c *ShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireStorage(a); err != nil {
		return err
	}

	conv, messages, err := a.Storage.LoadConversation(ctx, c.ID)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*conversation.Conversation
			Messages []*conversation.Message `json:"messages"`
		}{conv, messages})
	}
	return printTranscript(kctx.Stdout, conv, messages)
}

// printTranscript renders a conversation as labelled turns.
func printTranscript(w io.Writer, conv *conversation.Conversation, messages []*conversation.Message) error {
	title := conv.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintln(w, headerStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render(conv.ID+"  "+conv.CreatedAt.Local().Format("2006-01-02 15:04")))

	for _, m := range messages {
		fmt.Fprintln(w)
		label := botLabelStyle.Render(string(m.Role))
		if m.Role == aisdk.RoleUser {
			label = userLabelStyle.Render(string(m.Role))
		}
		fmt.Fprintln(w, label+" "+mutedStyle.Render(m.Timestamp.Local().Format("15:04")))

		if m.IsError() {
			fmt.Fprintln(w, errorStyle.Render(m.Content))
			continue
		}
		thinking, reply := providers.SplitThinking(m.Content)
		if thinking != "" {
			fmt.Fprintln(w, thinkingStyle.Render(thinking))
		}
		if _, err := fmt.Fprintln(w, reply); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCmd removes a stored conversation
type DeleteCmd struct {
	ID string `arg:"" help:"Conversation id"`
}

// Run executes the delete command
func (c *DeleteCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireStorage(a); err != nil {
		return err
	}

	if err := a.Storage.DeleteConversation(ctx, c.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(kctx.Stdout, "deleted %s\n", c.ID)
	return err
}
