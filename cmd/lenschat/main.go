package main

import (
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `short:"c" type:"path" help:"Configuration file (defaults to the XDG config location)"`
	LogLevel string `default:"" help:"Log level (debug, info, warn, error); overrides the config file"`
	Database string `type:"path" help:"Conversation database path (defaults to config)"`

	Prompt  PromptCmd  `cmd:"" help:"Send a prompt, optionally with images"`
	Models  ModelsCmd  `cmd:"" help:"List configured models"`
	History HistoryCmd `cmd:"" help:"List stored conversations"`
	Show    ShowCmd    `cmd:"" help:"Print a stored conversation"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a stored conversation"`
	Migrate MigrateCmd `cmd:"" help:"Create or upgrade the conversation database"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("lenschat"),
		kong.Description("Chat with vision and text models about your images"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := ctx.Run(&cli); err != nil {
		os.Exit(reportError(err))
	}
}
