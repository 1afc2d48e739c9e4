package list

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/ui"
)

// ListCmd lists the owned games, optionally filtered by name.
var ListCmd = registry.Descriptor{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Lists owned games",
	Description: "Lists every game owned by the configured Steam account.\n\n" +
		"Pattern tokens for --pattern:\n" + ui.GameTokens.Help(),
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "Only show games whose name contains `TEXT` (case-insensitive)",
		},
		&cli.StringFlag{
			Name:    "pattern",
			Aliases: []string{"p"},
			Usage:   "Row `FORMAT`, e.g. \"i - n\"",
			Value:   ui.DefaultGamePattern,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output `FORMAT`: text, json or toml",
			Value:   string(ui.FormatText),
		},
	},
	NeedsSteam: true,
	Handler:    run,
}

func run(inv *registry.Invocation) error {
	c := inv.CLI

	format, err := ui.ParseFormat(c.String("output"))
	if err != nil {
		return registry.AsUsage("list", err)
	}
	pattern, err := ui.ParsePattern(c.String("pattern"), ui.GameTokens)
	if err != nil {
		return registry.AsUsage("list", err)
	}
	filter := c.String("filter")

	env, err := inv.Env()
	if err != nil {
		return err
	}

	games, err := env.Steam.GetOwnedGames(inv.Context, env.Config.SteamID)
	if err != nil {
		return fmt.Errorf("failed to list owned games: %w", err)
	}
	games = ui.FilterGames(games, filter)
	inv.Logger.Debug("listing games", "count", len(games), "filter", filter)

	if format != ui.FormatText {
		return ui.Export(inv.Out, format, "games", games)
	}

	headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
	if filter == "" {
		_, _ = fmt.Fprintln(inv.Out, headerColor("Displaying all games:"))
	} else {
		_, _ = fmt.Fprintln(inv.Out, headerColor(fmt.Sprintf("Displaying games filtered by: %s", filter)))
	}

	if len(games) == 0 {
		if filter == "" {
			_, _ = fmt.Fprintln(inv.Out, "No games found for this account.")
		} else {
			_, _ = fmt.Fprintf(inv.Out, "No games match %q.\n", filter)
		}
		return nil
	}
	for _, line := range ui.GameLines(games, pattern) {
		_, _ = fmt.Fprintln(inv.Out, line)
	}
	return nil
}
