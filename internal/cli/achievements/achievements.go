package achievements

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/core/steam"
	"github.com/hieropold/trogue/internal/ui"
)

const name = "achievements"

// AchievementsCmd lists the player's achievements for one game.
var AchievementsCmd = registry.Descriptor{
	Name:    name,
	Aliases: []string{"ach"},
	Usage:   "Lists achievements for a game",
	Description: "Lists the achievements of <game_id> with their unlock status.\n\n" +
		"Pattern tokens for --pattern:\n" + ui.AchievementTokens.Help(),
	Args: []registry.Arg{{Name: "game_id", Required: true}},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "global",
			Aliases: []string{"g"},
			Usage:   "Show the percentage of all players that unlocked each achievement",
		},
		&cli.BoolFlag{
			Name:    "remaining",
			Aliases: []string{"r"},
			Usage:   "Only show locked achievements",
		},
		&cli.BoolFlag{
			Name:    "achieved",
			Aliases: []string{"a"},
			Usage:   "Only show unlocked achievements",
		},
		&cli.StringFlag{
			Name:    "pattern",
			Aliases: []string{"p"},
			Usage:   "Row `FORMAT` for every achievement, e.g. \"n (s)\"",
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
		return registry.AsUsage(name, err)
	}
	filter, err := statusFilter(c)
	if err != nil {
		return err
	}
	view := ui.AchievementView{ShowGlobal: c.Bool("global")}
	if c.IsSet("pattern") {
		view.Pattern, err = ui.ParsePattern(c.String("pattern"), ui.AchievementTokens)
		if err != nil {
			return registry.AsUsage(name, err)
		}
	}
	appID, err := inv.AppID("game_id")
	if err != nil {
		return err
	}

	env, err := inv.Env()
	if err != nil {
		return err
	}

	list, err := env.Steam.GetAchievements(inv.Context, appID, env.Config.SteamID)
	if err != nil {
		return fmt.Errorf("failed to fetch achievements for game %d: %w", appID, err)
	}

	achs := list.Achievements
	if wantsGlobal(view) && len(achs) > 0 {
		percentages, err := env.Steam.GetGlobalAchievementPercentages(inv.Context, appID)
		if err != nil {
			inv.Logger.Warn("global achievement percentages unavailable", "game_id", appID, "error", err)
		}
		achs = steam.JoinGlobalPercentages(achs, percentages)
	}
	unlocked, total := steam.CountUnlocked(achs)
	achs = ui.FilterAchievements(achs, filter)

	if format != ui.FormatText {
		return ui.Export(inv.Out, format, "achievements", achs)
	}

	if total == 0 {
		_, _ = fmt.Fprintln(inv.Out, "No achievements found for this game.")
		return nil
	}

	title := list.GameName
	if title == "" {
		title = fmt.Sprintf("game %d", appID)
	}
	headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
	_, _ = fmt.Fprintln(inv.Out, headerColor(fmt.Sprintf("Achievements for %s (%d/%d unlocked):", title, unlocked, total)))

	if len(achs) == 0 {
		switch filter {
		case ui.OnlyLocked:
			_, _ = fmt.Fprintln(inv.Out, "All achievements unlocked.")
		case ui.OnlyUnlocked:
			_, _ = fmt.Fprintln(inv.Out, "No achievements unlocked yet.")
		}
		return nil
	}
	for _, line := range ui.AchievementLines(achs, view) {
		_, _ = fmt.Fprintln(inv.Out, line)
	}
	return nil
}

// wantsGlobal reports whether the rows need global percentages, either as
// the --global suffix or through the g token of a custom pattern.
func wantsGlobal(view ui.AchievementView) bool {
	return view.ShowGlobal || view.Pattern.Uses('g')
}

func statusFilter(c *cli.Context) (ui.StatusFilter, error) {
	remaining, achieved := c.Bool("remaining"), c.Bool("achieved")
	switch {
	case remaining && achieved:
		return ui.AllAchievements, registry.Usagef(name, "--remaining and --achieved cannot be used together")
	case remaining:
		return ui.OnlyLocked, nil
	case achieved:
		return ui.OnlyUnlocked, nil
	default:
		return ui.AllAchievements, nil
	}
}
