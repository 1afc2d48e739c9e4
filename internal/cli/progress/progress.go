package progress

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/core/steam"
	"github.com/hieropold/trogue/internal/ui"
)

// NoAchievementsMessage is printed in place of a bar for games without achievements.
const NoAchievementsMessage = "No achievements found for this game"

// ProgressCmd shows the achievement completion of one game as a bar.
var ProgressCmd = registry.Descriptor{
	Name:  "progress",
	Usage: "Shows achievement progress for a game",
	Args:  []registry.Arg{{Name: "game_id", Required: true}},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "width",
			Usage: "Bar width in `COLUMNS` (default: half the terminal width)",
		},
	},
	NeedsSteam: true,
	Handler:    run,
}

func run(inv *registry.Invocation) error {
	width, err := BarWidth(inv)
	if err != nil {
		return err
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

	title := list.GameName
	if title == "" {
		title = fmt.Sprintf("Game %d", appID)
	}
	WriteBlock(inv.Out, title, list.Achievements, width)
	return nil
}

// BarWidth resolves the --width flag against the terminal width.
func BarWidth(inv *registry.Invocation) (int, error) {
	if !inv.CLI.IsSet("width") {
		return ui.BarWidth(inv.TerminalWidth), nil
	}
	w := inv.CLI.Int("width")
	if w <= 0 {
		return 0, registry.Usagef(inv.CLI.Command.Name, "--width must be positive, got %d", w)
	}
	return w, nil
}

// WriteBlock writes the game title followed by its progress line.
func WriteBlock(w io.Writer, title string, achievements []steam.Achievement, width int) {
	titleColor := color.New(color.FgWhite, color.Bold).SprintFunc()
	_, _ = fmt.Fprintln(w, titleColor(title))
	unlocked, total := steam.CountUnlocked(achievements)
	if total == 0 {
		_, _ = fmt.Fprintln(w, NoAchievementsMessage)
		return
	}
	_, _ = fmt.Fprintln(w, ui.ProgressLine(unlocked, total, width))
}
