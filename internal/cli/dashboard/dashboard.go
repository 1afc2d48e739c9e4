package dashboard

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hieropold/trogue/internal/cli/progress"
	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/core/steam"
	"github.com/hieropold/trogue/internal/ui"
)

const (
	// GameCount is the number of recently played games on the dashboard.
	GameCount = 10
	// UnavailableMessage replaces the bar of a game whose achievements could not be fetched.
	UnavailableMessage = "achievement data unavailable"

	maxConcurrentRequests = 4
)

// DashboardCmd renders progress bars for the most recently played games.
var DashboardCmd = registry.Descriptor{
	Name:  "dashboard",
	Usage: fmt.Sprintf("Shows achievement progress for the %d most recently played games", GameCount),
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "width",
			Usage: "Bar width in `COLUMNS` (default: half the terminal width)",
		},
	},
	NeedsSteam: true,
	Handler:    run,
}

type entry struct {
	game         steam.Game
	achievements []steam.Achievement
	err          error
}

func run(inv *registry.Invocation) error {
	width, err := progress.BarWidth(inv)
	if err != nil {
		return err
	}

	env, err := inv.Env()
	if err != nil {
		return err
	}

	games, err := env.Steam.GetRecentlyPlayedGames(inv.Context, env.Config.SteamID, GameCount)
	if err != nil {
		return fmt.Errorf("failed to list recently played games: %w", err)
	}

	entries := collect(inv, env, games)

	// The rule spans the bracketed bars below it.
	for _, line := range ui.DashboardHeader(width + 2) {
		_, _ = fmt.Fprintln(inv.Out, line)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(inv.Out, "No recently played games.")
		return nil
	}

	warn := color.New(color.FgYellow).SprintFunc()
	for _, e := range entries {
		_, _ = fmt.Fprintln(inv.Out)
		if e.err != nil {
			_, _ = fmt.Fprintln(inv.Out, color.New(color.FgWhite, color.Bold).Sprint(e.game.Name))
			_, _ = fmt.Fprintln(inv.Out, warn(UnavailableMessage))
			continue
		}
		progress.WriteBlock(inv.Out, e.game.Name, e.achievements, width)
	}
	return nil
}

// collect fetches achievements for every game concurrently. Results keep the
// order of games; a failed fetch only marks its own entry.
func collect(inv *registry.Invocation, env *registry.Env, games []steam.Game) []entry {
	entries := make([]entry, len(games))
	g, ctx := errgroup.WithContext(inv.Context)
	g.SetLimit(maxConcurrentRequests)

	for i, game := range games {
		entries[i].game = game
		g.Go(func() error {
			list, err := env.Steam.GetAchievements(ctx, game.ID, env.Config.SteamID)
			if err != nil {
				inv.Logger.Warn("skipping achievements for game", "game_id", game.ID, "game", game.Name, "error", err)
				entries[i].err = err
				return nil
			}
			entries[i].achievements = list.Achievements
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()
	return entries
}
