// Command trogue shows Steam games and achievement progress in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/hieropold/trogue/internal/cli/achievements"
	"github.com/hieropold/trogue/internal/cli/completions"
	"github.com/hieropold/trogue/internal/cli/dashboard"
	"github.com/hieropold/trogue/internal/cli/list"
	"github.com/hieropold/trogue/internal/cli/progress"
	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/cli/self"
	"github.com/hieropold/trogue/internal/core/config"
	"github.com/hieropold/trogue/internal/core/steam"
	"github.com/hieropold/trogue/internal/ui"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// commands is the fixed set of trogue subcommands.
func commands() []registry.Descriptor {
	return []registry.Descriptor{
		list.ListCmd,
		achievements.AchievementsCmd,
		progress.ProgressCmd,
		dashboard.DashboardCmd,
		completions.CompletionsCmd,
		self.NewSelfCommand(self.GitHubUpdater),
	}
}

// run executes one invocation and returns the process exit code.
// steamOpts are applied to the Steam client when a command needs one.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, steamOpts ...steam.Option) int {
	// Variables already set in the environment take precedence over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "Warning: could not read .env file: %v\n", err)
	}

	reg := registry.MustNew(commands()...)
	app := reg.App(registry.Options{
		Name:          "trogue",
		Usage:         "Track Steam games and achievement progress",
		Version:       version,
		Stdin:         stdin,
		Stdout:        stdout,
		Stderr:        stderr,
		TerminalWidth: terminalWidth(stdout),
		LoadEnv: func(context.Context) (*registry.Env, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			opts := append([]steam.Option{steam.WithUserAgent("trogue/" + version)}, steamOpts...)
			return &registry.Env{Config: cfg, Steam: steam.NewClient(cfg.APIKey, opts...)}, nil
		},
	})

	if err := app.RunContext(ctx, args); err != nil {
		_, _ = fmt.Fprintln(stderr, registry.Describe(app.Name, err))
		return registry.ExitCode(err)
	}
	return registry.ExitOK
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return ui.TerminalWidth(f)
	}
	return ui.DefaultTerminalWidth
}
