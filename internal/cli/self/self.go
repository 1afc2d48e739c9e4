package self

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/cli/registry"
)

// DefaultRepository is the GitHub repository release binaries are fetched from.
const DefaultRepository = "hieropold/trogue"

// Updater is the part of selfupdate.Updater the update command uses.
type Updater interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

// NewUpdaterFunc builds the Updater used by "self update".
type NewUpdaterFunc func() (Updater, error)

// GitHubUpdater checks GitHub releases.
func GitHubUpdater() (Updater, error) {
	// For standard GitHub, GitHubConfig can be empty.
	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("error creating GitHub source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize updater: %w", err)
	}
	return updater, nil
}

// NewSelfCommand creates the command for managing the trogue binary itself.
func NewSelfCommand(newUpdater NewUpdaterFunc) registry.Descriptor {
	if newUpdater == nil {
		newUpdater = GitHubUpdater
	}
	return registry.Descriptor{
		Name:  "self",
		Usage: "Manage the trogue CLI application itself",
		Subcommands: []registry.Descriptor{
			{
				Name:  "update",
				Usage: "Update trogue to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Custom GitHub update source as `owner/repo`",
						Value: DefaultRepository,
					},
				},
				// Prints progress and may prompt for confirmation.
				Streaming: true,
				Handler: func(inv *registry.Invocation) error {
					return update(inv, newUpdater)
				},
			},
		},
	}
}

func update(inv *registry.Invocation, newUpdater NewUpdaterFunc) error {
	c := inv.CLI
	log := inv.Logger
	currentVersionStr := c.App.Version
	log.Debug("current version", "version", currentVersionStr)

	currentSemVer, err := semver.NewVersion(strings.TrimPrefix(currentVersionStr, "v"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error parsing current version '%s': %v. Ensure version is like vX.Y.Z or X.Y.Z.", currentVersionStr, err), 1)
	}

	repoSlug := c.String("source")
	parts := strings.Split(repoSlug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return registry.Usagef("self update", "invalid --source format, expected 'owner/repo', got: %s", repoSlug)
	}
	log.Debug("using GitHub source", "repository", repoSlug)

	updater, err := newUpdater()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	log.Debug("checking for latest version")
	latestRelease, found, err := updater.DetectLatest(inv.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found {
		_, _ = fmt.Fprintf(inv.Out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}
	log.Debug("latest version detected", "version", latestRelease.Version(), "url", latestRelease.URL, "asset", latestRelease.AssetURL)

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(inv.Out, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}

	_, _ = fmt.Fprintf(inv.Out, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)
	if latestRelease.ReleaseNotes != "" {
		log.Debug("release notes", "notes", latestRelease.ReleaseNotes)
	}

	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") {
		_, _ = fmt.Fprint(inv.Out, "Do you want to update? (y/N): ")
		input, _ := bufio.NewReader(inv.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(input)) != "y" {
			_, _ = fmt.Fprintln(inv.Out, "Update cancelled.")
			return nil
		}
	}

	_, _ = fmt.Fprintf(inv.Out, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	log.Debug("current executable", "path", execPath)

	if err := updater.UpdateTo(inv.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(inv.Out, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
