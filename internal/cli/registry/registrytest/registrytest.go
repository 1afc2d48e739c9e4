// Package registrytest provides a scripted Steam fake and a runner for
// exercising command descriptors end to end without the network.
package registrytest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fatih/color"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/core/config"
	"github.com/hieropold/trogue/internal/core/steam"
)

// TestConfig is the configuration handed to handlers by Run.
var TestConfig = config.Config{APIKey: "test_key", SteamID: "76561197960287930"}

// FakeSteam implements registry.SteamAPI from in-memory fixtures.
// It is safe for concurrent use.
type FakeSteam struct {
	Games        []steam.Game
	Achievements map[uint32]steam.AchievementList
	Global       map[uint32]map[string]float64

	GamesErr        error
	AchievementsErr map[uint32]error
	GlobalErr       map[uint32]error

	mu    sync.Mutex
	calls []string
}

var _ registry.SteamAPI = (*FakeSteam)(nil)

func (f *FakeSteam) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns the recorded calls, e.g. "GetAchievements(220)".
func (f *FakeSteam) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSteam) GetOwnedGames(ctx context.Context, steamID string) ([]steam.Game, error) {
	f.record("GetOwnedGames")
	if f.GamesErr != nil {
		return nil, f.GamesErr
	}
	return append([]steam.Game(nil), f.Games...), nil
}

func (f *FakeSteam) GetRecentlyPlayedGames(ctx context.Context, steamID string, limit int) ([]steam.Game, error) {
	f.record(fmt.Sprintf("GetRecentlyPlayedGames(%d)", limit))
	if f.GamesErr != nil {
		return nil, f.GamesErr
	}
	return steam.MostRecentlyPlayed(f.Games, limit), nil
}

func (f *FakeSteam) GetAchievements(ctx context.Context, appID uint32, steamID string) (steam.AchievementList, error) {
	f.record(fmt.Sprintf("GetAchievements(%d)", appID))
	if err := f.AchievementsErr[appID]; err != nil {
		return steam.AchievementList{}, err
	}
	return f.Achievements[appID], nil
}

func (f *FakeSteam) GetGlobalAchievementPercentages(ctx context.Context, appID uint32) (map[string]float64, error) {
	f.record(fmt.Sprintf("GetGlobalAchievementPercentages(%d)", appID))
	if err := f.GlobalErr[appID]; err != nil {
		return nil, err
	}
	return f.Global[appID], nil
}

// Result is what one Run produced.
type Result struct {
	Stdout   string
	Stderr   string
	Err      error
	EnvLoads int
}

// Run builds an application from descriptors and runs it with args
// (without the program name). Color is disabled for the duration of the test.
func Run(t *testing.T, api registry.SteamAPI, descriptors []registry.Descriptor, args ...string) Result {
	t.Helper()
	return RunWith(t, registry.Options{}, api, descriptors, args...)
}

// RunWith is Run with extra application options. Stdout, Stderr and
// LoadEnv are always replaced.
func RunWith(t *testing.T, opts registry.Options, api registry.SteamAPI, descriptors []registry.Descriptor, args ...string) Result {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var stdout, stderr bytes.Buffer
	var res Result

	reg, err := registry.New(descriptors...)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	if opts.Name == "" {
		opts.Name = "trogue"
	}
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	opts.LoadEnv = func(context.Context) (*registry.Env, error) {
		res.EnvLoads++
		return &registry.Env{Config: TestConfig, Steam: api}, nil
	}

	app := reg.App(opts)
	res.Err = app.RunContext(context.Background(), append([]string{opts.Name}, args...))
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}
