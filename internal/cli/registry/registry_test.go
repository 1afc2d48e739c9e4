package registry_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/cli/registry/registrytest"
	"github.com/hieropold/trogue/internal/core/config"
	"github.com/hieropold/trogue/internal/core/steam"
)

// recorder counts handler invocations per command.
type recorder map[string]int

func (r recorder) descriptor(name string, needsSteam bool, args ...registry.Arg) registry.Descriptor {
	return registry.Descriptor{
		Name:       name,
		Usage:      name + " things",
		Args:       args,
		NeedsSteam: needsSteam,
		Handler: func(inv *registry.Invocation) error {
			if needsSteam {
				if _, err := inv.Env(); err != nil {
					return err
				}
			}
			r[name]++
			_, _ = fmt.Fprintf(inv.Out, "%s ran", name)
			return nil
		},
	}
}

func TestNew_DuplicateNames(t *testing.T) {
	rec := recorder{}
	tests := []struct {
		name  string
		descs []registry.Descriptor
		dup   string
	}{
		{"same name", []registry.Descriptor{rec.descriptor("list", false), rec.descriptor("list", false)}, "list"},
		{"alias clashes with name", []registry.Descriptor{
			rec.descriptor("list", false),
			{Name: "ls-remote", Aliases: []string{"list"}, Handler: func(*registry.Invocation) error { return nil }},
		}, "list"},
		{"reserved help", []registry.Descriptor{rec.descriptor("help", false)}, "help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.New(tt.descs...)
			var dupErr *registry.DuplicateCommandError
			require.True(t, errors.As(err, &dupErr), "got %v", err)
			assert.Equal(t, tt.dup, dupErr.Name)
		})
	}

	assert.Panics(t, func() { registry.MustNew(rec.descriptor("x", false), rec.descriptor("x", false)) })
}

func TestNew_DuplicateSubcommandNames(t *testing.T) {
	rec := recorder{}
	parent := registry.Descriptor{
		Name:        "self",
		Subcommands: []registry.Descriptor{rec.descriptor("update", false), rec.descriptor("update", false)},
	}

	_, err := registry.New(parent)
	var dupErr *registry.DuplicateCommandError
	require.True(t, errors.As(err, &dupErr), "got %v", err)
	assert.Equal(t, "update", dupErr.Name)
	assert.Contains(t, err.Error(), `"self"`)

	_, err = registry.New(registry.Descriptor{
		Name:        "self",
		Subcommands: []registry.Descriptor{{Name: "update"}},
	})
	assert.Error(t, err)

	// The same name may appear at different levels.
	_, err = registry.New(rec.descriptor("update", false), registry.Descriptor{
		Name:        "self",
		Subcommands: []registry.Descriptor{rec.descriptor("update", false)},
	})
	assert.NoError(t, err)
}

func TestNew_RejectsIncompleteDescriptors(t *testing.T) {
	_, err := registry.New(registry.Descriptor{Name: "nothing"})
	assert.Error(t, err)
	_, err = registry.New(registry.Descriptor{Handler: func(*registry.Invocation) error { return nil }})
	assert.Error(t, err)
}

func TestRegistry_OrderDoesNotMatter(t *testing.T) {
	rec := recorder{}
	a := registry.MustNew(rec.descriptor("progress", false), rec.descriptor("dashboard", false), rec.descriptor("list", false))
	b := registry.MustNew(rec.descriptor("list", false), rec.descriptor("progress", false), rec.descriptor("dashboard", false))

	assert.Equal(t, []string{"dashboard", "list", "progress"}, a.Names())
	assert.Equal(t, a.Names(), b.Names())

	d, ok := a.Lookup("list")
	require.True(t, ok)
	assert.Equal(t, "list", d.Name)
	_, ok = a.Lookup("missing")
	assert.False(t, ok)
}

func TestDispatch_RoutesToExactlyOneHandler(t *testing.T) {
	rec := recorder{}
	descs := []registry.Descriptor{rec.descriptor("list", true), rec.descriptor("dashboard", true)}

	res := registrytest.Run(t, &registrytest.FakeSteam{}, descs, "dashboard")
	require.NoError(t, res.Err)
	assert.Equal(t, "dashboard ran", res.Stdout)
	assert.Equal(t, recorder{"dashboard": 1}, rec)
	assert.Equal(t, 1, res.EnvLoads)
}

func TestDispatch_UnknownCommandCallsNoHandler(t *testing.T) {
	rec := recorder{}
	descs := []registry.Descriptor{rec.descriptor("list", true), rec.descriptor("dashboard", true)}

	res := registrytest.Run(t, &registrytest.FakeSteam{}, descs, "frobnicate")
	require.Error(t, res.Err)

	var usageErr *registry.UsageError
	require.True(t, errors.As(res.Err, &usageErr))
	assert.Contains(t, res.Err.Error(), `unknown command "frobnicate"`)
	assert.NotEqual(t, registry.ExitOK, registry.ExitCode(res.Err))
	assert.Empty(t, rec)
	assert.Zero(t, res.EnvLoads)
}

func TestDispatch_FlagAfterArgumentGetsHint(t *testing.T) {
	rec := recorder{}
	descs := []registry.Descriptor{
		rec.descriptor("progress", false, registry.Arg{Name: "game_id", Required: true}),
		rec.descriptor("dashboard", false),
	}

	res := registrytest.Run(t, nil, descs, "progress", "620", "--width")
	require.Error(t, res.Err)
	assert.Equal(t, registry.ExitUsage, registry.ExitCode(res.Err))
	assert.Equal(t, `progress: flag "--width" must come before <game_id>`, res.Err.Error())

	res = registrytest.Run(t, nil, descs, "progress", "620", "621")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), `unexpected argument "621"`)
	assert.Empty(t, rec)
}

func TestDispatch_MissingRequiredArgument(t *testing.T) {
	rec := recorder{}
	api := &registrytest.FakeSteam{}
	descs := []registry.Descriptor{rec.descriptor("progress", true, registry.Arg{Name: "game_id", Required: true})}

	res := registrytest.Run(t, api, descs, "progress")
	require.Error(t, res.Err)
	assert.Equal(t, registry.ExitUsage, registry.ExitCode(res.Err))
	assert.Contains(t, res.Err.Error(), "missing required argument <game_id>")
	assert.Empty(t, rec)
	assert.Empty(t, api.Calls())
	assert.Zero(t, res.EnvLoads)
}

func TestDispatch_UnknownFlagIsUsageError(t *testing.T) {
	rec := recorder{}
	res := registrytest.Run(t, nil, []registry.Descriptor{rec.descriptor("list", false)}, "list", "--bogus")
	require.Error(t, res.Err)
	assert.Equal(t, registry.ExitUsage, registry.ExitCode(res.Err))
	assert.Empty(t, rec)
}

func TestDispatch_NoArgumentsShowsHelp(t *testing.T) {
	rec := recorder{}
	res := registrytest.Run(t, nil, []registry.Descriptor{rec.descriptor("list", false)})
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "list things")
	assert.Empty(t, rec)
}

func TestDispatch_FailedHandlerWritesNothing(t *testing.T) {
	failing := registry.Descriptor{
		Name: "list",
		Handler: func(inv *registry.Invocation) error {
			_, _ = fmt.Fprintln(inv.Out, "half a table")
			return &steam.APIError{Kind: steam.Network}
		},
	}
	res := registrytest.Run(t, nil, []registry.Descriptor{failing}, "list")
	require.Error(t, res.Err)
	assert.Empty(t, res.Stdout)
}

func TestDispatch_ConfigErrorLeavesNoOutput(t *testing.T) {
	rec := recorder{}
	reg := registry.MustNew(rec.descriptor("list", true))
	var stdout bytes.Buffer
	app := reg.App(registry.Options{
		Name:   "trogue",
		Stdout: &stdout,
		LoadEnv: func(context.Context) (*registry.Env, error) {
			return nil, &config.Error{Kind: config.MissingVariable, Name: config.APIKeyVar}
		},
	})

	err := app.Run([]string{"trogue", "list"})
	require.Error(t, err)
	assert.Equal(t, registry.ExitConfig, registry.ExitCode(err))
	assert.Empty(t, rec)
	assert.Empty(t, stdout.String())
}

func TestDispatch_HandlerSeesParsedArgsAndEnv(t *testing.T) {
	var gotID uint32
	var gotSteamID string
	desc := registry.Descriptor{
		Name:       "progress",
		Args:       []registry.Arg{{Name: "game_id", Required: true}},
		NeedsSteam: true,
		Handler: func(inv *registry.Invocation) error {
			id, err := inv.AppID("game_id")
			if err != nil {
				return err
			}
			env, err := inv.Env()
			if err != nil {
				return err
			}
			gotID = id
			gotSteamID = env.Config.SteamID
			assert.Equal(t, "", inv.Arg("nope"))
			return nil
		},
	}
	res := registrytest.Run(t, &registrytest.FakeSteam{}, []registry.Descriptor{desc}, "progress", "620")
	require.NoError(t, res.Err)
	assert.Equal(t, uint32(620), gotID)
	assert.Equal(t, registrytest.TestConfig.SteamID, gotSteamID)
}

func TestDispatch_VerboseEnablesDebugLogging(t *testing.T) {
	desc := registry.Descriptor{
		Name: "list",
		Handler: func(inv *registry.Invocation) error {
			inv.Logger.Debug("debug line")
			return nil
		},
	}
	quiet := registrytest.Run(t, nil, []registry.Descriptor{desc}, "list")
	require.NoError(t, quiet.Err)
	assert.NotContains(t, quiet.Stderr, "debug line")

	loud := registrytest.Run(t, nil, []registry.Descriptor{desc}, "--verbose", "list")
	require.NoError(t, loud.Err)
	assert.Contains(t, loud.Stderr, "debug line")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, registry.ExitOK},
		{"usage", registry.Usagef("list", "bad"), registry.ExitUsage},
		{"wrapped usage", fmt.Errorf("outer: %w", registry.Usagef("", "bad")), registry.ExitUsage},
		{"config", &config.Error{Kind: config.InvalidVariable, Name: config.SteamIDVar}, registry.ExitConfig},
		{"api", &steam.APIError{Kind: steam.Unauthorized}, registry.ExitFailure},
		{"cli exit", cli.Exit("boom", 4), 4},
		{"plain", errors.New("boom"), registry.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, registry.ExitCode(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"usage", registry.Usagef("progress", "missing required argument <game_id>"),
			[]string{"Error: progress: missing required argument <game_id>", "trogue progress --help"}},
		{"config", &config.Error{Kind: config.MissingVariable, Name: config.SteamIDVar},
			[]string{"missing TROGUE_STEAM_ID environment variable", ".env"}},
		{"network", &steam.APIError{Kind: steam.Network, Endpoint: "/x"}, []string{"Steam API unreachable"}},
		{"unauthorized", &steam.APIError{Kind: steam.Unauthorized, StatusCode: 403}, []string{"Check TROGUE_STEAM_API_KEY and TROGUE_STEAM_ID"}},
		{"deserialize", fmt.Errorf("failed: %w", &steam.APIError{Kind: steam.Deserialize}), []string{"Unexpected response format"}},
		{"plain", errors.New("boom"), []string{"Error: boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := registry.Describe("trogue", tt.err)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
	assert.Empty(t, registry.Describe("trogue", nil))
	assert.False(t, strings.HasPrefix(registry.Describe("trogue", errors.New("Error: x")), "Error: Error"))
}

func TestAsUsage(t *testing.T) {
	assert.NoError(t, registry.AsUsage("list", nil))

	base := errors.New("bad pattern")
	err := registry.AsUsage("list", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "list: bad pattern", err.Error())

	already := registry.Usagef("x", "y")
	assert.Same(t, already, registry.AsUsage("list", already))
}
