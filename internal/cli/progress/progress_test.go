package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/cli/registry/registrytest"
	"github.com/hieropold/trogue/internal/core/steam"
)

func fixtureSteam() *registrytest.FakeSteam {
	achs := make([]steam.Achievement, 10)
	for i := range achs {
		achs[i] = steam.Achievement{APIName: string(rune('a' + i)), Achieved: i < 5}
	}
	return &registrytest.FakeSteam{
		Achievements: map[uint32]steam.AchievementList{
			620: {GameName: "Portal 2", Achievements: achs},
			8:   {GameName: "Empty"},
		},
	}
}

func runProgress(t *testing.T, api registry.SteamAPI, args ...string) registrytest.Result {
	t.Helper()
	opts := registry.Options{TerminalWidth: 40}
	return registrytest.RunWith(t, opts, api, []registry.Descriptor{ProgressCmd}, append([]string{"progress"}, args...)...)
}

func TestProgressCommand_HalfTerminalWidth(t *testing.T) {
	res := runProgress(t, fixtureSteam(), "620")
	require.NoError(t, res.Err)
	assert.Equal(t, "Portal 2\n[██████████          ] 50.0% (5/10)\n", res.Stdout)
}

func TestProgressCommand_WidthFlag(t *testing.T) {
	res := runProgress(t, fixtureSteam(), "--width", "4", "620")
	require.NoError(t, res.Err)
	assert.Equal(t, "Portal 2\n[██  ] 50.0% (5/10)\n", res.Stdout)
}

func TestProgressCommand_InvalidWidth(t *testing.T) {
	api := fixtureSteam()
	res := runProgress(t, api, "--width", "0", "620")
	require.Error(t, res.Err)
	assert.Equal(t, registry.ExitUsage, registry.ExitCode(res.Err))
	assert.Empty(t, api.Calls())
}

func TestProgressCommand_NoAchievements(t *testing.T) {
	res := runProgress(t, fixtureSteam(), "8")
	require.NoError(t, res.Err)
	assert.Equal(t, "Empty\n"+NoAchievementsMessage+"\n", res.Stdout)
}

func TestProgressCommand_MissingGameIDMakesNoCall(t *testing.T) {
	api := fixtureSteam()
	res := runProgress(t, api)
	require.Error(t, res.Err)

	var usageErr *registry.UsageError
	require.True(t, errors.As(res.Err, &usageErr))
	assert.Contains(t, usageErr.Error(), "<game_id>")
	assert.Empty(t, api.Calls())
	assert.Zero(t, res.EnvLoads, "configuration is not needed to reject a usage error")
}

func TestProgressCommand_APIErrorIsReturned(t *testing.T) {
	api := fixtureSteam()
	api.AchievementsErr = map[uint32]error{620: &steam.APIError{Kind: steam.Deserialize}}

	res := runProgress(t, api, "620")
	require.Error(t, res.Err)
	assert.True(t, steam.IsKind(res.Err, steam.Deserialize))
	assert.Empty(t, res.Stdout)
}

func TestWriteBlock(t *testing.T) {
	var buf bytes.Buffer
	WriteBlock(&buf, "Done", []steam.Achievement{{Achieved: true}, {Achieved: true}}, 2)
	assert.Equal(t, "Done\n[██] 100.0% (2/2)\n", buf.String())
}
