package self

import (
	"context"
	"errors"
	"testing"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieropold/trogue/internal/cli/registry"
	"github.com/hieropold/trogue/internal/cli/registry/registrytest"
)

type fakeUpdater struct {
	detected []string
	found    bool
	err      error
}

func (f *fakeUpdater) DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error) {
	owner, repo, _ := repository.GetSlug()
	f.detected = append(f.detected, owner+"/"+repo)
	return nil, f.found, f.err
}

func (f *fakeUpdater) UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error {
	return errors.New("unexpected update")
}

func runSelf(t *testing.T, version string, up *fakeUpdater, args ...string) registrytest.Result {
	t.Helper()
	cmd := NewSelfCommand(func() (Updater, error) { return up, nil })
	opts := registry.Options{Version: version}
	return registrytest.RunWith(t, opts, nil, []registry.Descriptor{cmd}, append([]string{"self", "update"}, args...)...)
}

func TestSelfUpdate_AlreadyLatest(t *testing.T) {
	up := &fakeUpdater{}
	res := runSelf(t, "v1.2.3", up, "--check")
	require.NoError(t, res.Err)
	assert.Equal(t, "Current version v1.2.3 is already the latest.\n", res.Stdout)
	assert.Equal(t, []string{DefaultRepository}, up.detected)
	assert.Zero(t, res.EnvLoads)
}

func TestSelfUpdate_CustomSource(t *testing.T) {
	up := &fakeUpdater{}
	res := runSelf(t, "1.0.0", up, "--source", "someone/fork")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"someone/fork"}, up.detected)
}

func TestSelfUpdate_InvalidSource(t *testing.T) {
	up := &fakeUpdater{}
	res := runSelf(t, "1.0.0", up, "--source", "not-a-slug")
	require.Error(t, res.Err)
	assert.Equal(t, registry.ExitUsage, registry.ExitCode(res.Err))
	assert.Empty(t, up.detected)
}

func TestSelfUpdate_UnparsableVersion(t *testing.T) {
	up := &fakeUpdater{}
	res := runSelf(t, "dev", up)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "Error parsing current version 'dev'")
	assert.Equal(t, 1, registry.ExitCode(res.Err))
	assert.Empty(t, up.detected)
}

func TestSelfUpdate_DetectError(t *testing.T) {
	up := &fakeUpdater{err: errors.New("rate limited")}
	res := runSelf(t, "1.0.0", up)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "rate limited")
}
