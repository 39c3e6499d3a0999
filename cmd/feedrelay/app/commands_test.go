package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/feedrelay/internal/sync/state"
)

// writeFileConfig writes a config selecting file storage in a fresh directory
func writeFileConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  type: file\n  dataDir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "feedrelay")

	out, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "Version")
	assert.Contains(t, info, "GoVersion")

	_, err = run(t, "version", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestCheckpointCommands(t *testing.T) {
	t.Parallel()

	cfgPath := writeFileConfig(t)

	_, err := run(t, "--config", cfgPath, "checkpoint", "get")
	require.ErrorIs(t, err, state.ErrCheckpointNotSeeded)

	out, err := run(t, "--config", cfgPath, "checkpoint", "seed", "4820")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint set to 4820\n", out)

	out, err = run(t, "--config", cfgPath, "checkpoint", "get")
	require.NoError(t, err)
	assert.Equal(t, "4820\n", out)

	_, err = run(t, "--config", cfgPath, "checkpoint", "seed", "5000")
	require.Error(t, err)

	_, err = run(t, "--config", cfgPath, "checkpoint", "seed", "5000", "--force")
	require.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "checkpoint", "get")
	require.NoError(t, err)
	assert.Equal(t, "5000\n", out)
}

func TestCheckpointSeed_InvalidSequence(t *testing.T) {
	t.Parallel()

	cfgPath := writeFileConfig(t)

	for _, arg := range []string{"abc", "4294967296", "12.5"} {
		_, err := run(t, "--config", cfgPath, "checkpoint", "seed", arg)
		assert.ErrorContains(t, err, "invalid sequence", arg)
	}
}

func TestSubscriptionsCommands(t *testing.T) {
	t.Parallel()

	cfgPath := writeFileConfig(t)

	out, err := run(t, "--config", cfgPath, "subscriptions", "add", "1111")
	require.NoError(t, err)
	assert.Equal(t, "subscribed 1111\n", out)

	out, err = run(t, "--config", cfgPath, "subscriptions", "add", "1111")
	require.NoError(t, err)
	assert.Equal(t, "1111 is already subscribed\n", out)

	_, err = run(t, "--config", cfgPath, "subs", "add", "2222")
	require.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "subscriptions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1111")
	assert.Contains(t, out, "2222")

	out, err = run(t, "--config", cfgPath, "subscriptions", "remove", "1111")
	require.NoError(t, err)
	assert.Equal(t, "unsubscribed 1111\n", out)

	out, err = run(t, "--config", cfgPath, "subscriptions", "remove", "1111")
	require.NoError(t, err)
	assert.Equal(t, "1111 was not subscribed\n", out)

	out, err = run(t, "--config", cfgPath, "subscriptions", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "1111")
	assert.Contains(t, out, "2222")
}

func TestServe_RequiresDiscordAndFeed(t *testing.T) {
	t.Parallel()

	_, err := run(t, "--config", writeFileConfig(t), "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestWalk_RequiresFeedConfig(t *testing.T) {
	t.Parallel()

	_, err := run(t, "--config", writeFileConfig(t), "walk", "--boundary", "10")
	assert.ErrorContains(t, err, "feed.url is required")
}

func TestWalk_Boundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "checkpoint when flag is omitted",
			args:    []string{"walk"},
			wantErr: "failed to read checkpoint",
		},
		{
			name:    "explicit zero skips the checkpoint",
			args:    []string{"walk", "--boundary", "0"},
			wantErr: "feed.url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"--config", writeFileConfig(t)}, tt.args...)
			_, err := run(t, args...)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
