package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pennywise-dev/pennywise/internal/commands"
	"github.com/pennywise-dev/pennywise/internal/config"
)

// runPennywise executes the root command in-process.
func runPennywise(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// newWorkspace initialises a workspace, swaps in the fixture category store
// and applies edit to the config.
func newWorkspace(t *testing.T, edit func(*config.Config)) (string, string) {
	t.Helper()
	dir := t.TempDir()
	_, _, err := runPennywise(t, "", "init", dir)
	require.NoError(t, err)

	cats, err := os.ReadFile(filepath.Join("..", "..", "testdata", "categories.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"), cats, 0o644))

	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Sink.Delay = 0
	cfg.Log.Format = "json"
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, config.Save(cfgPath, cfg))
	return dir, cfgPath
}

// stageFixture copies a testdata statement into a workspace input directory.
func stageFixture(t *testing.T, dir, bankDir, fixture string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", fixture))
	require.NoError(t, err)
	dst := filepath.Join(dir, bankDir, fixture)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, data, 0o644))
	return dst
}
