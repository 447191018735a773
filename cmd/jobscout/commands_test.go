package main

import (
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/types"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardsCommand_IncludesExtraProfiles(t *testing.T) {
	path := writeFile(t, "boards.yaml", acmeProfilesYAML)

	out, err := execute(t, "boards", "--json=true", "--profiles", path)
	require.NoError(t, err)

	var file boards.ProfileFile
	require.NoError(t, json.Unmarshal([]byte(out), &file))

	var names []string
	for _, p := range file.Profiles {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "acme")
	assert.Contains(t, names, boards.Default().Names()[0])
}

func TestValidateProfilesCommand(t *testing.T) {
	valid := writeFile(t, "boards.yaml", acmeProfilesYAML)
	out, err := execute(t, "validate-profiles", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ acme")
	assert.Contains(t, out, "1 profiles OK")

	invalid := writeFile(t, "broken.json", `{"profiles": [{"name": "Has Spaces"}]}`)
	_, err = execute(t, "validate-profiles", invalid)
	assert.ErrorContains(t, err, "does not match schema")
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := execute(t, "search", "--profiles", "", "--boards", "acme")
	assert.ErrorContains(t, err, "invalid search parameters")
}

func TestResolveConfig_FileThenDefaults(t *testing.T) {
	path := writeFile(t, "jobscout.toml", `
boards = ["linkedin"]
limit = 20
page_delay = "500ms"
`)
	configPath = path
	t.Cleanup(func() { configPath = "" })

	cfg, err := resolveConfig(&cobra.Command{})
	require.NoError(t, err)

	assert.Equal(t, []string{"linkedin"}, cfg.Boards)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, config.Defaults().MaxPages, cfg.MaxPages)
	assert.Equal(t, "30s", cfg.Timeout)
	assert.Equal(t, "500ms", cfg.PageDelay)
}

func TestResolveConfig_InvalidFile(t *testing.T) {
	configPath = writeFile(t, "jobscout.toml", `limit = -1`)
	t.Cleanup(func() { configPath = "" })

	_, err := resolveConfig(&cobra.Command{})
	assert.Error(t, err)
}

func TestSearchParams_FlagsOverrideConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&searchLimit, "limit", 0, "")
	cmd.Flags().StringSliceVar(&searchBoards, "boards", nil, "")
	require.NoError(t, cmd.ParseFlags([]string{"--limit", "7"}))
	t.Cleanup(func() { searchLimit, searchBoards = 0, nil })

	cfg := config.Config{Limit: 50, Boards: []string{"indeed"}}
	params := searchParams(cmd, cfg, "  golang ")

	assert.Equal(t, types.SearchParams{Query: "golang", Limit: 7, Boards: []string{"indeed"}}, params)
}

func TestBuildRegistry_UnknownFile(t *testing.T) {
	_, err := buildRegistry(config.Config{ProfilesFile: "does-not-exist.yaml"})
	assert.Error(t, err)
}

func TestCLI_SearchMissingQuery(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "search")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "invalid search parameters")
}

func TestCLI_Help(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "--help").CombinedOutput()
	require.NoError(t, err)
	for _, sub := range []string{"search", "boards", "serve", "validate-profiles"} {
		assert.Contains(t, string(output), sub)
	}
}
