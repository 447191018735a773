package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// getBinaryPath returns the path to the jobscout binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "jobscout"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/jobscout ./cmd/jobscout'", binaryPath)
	}

	return binaryPath
}

// execute runs the root command in-process and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const acmeProfilesYAML = `profiles:
  - name: acme
    display_name: Acme Careers
    base_url: https://jobs.acme.test/
    listing_path: search
    detail_path: job/{id}
    rules:
      card: {selector: article}
      id: {selector: article, returns: attribute, attr: data-id}
      title: {selector: h2}
      company: {selector: .company}
      location: {selector: .city}
      description: {selector: "#desc"}
    params:
      query: q
      location: where
`
