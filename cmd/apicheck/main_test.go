package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apicheck/internal/common/config"
	"apicheck/internal/stubapi"
)

const smokeFeature = `Feature: Smoke

  @Smoke
  Scenario: List users with the wrong status
    Given I have a request for "users" endpoint
    When I send a GET request to "/users" with query parameter "page" as "2"
    Then the response status code should be 201
`

const usersFeature = `@API
Feature: Users

  Scenario: Get a list of users
    Given I have a request for "users" endpoint
    When I send a GET request to "/users" with query parameter "page" as "2"
    Then the response status code should be 200
    And the response should contain a list of users

  Scenario: Get a missing user
    Given I have a request for "users" endpoint
    When I send a GET request to "/users" for user with ID 23
    Then the response status code should be 200

  @Mock
  Scenario: Mock a user service
    Given I have a mocked user service returning user with ID 1, email "test@example.com", first name "John", and last name "Doe"
    When I request user with ID 1 from the mocked service
    Then the mocked user response should contain ID 1, email "test@example.com", first name "John", and last name "Doe"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFlagsOverrideOnlyWhenChanged(t *testing.T) {
	cfg := &config.Config{BaseURI: "http://from-env", Tags: "@env", Concurrency: 3}
	f := flagValues{baseURI: "http://from-flag", tags: "@flag", concurrency: 1, headers: map[string]string{"X-A": "1"}}

	f.apply(cfg, map[string]bool{"base-uri": true, "header": true})

	assert.Equal(t, "http://from-flag", cfg.BaseURI)
	assert.Equal(t, "@env", cfg.Tags)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, map[string]string{"X-A": "1"}, cfg.Headers)
}

func TestRerunCommandRepeatsSelection(t *testing.T) {
	server := httptest.NewServer(stubapi.NewMux(stubapi.NewStore()))
	defer server.Close()

	feature := filepath.Join(t.TempDir(), "smoke.feature")
	require.NoError(t, os.WriteFile(feature, []byte(smokeFeature), 0o644))

	out, err := execute(t, "run", "--no-color",
		"--base-uri", server.URL,
		"--tags", "@Smoke",
		"--header", "X-Trace=a b",
		"--report", filepath.Join(t.TempDir(), "report.json"),
		feature,
	)
	require.ErrorIs(t, err, errScenariosFailed)
	assert.Contains(t, out, "expected 201, got 200")

	rerun := rerunLine(t, out)
	assert.NotContains(t, rerun, "--report")
	argv := shellWords(t, rerun)
	require.Greater(t, len(argv), 1)
	assert.Contains(t, argv, "--header=X-Trace=a b")

	out, err = execute(t, argv[1:]...)
	require.ErrorIs(t, err, errScenariosFailed, out)
	assert.Contains(t, out, "1 scenarios (0 passed, 1 failed)")
	assert.Contains(t, out, "expected 201, got 200")
}

// rerunLine returns the single command printed under the rerun heading.
func rerunLine(t *testing.T, out string) string {
	t.Helper()
	_, after, ok := strings.Cut(out, "Rerun failed scenarios:\n")
	require.True(t, ok, out)
	line, _, _ := strings.Cut(after, "\n")
	return strings.TrimSpace(line)
}

// shellWords splits a POSIX shell command line built from single- and
// double-quoted words.
func shellWords(t *testing.T, line string) []string {
	t.Helper()
	var (
		words []string
		word  strings.Builder
		quote rune
		open  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			word.WriteRune(r)
		case r == '\'' || r == '"':
			quote, open = r, true
		case r == ' ':
			if open {
				words = append(words, word.String())
				word.Reset()
				open = false
			}
		default:
			word.WriteRune(r)
			open = true
		}
	}
	require.Zero(t, quote, "unterminated quote in %q", line)
	if open {
		words = append(words, word.String())
	}
	return words
}

func TestStepsCommand(t *testing.T) {
	out, err := execute(t, "steps")
	require.NoError(t, err)
	assert.Contains(t, out, "I set the base URI to {string}\n")
	assert.Contains(t, out, "the response status code should be {int}\n")
}

func TestRunCommand(t *testing.T) {
	server := httptest.NewServer(stubapi.NewMux(stubapi.NewStore()))
	defer server.Close()

	dir := t.TempDir()
	feature := filepath.Join(dir, "users.feature")
	require.NoError(t, os.WriteFile(feature, []byte(usersFeature), 0o644))
	reportPath := filepath.Join(dir, "report.json")
	metricsPath := filepath.Join(dir, "metrics.prom")

	t.Run("all passing", func(t *testing.T) {
		out, err := execute(t, "run", "--no-color",
			"--base-uri", server.URL,
			"--timeout", (2 * time.Second).String(),
			"--tags", "@API",
			"--name", "list|Mock",
			"--report", reportPath,
			"--metrics-file", metricsPath,
			feature,
		)
		require.NoError(t, err, out)
		assert.Contains(t, out, "2 scenarios (2 passed, 0 failed)")

		data, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Len(t, decoded["scenarios"], 2)

		metricsData, err := os.ReadFile(metricsPath)
		require.NoError(t, err)
		assert.Contains(t, string(metricsData), "apicheck_scenarios_total")
	})

	t.Run("failure sets exit error and prints rerun command", func(t *testing.T) {
		out, err := execute(t, "run", "--no-color", "--base-uri", server.URL, "--tags", "~@Mock", feature)
		assert.ErrorIs(t, err, errScenariosFailed)
		assert.Contains(t, out, "FAIL Get a missing user")
		assert.Contains(t, out, "expected 200, got 404")
		assert.True(t, strings.Contains(out, "--name '^Get a missing user$'"), out)
		assert.Contains(t, out, "run --base-uri="+server.URL+" --no-color=true '--tags=~@Mock' --name")
	})

	t.Run("godog bridge", func(t *testing.T) {
		out, err := execute(t, "godog", "--no-color", "--format", "progress", "--base-uri", server.URL, "--tags", "@Mock", feature)
		require.NoError(t, err, out)
	})
}
