package utils

import (
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/graphql-stitcher/internal/backends"
)

// customSetterTestCase is a test case to test a custom_set_value function.
type customSetterTestCase[T any] struct {
	name            string
	args            []string
	envValue        string
	wantErrContains string
	wantResult      T
}

// customSetterTester tests a custom_set_value function, according with the customSetterTestCase provided.
func customSetterTester[T any](t *testing.T, tc customSetterTestCase[T], co config.ConfigOption) {
	t.Helper()
	ClearTestEnvironment(t)
	if tc.envValue != "" {
		envName := strings.ToUpper(co.Name)
		envName = strings.ReplaceAll(envName, "-", "_")
		t.Setenv(envName, tc.envValue)
	}

	// start the CLI command
	testCmd := cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			co.Require()
			return co.SetValue()
		},
	}
	// mock the command line output
	buf := new(strings.Builder)
	testCmd.SetOut(buf)

	// Initialize the command for the given option
	err := co.Init(&testCmd)
	require.NoError(t, err)

	// execute command line
	if len(tc.args) > 0 {
		testCmd.SetArgs(tc.args)
	}
	err = testCmd.Execute()

	// check the result
	if tc.wantErrContains != "" {
		assert.Error(t, err)
		assert.Contains(t, err.Error(), tc.wantErrContains)
	} else {
		assert.NoError(t, err)
	}

	var zero T
	if !assert.ObjectsAreEqual(zero, tc.wantResult) {
		dest, ok := co.ConfigKey.(*T)
		require.True(t, ok, "config key of %s is not a *%T", co.Name, zero)
		assert.Equal(t, tc.wantResult, *dest)
	}
}

// clearTestEnvironment removes all envs from the test environment. It's useful
// to make tests independent from the localhost environment variables.
func ClearTestEnvironment(t *testing.T) {
	t.Helper()

	// remove all envs from the test environment
	for _, env := range os.Environ() {
		key := env[:strings.Index(env, "=")]
		t.Setenv(key, "")
	}
}

func Test_SetConfigOptionLogLevel(t *testing.T) {
	opts := struct{ logrusLevel logrus.Level }{}

	co := config.ConfigOption{
		Name:           "log-level",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionLogLevel,
		ConfigKey:      &opts.logrusLevel,
	}

	testCases := []customSetterTestCase[logrus.Level]{
		{
			name:            "returns an error if the log level is empty",
			args:            []string{},
			wantErrContains: `couldn't parse log level in log-level: not a valid logrus Level: ""`,
		},
		{
			name:            "returns an error if the log level is invalid",
			args:            []string{"--log-level", "test"},
			wantErrContains: `couldn't parse log level in log-level: not a valid logrus Level: "test"`,
		},
		{
			name:       "handles messenger type TRACE (through CLI args)",
			args:       []string{"--log-level", "TRACE"},
			wantResult: logrus.TraceLevel,
		},
		{
			name:       "handles messenger type TRACE (through ENV vars)",
			envValue:   "TRACE",
			wantResult: logrus.TraceLevel,
		},
		{
			name:       "handles messenger type INFO (through CLI args)",
			args:       []string{"--log-level", "iNfO"},
			wantResult: logrus.InfoLevel,
		},
		{
			name:       "handles messenger type INFO (through ENV vars)",
			envValue:   "INFO",
			wantResult: logrus.InfoLevel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.logrusLevel = 0
			customSetterTester[logrus.Level](t, tc, co)
		})
	}
}

func TestSetConfigOptionBackendsFile(t *testing.T) {
	opts := struct{ backends []backends.Config }{}

	co := config.ConfigOption{
		Name:           "backends-config-file",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionBackendsFile,
		ConfigKey:      &opts.backends,
	}

	dir := t.TempDir()
	validPath := filepath.Join(dir, "backends.toml")
	require.NoError(t, os.WriteFile(validPath, []byte(`
[[backends]]
name = "heroes"
url = "http://heroes:8080/graphql"
min_fetch_interval_seconds = 30
`), 0o600))
	invalidPath := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalidPath, []byte(`
[[backends]]
name = "heroes"
`), 0o600))

	expectedBackends := []backends.Config{
		{Name: "heroes", URL: "http://heroes:8080/graphql", MinFetchIntervalSeconds: 30},
	}

	testCases := []customSetterTestCase[[]backends.Config]{
		{
			name:            "returns an error if the path is empty",
			wantErrContains: "backends-config-file cannot be empty",
		},
		{
			name:            "returns an error if the file does not exist",
			args:            []string{"--backends-config-file", filepath.Join(dir, "missing.toml")},
			wantErrContains: "reading backends in backends-config-file: loading backends file",
		},
		{
			name:            "returns an error if a backend is invalid",
			args:            []string{"--backends-config-file", invalidPath},
			wantErrContains: "invalid backend #0 (heroes)",
		},
		{
			name:       "handles the backends file through the CLI flag",
			args:       []string{"--backends-config-file", validPath},
			wantResult: expectedBackends,
		},
		{
			name:       "handles the backends file through the ENV vars",
			envValue:   validPath,
			wantResult: expectedBackends,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.backends = nil
			customSetterTester(t, tc, co)
		})
	}
}

func TestSetConfigOptionStringList(t *testing.T) {
	opts := struct{ files []string }{}

	co := config.ConfigOption{
		Name:           "introspection-files",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionStringList,
		ConfigKey:      &opts.files,
	}

	testCases := []customSetterTestCase[[]string]{
		{
			name:            "returns an error if the list is empty",
			wantErrContains: "introspection-files cannot be empty",
		},
		{
			name:            "returns an error if the list only has blank items",
			args:            []string{"--introspection-files", " , ,"},
			wantErrContains: "introspection-files cannot be empty",
		},
		{
			name:       "handles the list through the CLI flag",
			args:       []string{"--introspection-files", "heroes.json, villains.json,"},
			wantResult: []string{"heroes.json", "villains.json"},
		},
		{
			name:       "handles the list through the ENV vars",
			envValue:   "heroes.json",
			wantResult: []string{"heroes.json"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.files = nil
			customSetterTester(t, tc, co)
		})
	}
}
