package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/config"
	"github.com/salmonumbrella/braindump/internal/secrets"
)

// cliHarness runs the root command against buffers, a temporary config file,
// a temporary SQLite data directory and an in-memory keyring.
type cliHarness struct {
	t          *testing.T
	env        map[string]string
	secrets    *fakeSecrets
	configPath string
	dataDir    string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	restore := snapshotCLIState()
	t.Cleanup(restore)

	dir := t.TempDir()
	h := &cliHarness{
		t:          t,
		secrets:    newFakeSecrets(),
		configPath: filepath.Join(dir, "config.yaml"),
		dataDir:    filepath.Join(dir, "data"),
	}
	h.env = map[string]string{envDataDir: h.dataDir}
	if err := os.WriteFile(h.configPath, []byte(""), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	envGet = func(key string) string { return h.env[key] }
	openSecretsStore = func() (secrets.Store, error) { return h.secrets, nil }
	return h
}

func (h *cliHarness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	resetCLIState()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", h.configPath}, args...))

	err := execute(context.Background())
	return out.String(), errBuf.String(), err
}

func snapshotCLIState() func() {
	prevEnvGet := envGet
	prevSecrets := openSecretsStore
	prevOpenStore := openStoreFunc
	prevNewAPIClient := newAPIClientFunc
	prevNewGemini := newGeminiFunc
	prevCfg := cfg
	prevLogger := logger

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		envGet = prevEnvGet
		openSecretsStore = prevSecrets
		openStoreFunc = prevOpenStore
		newAPIClientFunc = prevNewAPIClient
		newGeminiFunc = prevNewGemini
		cfg = prevCfg
		logger = prevLogger
		cachedSecrets = nil

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetArgs(nil)
		resetCLIState()
		rootCmd.SetContext(prevCtx)
	}
}

// resetCLIState puts every flag back to its default and drops per-run state.
func resetCLIState() {
	outputType = ""
	cfg = &config.Config{}
	logger = zap.NewNop()
	cachedSecrets = nil
	resetCommandTree(rootCmd)
}

func resetCommandTree(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(nil) //nolint:staticcheck // children inherit the root context when nil
	for _, sub := range cmd.Commands() {
		resetCommandTree(sub)
	}
}
