package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/config"
	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/secrets"
	"github.com/salmonumbrella/braindump/internal/store"
)

// Environment variables read by the CLI.
const (
	envAPIToken      = "BRAINDUMP_API_TOKEN"
	envAPIURL        = "BRAINDUMP_API_URL"
	envBackend       = "BRAINDUMP_BACKEND"
	envDataDir       = "BRAINDUMP_DATA_DIR"
	envNeo4jURI      = "BRAINDUMP_NEO4J_URI"
	envNeo4jPassword = "BRAINDUMP_NEO4J_PASSWORD"
	envEnhanceURL    = "BRAINDUMP_ENHANCE_URL"
	envLogLevel      = "BRAINDUMP_LOG_LEVEL"
	envGeminiAPIKey  = "GEMINI_API_KEY"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}

// cachedSecrets keeps the keyring open for the rest of the command so the
// file backend prompts for its password at most once.
var cachedSecrets secrets.Store

func secretsStore() (secrets.Store, error) {
	if cachedSecrets != nil {
		return cachedSecrets, nil
	}
	st, err := openSecretsStore()
	if err != nil {
		return nil, err
	}
	cachedSecrets = st
	return st, nil
}

// resolveSecret applies the precedence flag > env > keyring > config.
func resolveSecret(flagValue, envKey, name, cfgValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(envGet(envKey)); v != "" {
		return v
	}
	if st, err := secretsStore(); err == nil {
		if tok, err := st.GetToken(name); err == nil && strings.TrimSpace(tok.Value) != "" {
			return strings.TrimSpace(tok.Value)
		}
	} else {
		logger.Debug("keyring unavailable", zap.Error(err))
	}
	return strings.TrimSpace(cfgValue)
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func resolveBackend() string {
	return strings.ToLower(firstNonEmpty(backendFlag, envGet(envBackend), cfg.Backend, store.BackendSQLite))
}

func resolveLogLevel(cmd *cobra.Command) string {
	if debug {
		return "debug"
	}
	if flagChanged(cmd, "log-level") {
		return logLevel
	}
	return firstNonEmpty(envGet(envLogLevel), cfg.LogLevel)
}

func resolvePolicy(flagValue string) (materialize.Policy, error) {
	return materialize.ParsePolicy(firstNonEmpty(flagValue, cfg.OnError))
}

// newAPIClient builds the hosted record API client from the resolved token.
func newAPIClient() (api.RecordAPI, error) {
	token := resolveSecret("", envAPIToken, secrets.APIToken, cfg.APIToken)
	if token == "" {
		return nil, fmt.Errorf("API token required. Set %s or run 'braindump auth login'", envAPIToken)
	}
	return newAPIClientWithToken(token)
}

func newAPIClientWithToken(token string) (api.RecordAPI, error) {
	var opts []api.ClientOption
	if base := firstNonEmpty(envGet(envAPIURL), cfg.APIBaseURL); base != "" {
		opts = append(opts, api.WithBaseURL(base))
	}
	return newAPIClientFunc(firstNonEmpty(cfg.Collection, api.DefaultCollection), token, opts...)
}

// storeConfig resolves the backend settings for store.Open.
func storeConfig() (store.Config, error) {
	sc := store.Config{
		Backend: resolveBackend(),
		IDs:     cfg.IDs,
	}
	switch sc.Backend {
	case store.BackendSQLite:
		dir := strings.TrimSpace(envGet(envDataDir))
		if dir == "" {
			resolved, err := cfg.ResolveDataDir()
			if err != nil {
				return sc, err
			}
			dir = resolved
		}
		sc.Dir = dir
	case store.BackendNeo4j:
		sc.Neo4jURI = firstNonEmpty(envGet(envNeo4jURI), cfg.Neo4jURI, store.DefaultNeo4jURI)
		sc.Neo4jUser = firstNonEmpty(cfg.Neo4jUser, "neo4j")
		sc.Neo4jPassword = resolveSecret("", envNeo4jPassword, secrets.Neo4jPassword, cfg.Neo4jPassword)
		sc.Neo4jDatabase = cfg.Neo4jDatabase
	case store.BackendAPI:
		client, err := newAPIClient()
		if err != nil {
			return sc, err
		}
		sc.API = client
	}
	return sc, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	sc, err := storeConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStoreFunc(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", sc.Backend, err)
	}
	logger.Debug("store opened", zap.String("backend", sc.Backend))
	return st, nil
}

// newEnhancer prefers Gemini when a key is available, then a remote enhance
// endpoint. It returns enhance.ErrDisabled when neither is configured.
func newEnhancer(ctx context.Context) (enhance.Enhancer, error) {
	if key := resolveSecret("", envGeminiAPIKey, secrets.GeminiAPIKey, cfg.GeminiAPIKey); key != "" {
		return newGeminiFunc(ctx, key, firstNonEmpty(cfg.GeminiModel, enhance.DefaultGeminiModel))
	}
	if url := firstNonEmpty(envGet(envEnhanceURL), cfg.EnhanceURL); url != "" {
		token := resolveSecret("", envAPIToken, secrets.APIToken, cfg.APIToken)
		return enhance.NewRemote(url, token), nil
	}
	return nil, fmt.Errorf("%w: set %s or enhance_url", enhance.ErrDisabled, envGeminiAPIKey)
}

// optionalEnhancer is newEnhancer for commands that run fine without one.
func optionalEnhancer(ctx context.Context) (enhance.Enhancer, error) {
	e, err := newEnhancer(ctx)
	if errors.Is(err, enhance.ErrDisabled) {
		return nil, nil
	}
	return e, err
}
