package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/config"
	"github.com/salmonumbrella/braindump/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage credentials for the record API, Gemini and Neo4j.

Secrets are stored in your system keychain (macOS Keychain, Windows
Credential Manager, Secret Service, or an encrypted file on Linux without
a D-Bus session). Set BRAINDUMP_KEYRING_BACKEND to pick a backend.

Known secrets: api_token, gemini_api_key, neo4j_password.

Examples:
  braindump auth login                          # prompt for the API token
  braindump auth login --name gemini_api_key    # prompt for a Gemini key
  echo "$TOKEN" | braindump auth login --verify
  braindump auth status
  braindump auth logout --name neo4j_password`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a secret in the keyring",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored secrets",
	Long: `Remove stored secrets from the keyring.

Without --name every known secret is removed.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which secrets are stored",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	loginName   string
	loginValue  string
	logoutName  string
	verifyLogin bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().StringVar(&loginName, "name", secrets.APIToken, "Secret to store ("+strings.Join(secrets.Names, ", ")+")")
	loginCmd.Flags().StringVar(&loginValue, "value", "", "Secret value (prompted when omitted)")
	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "Verify an api_token against the record API before storing it")

	logoutCmd.Flags().StringVar(&logoutName, "name", "", "Secret to remove (default: all)")
}

func validateSecretName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(secrets.Names, name) {
		return "", fmt.Errorf("unknown secret %q (use %s)", name, strings.Join(secrets.Names, ", "))
	}
	return name, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, err := validateSecretName(loginName)
	if err != nil {
		return err
	}
	if verifyLogin && name != secrets.APIToken {
		return fmt.Errorf("--verify only applies to %s", secrets.APIToken)
	}

	value := strings.TrimSpace(loginValue)
	if value == "" {
		value, err = promptSecret(ctx, fmt.Sprintf("Enter %s: ", name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}

	if verifyLogin {
		notef(ctx, "Verifying token...\n")
		if err := verifyAPIToken(ctx, value); err != nil {
			var authErr api.AuthenticationError
			if errors.As(err, &authErr) {
				return fmt.Errorf("authentication failed: invalid API token")
			}
			return fmt.Errorf("verify token: %w", err)
		}
	}

	st, err := secretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	tok := secrets.Token{Name: name, Value: value, CreatedAt: time.Now().UTC()}
	if err := st.SetToken(name, tok); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	if structuredOutputRequested() {
		return printResult(ctx, map[string]any{
			"status":   "stored",
			"name":     name,
			"preview":  config.MaskSecret(value),
			"verified": verifyLogin,
		})
	}
	printf(ctx, "Stored %s (%s)\n", name, config.MaskSecret(value))
	return nil
}

func verifyAPIToken(ctx context.Context, token string) error {
	client, err := newAPIClientWithToken(token)
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}

func runLogout(cmd *cobra.Command, args []string) error {
	names := secrets.Names
	if strings.TrimSpace(logoutName) != "" {
		name, err := validateSecretName(logoutName)
		if err != nil {
			return err
		}
		names = []string{name}
	}

	st, err := secretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	removed := []string{}
	for _, name := range names {
		if err := st.DeleteToken(name); err != nil {
			if errors.Is(err, secrets.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		return printResult(ctx, map[string]any{
			"status":  "logged_out",
			"removed": removed,
		})
	}
	if len(removed) == 0 {
		printf(ctx, "Nothing to remove.\n")
		return nil
	}
	printf(ctx, "Removed %s\n", strings.Join(removed, ", "))
	return nil
}

type secretStatus struct {
	Name     string     `json:"name"`
	Stored   bool       `json:"stored"`
	Preview  string     `json:"preview,omitempty"`
	StoredAt *time.Time `json:"stored_at,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := secretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	statuses := make([]secretStatus, 0, len(secrets.Names))
	for _, name := range secrets.Names {
		s := secretStatus{Name: name}
		tok, err := st.GetToken(name)
		switch {
		case err == nil && tok.Value != "":
			s.Stored = true
			s.Preview = config.MaskSecret(tok.Value)
			if !tok.CreatedAt.IsZero() {
				created := tok.CreatedAt
				s.StoredAt = &created
			}
		case err != nil && !errors.Is(err, secrets.ErrNotFound):
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		statuses = append(statuses, s)
	}

	backend := secrets.ResolveKeyringBackendInfo()
	ctx := cmd.Context()
	if structuredOutputRequested() {
		return printResult(ctx, map[string]any{
			"keyring_backend": backend.Value,
			"backend_source":  backend.Source,
			"secrets":         statuses,
		})
	}

	printf(ctx, "Keyring backend: %s (%s)\n", backend.Value, backend.Source)
	for _, s := range statuses {
		if !s.Stored {
			printf(ctx, "  %s: not set\n", s.Name)
			continue
		}
		line := fmt.Sprintf("  %s: %s", s.Name, s.Preview)
		if s.StoredAt != nil {
			line += " (stored " + s.StoredAt.Format(time.RFC3339) + ")"
		}
		printf(ctx, "%s\n", line)
	}
	return nil
}

// promptSecret prompts for a secret input (no echo on a terminal).
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}

	// Piped input may end without a newline.
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
