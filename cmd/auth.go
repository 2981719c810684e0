package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/minutes/config"
	"github.com/otherjamesbrown/minutes/credentials"
)

// AuthCommandDeps holds the dependencies for auth commands.
type AuthCommandDeps struct {
	OpenStore  func() (*credentials.Store, error)
	ReadSecret func(prompt string, out io.Writer) (string, error)
}

// DefaultAuthDeps returns the default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{
		OpenStore: func() (*credentials.Store, error) {
			dir, err := config.ConfigDir()
			if err != nil {
				return nil, err
			}
			return credentials.NewStore(dir), nil
		},
		ReadSecret: readSecret,
	}
}

// NewAuthCommand creates the auth command group.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the OpenAI API key",
		Long: `Manage the OpenAI API key used by transcribe and summarize.

Keys are stored in the system keyring. On hosts without a keyring, set
MINUTES_CREDENTIALS_PASSPHRASE to store the key in an encrypted file under
~/.minutes instead.

The OPENAI_API_KEY environment variable takes precedence over stored keys.`,
	}

	cmd.AddCommand(newAuthLoginCommand(deps))
	cmd.AddCommand(newAuthLogoutCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))

	return cmd
}

func newAuthLoginCommand(deps *AuthCommandDeps) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an OpenAI API key",
		Long: `Store an OpenAI API key. Prompts with hidden input unless --api-key is given.

Examples:
  minutes auth login
  minutes auth login --api-key sk-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.OpenStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			key := apiKey
			if key == "" {
				key, err = deps.ReadSecret("OpenAI API key: ", cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("reading API key: %w", err)
				}
			}

			where, err := store.Save(key)
			if err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key %s stored in %s\n", credentials.MaskAPIKey(strings.TrimSpace(key)), where)
			if os.Getenv(credentials.EnvAPIKey) != "" {
				fmt.Fprintf(out, "Note: %s is set and takes precedence over the stored key.\n", credentials.EnvAPIKey)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to store (prompted when omitted)")

	return cmd
}

func newAuthLogoutCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored OpenAI API key",
		Long: `Remove the stored OpenAI API key from every credential backend.
The OPENAI_API_KEY environment variable is not affected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.OpenStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			out := cmd.OutOrStdout()
			if err := store.Delete(); err != nil {
				if errors.Is(err, credentials.ErrNoCredentials) {
					fmt.Fprintln(out, "No stored API key.")
					return nil
				}
				return fmt.Errorf("removing API key: %w", err)
			}
			fmt.Fprintln(out, "Stored API key removed.")
			return nil
		},
	}
}

func newAuthStatusCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which OpenAI API key is active",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.OpenStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			out := cmd.OutOrStdout()
			key, source, err := store.APIKey()
			if err != nil {
				if errors.Is(err, credentials.ErrNoCredentials) {
					fmt.Fprintln(out, "Not authenticated.")
					fmt.Fprintln(out, "Run 'minutes auth login' or set "+credentials.EnvAPIKey+".")
					return nil
				}
				return err
			}

			fmt.Fprintln(out, "Authenticated.")
			fmt.Fprintf(out, "  Key:    %s\n", credentials.MaskAPIKey(key))
			fmt.Fprintf(out, "  Source: %s\n", source)
			return nil
		},
	}
}

// readSecret prompts on out and reads a line without echo, falling back to a
// plain read when stdin is not a terminal.
func readSecret(prompt string, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
