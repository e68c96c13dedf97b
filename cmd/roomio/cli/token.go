package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored bearer tokens",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a bearer token",
	Long: `Store a bearer token sealed in redis. The token is read from stdin;
on a terminal it is read without echo.`,
	Example: `  # Prompt for the token
  roomio token set

  # Pipe it in under another name
  echo "$TOKEN" | roomio token set --token-name landlord`,
	Args: cobra.NoArgs,
	RunE: runTokenSet,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove a stored bearer token",
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	token, err := readToken(cmd)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token must not be empty")
	}

	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.openTokens(cmd.Context()); err != nil {
		return err
	}

	if err := rt.tokens.Save(cmd.Context(), rt.tokenName, token); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Token %q saved\n", rt.tokenName)
	return err
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.openTokens(cmd.Context()); err != nil {
		return err
	}

	if err := rt.tokens.Delete(cmd.Context(), rt.tokenName); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Token %q removed\n", rt.tokenName)
	return err
}

// readToken reads one line from the command input, without echo when the
// input is the terminal.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
