package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/crucial707/courier/cmd/cli/client"
	"github.com/crucial707/courier/cmd/cli/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is a terminal; tests replace it.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// InitAuth registers register, login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd())
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			name, password, err := credentials(cmd, in, username)
			if err != nil {
				return err
			}

			var u client.User
			_, err = client.New("").Post(cmd.Context(), "/auth/register", map[string]string{
				"username": name,
				"password": password,
			}, &u)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %d). You can now log in.\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to register")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			name, password, err := credentials(cmd, in, username)
			if err != nil {
				return err
			}

			var resp struct {
				Token     string      `json:"token"`
				ExpiresAt time.Time   `json:"expires_at"`
				User      client.User `json:"user"`
			}
			_, err = client.New("").Post(cmd.Context(), "/auth/login", map[string]string{
				"username": name,
				"password": password,
			}, &resp)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if resp.Token == "" {
				return errors.New("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", resp.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to log in as")
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and remove it",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := config.LoadToken()
			if errors.Is(err, config.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			// An expired token is rejected by the API; the local file goes either way.
			if _, err := client.New(tok).Post(cmd.Context(), "/auth/logout", nil, nil); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: server logout failed:", err)
			}
			if _, err := config.DeleteToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// ==========================
// Whoami
// ==========================
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var u client.User
			if _, err := c.Get(cmd.Context(), "/me", &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
}

// credentials prompts for whatever the flags did not supply.
func credentials(cmd *cobra.Command, in *bufio.Reader, username string) (string, string, error) {
	out := cmd.ErrOrStderr()
	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := readLine(in)
		if err != nil {
			return "", "", err
		}
		username = line
	}
	if strings.TrimSpace(username) == "" {
		return "", "", errors.New("username is required")
	}

	fmt.Fprint(out, "Password: ")
	var password string
	if isTerminal() {
		b, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	} else {
		line, err := readLine(in)
		if err != nil {
			return "", "", err
		}
		password = line
	}
	if password == "" {
		return "", "", errors.New("password is required")
	}
	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
