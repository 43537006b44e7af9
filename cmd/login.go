package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/cmd/backend"
)

func NewLoginCmd(newClient ClientFactory, passwords backend.PasswordReader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		Long: `Log in with a username and password. Missing values are prompted for, the
password without echo. --password-stdin reads the password from stdin for scripts.
Tokens are kept in the credentials file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			fromStdin, _ := cmd.Flags().GetBool("password-stdin")

			in := bufio.NewReader(cmd.InOrStdin())
			if fromStdin {
				if username == "" {
					return fmt.Errorf("--password-stdin requires --username")
				}
				data, err := io.ReadAll(in)
				if err != nil {
					return fmt.Errorf("could not read password: %w", err)
				}
				password = strings.TrimRight(string(data), "\r\n")
			}

			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				line, err := in.ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("could not read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			if username == "" {
				return fmt.Errorf("username must not be empty")
			}

			if password == "" && !fromStdin {
				var err error
				password, err = passwords.ReadPassword("Password: ")
				if err != nil {
					return fmt.Errorf("could not read password: %w", err)
				}
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			if _, err := c.Login(cmd.Context(), username, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s at %s\n", username, c.BaseURL())
			return nil
		},
	}

	cmd.Flags().StringP("username", "u", "", "account username")
	cmd.Flags().StringP("password", "p", "", "account password, prompted for when empty")
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")

	return cmd
}

func NewLogoutCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if !c.LoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := c.Logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// NewStatusCmd reports whether the stored session is still accepted by the API.
func NewStatusCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the API and the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			health, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("API at %s is unreachable: %w", c.BaseURL(), err)
			}
			fmt.Fprintf(out, "API: %s (%s)\n", c.BaseURL(), health.Status)

			if !c.LoggedIn() {
				fmt.Fprintln(out, "Session: not logged in")
				return nil
			}
			valid, err := c.Verify(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not verify session: %w", err)
			}
			if valid {
				fmt.Fprintln(out, "Session: active")
			} else {
				fmt.Fprintln(out, "Session: expired")
			}
			return nil
		},
	}
}
