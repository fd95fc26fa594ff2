package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typingfast/internal/api"
	"github.com/verte-zerg/typingfast/internal/auth"
)

var (
	loginUsername  string
	signupUsername string
	signupEmail    string
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	cmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username (prompted when empty)")
	return cmd
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	in := bufio.NewReader(cmd.InOrStdin())
	username := loginUsername
	if username == "" {
		if username, err = promptLine(in, "Username: "); err != nil {
			return err
		}
	}
	password, err := promptSecret(in, "Password: ")
	if err != nil {
		return err
	}

	user, err := env.session.Login(commandContext(cmd), username, password)
	if err != nil {
		return authError(err, "Invalid credentials. Please try again.")
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
	return err
}

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  runSignupCmd,
	}
	cmd.Flags().StringVarP(&signupUsername, "username", "u", "", "account username (prompted when empty)")
	cmd.Flags().StringVarP(&signupEmail, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func runSignupCmd(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	in := bufio.NewReader(cmd.InOrStdin())
	username := signupUsername
	if username == "" {
		if username, err = promptLine(in, "Username: "); err != nil {
			return err
		}
	}
	email := signupEmail
	if email == "" {
		if email, err = promptLine(in, "Email: "); err != nil {
			return err
		}
	}
	password, err := promptSecret(in, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret(in, "Confirm password: ")
	if err != nil {
		return err
	}

	user, err := env.session.Signup(commandContext(cmd), username, email, password, confirm)
	if err != nil {
		return authError(err, "Registration failed. Please try again.")
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Account created. Logged in as %s\n", user.Username)
	return err
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			if err := env.session.Logout(commandContext(cmd)); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			user, ok := env.session.CurrentUser()
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Username, user.Email)
			return err
		},
	}
}

func authError(err error, def string) error {
	if auth.IsValidation(err) {
		return err
	}
	return errors.New(api.Message(err, def))
}

func promptLine(in *bufio.Reader, label string) (string, error) {
	logErrf("%s", label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise.
func promptSecret(in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(in, label)
	}
	logErrf("%s", label)
	secret, err := term.ReadPassword(fd)
	logErrln()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
