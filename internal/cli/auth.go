package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session token",
	Long: `Sign in with email and password. The token is saved in the configured
token store (CLARUS_TOKEN_STORE). Without --password the password is read
from the first line of stdin.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session token",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)

	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().String("email", "", "Account email")
		c.Flags().String("password", "", "Account password (read from stdin when empty)")
		_ = c.MarkFlagRequired("email")
	}
}

func readCredentials(cmd *cobra.Command) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("--email is required")
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		password, err = readLine(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}
	return email, password, nil
}

func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if sc.Scan() {
		return strings.TrimRight(sc.Text(), "\r"), nil
	}
	return "", sc.Err()
}

func runAuth(cmd *cobra.Command, action func(rt *runtime, ctx context.Context, email, password string) error) error {
	email, password, err := readCredentials(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := action(rt, ctx, email, password); err != nil {
		return err
	}

	s := rt.app.Snapshot()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
	printSubscription(cmd.OutOrStdout(), s.Subscription, s.SubscriptionError)
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	return runAuth(cmd, func(rt *runtime, ctx context.Context, email, password string) error {
		return rt.app.Register(ctx, email, password)
	})
}

func runLogin(cmd *cobra.Command, _ []string) error {
	return runAuth(cmd, func(rt *runtime, ctx context.Context, email, password string) error {
		return rt.app.Login(ctx, email, password)
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.app.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}
