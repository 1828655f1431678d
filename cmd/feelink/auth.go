// ABOUTME: CLI commands for authentication: login, register, logout, whoami.
// ABOUTME: Credentials persist locally; logout clears them.
package main

import (
	"fmt"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/feelink/internal/api"
)

var (
	registerLanguage string
	registerTimezone string
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store session credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		if err := theApp.client.Login(cmd.Context(), args[0], password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		color.Green("✓ Signed in as %s", args[0])
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Long: `Create an account on the configured server.

The password must be at least 8 characters with an uppercase letter, a
lowercase letter, and a digit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		req := api.RegisterRequest{
			Email:    args[0],
			Password: password,
			Language: registerLanguage,
			Timezone: registerTimezone,
		}
		if err := theApp.client.Register(cmd.Context(), req); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		color.Green("✓ Account created for %s", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored session credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := theApp.client.Logout(); err != nil {
			return err
		}
		color.Green("✓ Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !theApp.client.LoggedIn() {
			return fmt.Errorf("not signed in")
		}
		if err := theApp.user.Load(cmd.Context()); err != nil {
			return err
		}
		u := theApp.user.State().Get().User
		fmt.Printf("%s\n", u.Email)
		if u.Name != nil {
			fmt.Printf("  name      %s\n", *u.Name)
		}
		fmt.Printf("  language  %s\n", u.Language)
		fmt.Printf("  timezone  %s\n", u.Timezone)
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}

func init() {
	registerCmd.Flags().StringVar(&registerLanguage, "language", "en", "preferred language (en, pl)")
	registerCmd.Flags().StringVar(&registerTimezone, "timezone", "UTC", "IANA timezone")
}
