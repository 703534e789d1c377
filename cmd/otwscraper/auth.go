package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"otwscraper/pkg/auth"
	"otwscraper/pkg/ui"
)

var logoutAll bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn session cookies",
	Long: `Manage stored LinkedIn session cookies.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with a machine-bound key
  - Environment variables (OTWSCRAPER_LI_AT, read only)

The li_at cookie grants full access to the account. Never share it.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store a LinkedIn session cookie",
	Long: `Store the li_at cookie of a logged-in LinkedIn session under an account name.

The value is read without echo. The account name defaults to "default".`,
	Example: `  # Store the default account
  otwscraper auth login

  # Store a named account
  otwscraper auth login recruiting`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored session cookie",
	Example: `  otwscraper auth logout
  otwscraper auth logout recruiting
  otwscraper auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status [account]",
	Short: "Show whether an account has a stored cookie",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with their cookies masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(listCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

func accountArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAccount
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := accountArg(args)
	reader := bufio.NewReader(os.Stdin)

	auth.WriteCookieGuide(ui.Out)
	fmt.Fprintln(ui.Out)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(ui.Out, "Account '%s' already has a cookie. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var cookie string
	for {
		fmt.Fprint(ui.Out, "li_at cookie value: ")
		cookie, err = readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		fmt.Fprintln(ui.Out)

		if cookie == "help" {
			auth.WriteCookieGuide(ui.Out)
			continue
		}
		if err := auth.ValidateCookie(cookie); err != nil {
			ui.PrintWarning("That doesn't look like an li_at value", err)
			auth.WriteQuickGuide(ui.Out)
			fmt.Fprint(ui.Out, "Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return withExitCode(1, errors.New("no cookie stored"))
			}
			continue
		}
		break
	}

	account := &auth.Account{
		Name:          name,
		SessionCookie: cookie,
		LastModified:  time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store cookie: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Cookie stored for account '%s'", name))
	if name != auth.DefaultAccount {
		ui.PrintInfo("Use it with", "otwscraper search --account "+name)
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove accounts: %w", err)
		}
		ui.PrintSuccess("All stored accounts removed")
		return nil
	}

	name := accountArg(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account '%s': %w", name, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Account '%s' removed", name))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := accountArg(args)
	account, err := manager.Retrieve(name)
	if err != nil {
		ui.PrintWarning(fmt.Sprintf("No cookie stored for '%s'", name))
		ui.PrintInfo("Store one with", "otwscraper auth login "+name)
		return withExitCode(1, nil)
	}

	safe := auth.SanitizeAccount(account)
	ui.PrintInfo("Account", safe.Name)
	ui.PrintInfo("li_at", safe.SessionCookie)
	if !safe.LastModified.IsZero() {
		ui.PrintInfo("Stored", safe.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		ui.PrintInfo("Store one with", "otwscraper auth login")
		return nil
	}

	fmt.Fprintf(ui.Out, "\nStored accounts (%d):\n", len(accounts))
	for _, a := range accounts {
		safe := auth.SanitizeAccount(a)
		stored := ""
		if !safe.LastModified.IsZero() {
			stored = ui.Dim(" stored " + safe.LastModified.Format("2006-01-02"))
		}
		fmt.Fprintf(ui.Out, "  • %s  %s%s\n", ui.Cyan(safe.Name), safe.SessionCookie, stored)
	}
	return nil
}
