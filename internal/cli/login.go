package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in and cache the bearer token in the session file.

The password is read without echo. Set VISADESK_PASSWORD to log in
non-interactively.

Examples:
  visadesk login --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sess.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	reader := bufio.NewReader(os.Stdin)

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password, err := readPassword(reader)
	if err != nil {
		return err
	}

	result, err := apiClient.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	sess.SetUser(result.Token, result.User)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	apiClient.SetToken(result.Token)

	logger.Info("logged in", "user_id", result.User.ID, "role", result.User.Role)
	fmt.Printf("Logged in as %s (%s)\n", result.User.Email, result.User.Role)
	return nil
}

func readPassword(reader *bufio.Reader) (string, error) {
	if pw := os.Getenv("VISADESK_PASSWORD"); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if !sess.LoggedIn(time.Now()) {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("User:   %s <%s>\n", sess.Name, sess.Email)
	fmt.Printf("Role:   %s\n", sess.EffectiveRole())
	fmt.Printf("Server: %s\n", apiClient.BaseURL())
	if sess.LastProjectID != "" {
		fmt.Printf("Project: %s\n", sess.LastProjectID)
	}
	if claims, err := sess.Claims(); err == nil && claims.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
	}

	if verbose {
		user, err := apiClient.Me(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		fmt.Printf("Server says: %s (%s)\n", user.Email, user.Role)
	}
	return nil
}
