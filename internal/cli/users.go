package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/visadesk/internal/dialog"
	"github.com/raphaelgruber/visadesk/internal/listing"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	userSearch string
	userRole   string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts (admin only)",
	Long: `List accounts, change roles and delete users.

These commands are hidden from non-admin sessions. The backend still checks
every request.

Examples:
  visadesk users
  visadesk users --role copywriter --search example.com
  visadesk users set-role u17 admin
  visadesk users delete u17`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return sess.RequireAdmin(time.Now())
	},
	RunE: runUsersList,
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersSetRole,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	usersCmd.Flags().StringVarP(&userSearch, "search", "s", "", "search name and email")
	usersCmd.Flags().StringVar(&userRole, "role", "", "only users with this role")

	usersCmd.AddCommand(usersSetRoleCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	users, err := apiClient.ListUsers(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	users = listing.Filter(users, listing.Users, listing.Query{Search: userSearch, Category: userRole})

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	fmt.Printf("%-12s %-20s %-30s %-11s %s\n", "ID", "NAME", "EMAIL", "ROLE", "CREATED")
	fmt.Println(strings.Repeat("-", 88))
	for _, u := range users {
		fmt.Printf("%-12s %-20s %-30s %-11s %s\n",
			u.ID, models.Truncate(u.Name, 20), models.Truncate(u.Email, 30), u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runUsersSetRole(cmd *cobra.Command, args []string) error {
	role := models.Role(strings.ToLower(args[1]))
	if !role.Valid() {
		return fmt.Errorf("unknown role %q (want admin, copywriter or viewer)", args[1])
	}
	if args[0] == sess.UserID && role != models.RoleAdmin {
		if err := confirmer.Require("This removes your own admin access. Continue?"); err != nil {
			return cancelledOK(err)
		}
	}

	user, err := apiClient.SetUserRole(commandContext(cmd), args[0], role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	fmt.Printf("%s is now %s\n", user.Email, user.Role)
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	if err := confirmer.Require(fmt.Sprintf("Delete user %s?", args[0])); err != nil {
		return cancelledOK(err)
	}
	if err := apiClient.DeleteUser(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	fmt.Printf("Deleted user %s\n", args[0])
	return nil
}

// cancelledOK turns a declined confirmation into a clean exit.
func cancelledOK(err error) error {
	if errors.Is(err, dialog.ErrCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
