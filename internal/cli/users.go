package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"ragoalert/internal/config"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage monitored users",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersAddCmd(app))
	cmd.AddCommand(newUsersRemoveCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users := app.Users.All()
			if len(users) == 0 {
				cmd.Println("no users registered")
				return nil
			}
			for _, email := range app.Users.Emails() {
				p := users[email]
				flags := make([]string, 0, 2)
				if p.Fluctuation.Enabled {
					flags = append(flags, "fluctuation")
				}
				if p.Trend.Enabled {
					flags = append(flags, "trend")
				}
				monitors := strings.Join(flags, ",")
				if monitors == "" {
					monitors = "-"
				}
				cmd.Printf("%-30s %-20s %s\n", email, p.Profile.Name, monitors)
			}
			return nil
		},
	}
}

func newUsersAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = args[0]
			}
			if err := app.Users.Upsert(args[0], config.DefaultUserProfile(name)); err != nil {
				return err
			}
			cmd.Printf("added %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name")
	return cmd
}

func newUsersRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Users.Delete(args[0]); err != nil {
				return err
			}
			cmd.Printf("removed %s\n", args[0])
			return nil
		},
	}
}
