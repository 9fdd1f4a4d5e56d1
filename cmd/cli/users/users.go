package users

import (
	"fmt"

	"github.com/crucial707/courier/cmd/cli/client"
	"github.com/crucial707/courier/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitUsers registers the users command on the root command.
func InitUsers(rootCmd *cobra.Command) {
	rootCmd.AddCommand(listUsersCmd())
}

// ==========================
// LIST
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List everyone you can message",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}

			var users []client.User
			raw, err := c.Get(cmd.Context(), "/users", &users)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), raw)
			}
			if len(users) == 0 {
				output.Empty(cmd.OutOrStdout(), "other users")
				return nil
			}

			rows := make([][]interface{}, 0, len(users))
			for _, u := range users {
				rows = append(rows, []interface{}{u.ID, u.Username, output.Time(u.CreatedAt)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Joined"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}
