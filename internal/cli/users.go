package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User account commands",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersUpdateCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users, showing only the fields you may read",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []User
			if err := client.Get("/api/v1/users", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newUsersCreateCmd() *cobra.Command {
	var name, pass, email, description string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || pass == "" {
				return fmt.Errorf("--name and --pass are required")
			}

			req := map[string]any{
				"name":     name,
				"password": pass,
				"admin":    admin,
			}
			if email != "" {
				req["email"] = email
			}
			if description != "" {
				req["description"] = description
			}

			var result User
			if err := client.Post("/api/v1/users", req, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "User name (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant administrator rights")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newUsersUpdateCmd() *cobra.Command {
	var pass, email, description, linkToken string
	var admin bool

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change fields of a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only flags given on the command line are sent
			req := map[string]any{}
			flags := cmd.Flags()
			if flags.Changed("pass") {
				req["password"] = pass
			}
			if flags.Changed("email") {
				req["email"] = email
			}
			if flags.Changed("description") {
				req["description"] = description
			}
			if flags.Changed("link-token") {
				req["factorioLinkToken"] = linkToken
			}
			if flags.Changed("admin") {
				req["admin"] = admin
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result User
			if err := client.Patch("/api/v1/users/"+PathEscape(args[0]), req, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pass, "pass", "", "New password")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&linkToken, "link-token", "", "Game account link token")
	cmd.Flags().BoolVar(&admin, "admin", false, "Administrator rights")

	return cmd
}
