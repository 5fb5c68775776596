package cli

import (
	"github.com/spf13/cobra"
)

// newNameListCmd builds the commands for the whitelist or the banlist
func newNameListCmd(list, short string) *cobra.Command {
	path := "/api/v1/" + list

	cmd := &cobra.Command{
		Use:   list,
		Short: short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every name on the " + list,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result NameList
			if err := client.Get(path, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a name to the " + list,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ListChange
			if err := client.Post(path, map[string]string{"name": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			switch {
			case cfg.Output == "json":
				out.Print(result)
			case result.Added:
				out.PrintMessage("Added " + result.Name)
			default:
				out.PrintMessage(result.Name + " is already listed")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a name from the " + list,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(path + "/" + PathEscape(args[0])); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Removed " + args[0])
			return nil
		},
	})

	return cmd
}
