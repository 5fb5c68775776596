package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "command <console command...>",
		Short: "Send a console command to every connected instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"command": strings.Join(args, " ")}

			var result CommandResult
			if err := client.Post("/api/v1/commands", req, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
