package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Tracked player commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every tracked player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Player
			if err := client.Get("/api/v1/players", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Show one player's reported fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player
			if err := client.Get("/api/v1/players/"+PathEscape(args[0]), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Forget a tracked player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/players/" + PathEscape(args[0])); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Deleted player " + args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Follow players joining, connecting and disconnecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)
			return client.Stream("/api/v1/players/events", func(event, data string) error {
				if event == "connected" {
					return nil
				}
				var p Player
				if err := json.Unmarshal([]byte(data), &p); err != nil {
					return err
				}
				out.Print(PlayerEvent{Event: event, Player: p})
				return nil
			})
		},
	})

	return cmd
}
