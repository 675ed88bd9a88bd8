package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <playlist-id>",
	Short: "Forget a playlist's progress so it counts as activated again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.playlist(args[0])
		if err != nil {
			return err
		}
		if err := d.engine.Tracker().Reset(cmd.Context(), p); err != nil {
			return fmt.Errorf("reset %s: %w", p.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s cleared.\n", p.ID)
		return nil
	},
}
