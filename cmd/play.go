package cmd

import (
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [playlist-id]",
	Short: "Start the quiz, optionally jumping straight into a playlist",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runApp(cmd, nil)
		}
		return runApp(cmd, &args[0])
	},
}
