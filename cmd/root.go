package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunequiz",
	Short: "Name-that-tune music trivia",
	Long: `TuneQuiz plays short song samples and asks you to pick the right
artist and title from four choices. Playlists become mastered once every
question is answered correctly.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUNEQUIZ_DB)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to playlist catalog JSON (overrides TUNEQUIZ_CATALOG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides TUNEQUIZ_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(playlistsCmd)
	rootCmd.AddCommand(preloadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
