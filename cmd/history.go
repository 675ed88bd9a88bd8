package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [playlist-id]",
	Short: "Show recent quiz sessions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		answers, _ := cmd.Flags().GetBool("answers")

		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		var playlistID string
		if len(args) == 1 {
			playlistID = args[0]
		}

		ctx := cmd.Context()
		repo := d.store.EventRepo()
		sessions, err := repo.RecentSessions(ctx, playlistID, limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions yet.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("When", "Playlist", "Score", "Duration", "Status", "Session")
		for _, s := range sessions {
			t.Row(
				s.Timestamp.Local().Format("2006-01-02 15:04"),
				s.PlaylistID,
				fmt.Sprintf("%d/%d", s.Correct, s.Questions),
				fmt.Sprintf("%.1fs", s.Duration.Seconds()),
				s.Status,
				s.SessionID,
			)
		}
		fmt.Fprintln(out, t.String())

		if !answers {
			return nil
		}
		for _, s := range sessions {
			rows, err := repo.SessionAnswers(ctx, s.SessionID)
			if err != nil {
				return fmt.Errorf("query answers for %s: %w", s.SessionID, err)
			}
			fmt.Fprintf(out, "\n%s (%s)\n", s.SessionID, s.PlaylistID)
			for _, a := range rows {
				mark := "wrong"
				switch {
				case a.Correct:
					mark = "correct"
				case a.TimedOut:
					mark = "timeout"
				}
				fmt.Fprintf(out, "  %2d. %-32s %-8s %5.1fs\n", a.QuestionIndex+1, a.SongID, mark, a.Time.Seconds())
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of sessions to show")
	historyCmd.Flags().Bool("answers", false, "Also list each session's answers")
}
