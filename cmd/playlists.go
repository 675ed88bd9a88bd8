package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List playlists with their status and progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		tracker := d.engine.Tracker()

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "Title", "Questions", "Progress", "Status")
		for _, p := range d.catalog.Playlists() {
			n, st, err := tracker.Progress(ctx, p)
			if err != nil {
				return fmt.Errorf("progress for %s: %w", p.ID, err)
			}
			t.Row(p.ID, p.Title, fmt.Sprint(p.Len()), fmt.Sprintf("%d/%d", n, p.Len()), st.String())
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.String())
		fmt.Fprintf(out, "\n%d playlists (policy: %s)\n", d.catalog.Len(), tracker.Policy())
		return nil
	},
}
