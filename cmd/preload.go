package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/tunequiz/internal/engine"
)

var preloadCmd = &cobra.Command{
	Use:   "preload <playlist-id>",
	Short: "Fetch a playlist's pictures and samples and report failures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.playlist(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		start := time.Now()
		if err := d.engine.Preload(ctx, p); err != nil {
			return err
		}

		for {
			select {
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return fmt.Errorf("preload of %s timed out after %s", p.ID, timeout)
				}
				return ctx.Err()
			case ev, ok := <-d.engine.Events():
				if !ok {
					return engine.ErrClosed
				}
				done, isDone := ev.(engine.PreloadCompleted)
				if !isDone || done.Playlist.ID != p.ID {
					continue
				}
				r := done.Report
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d fetched, %d cached, %d failed in %s\n",
					p.ID, r.Fetched, r.Skipped, r.Failed, time.Since(start).Round(time.Millisecond))
				if r.Failed > 0 {
					return fmt.Errorf("%d assets failed to load", r.Failed)
				}
				return nil
			}
		}
	},
}

func init() {
	preloadCmd.Flags().Duration("timeout", 5*time.Minute, "Give up after this long")
}
