package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and live transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var health healthResponse
			if err := c.get("/healthz", &health); err != nil {
				return err
			}
			var list transferListResponse
			if err := c.get("/api/v1/transfers", &list); err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(map[string]any{
					"health":    health,
					"transfers": list,
				})
			}

			fmt.Printf("server %s, version %s, up %s, %s free\n",
				health.Status,
				health.Version,
				(time.Duration(health.UptimeSeconds) * time.Second).String(),
				humanize.Bytes(uint64(health.FreeDiskBytes)))
			if q := health.Queue; q != nil {
				fmt.Printf("queue: %d queued, %d running, %d completed, %d failed\n",
					q.Queued, q.Running, q.Completed, q.Failed)
			}

			if list.Count == 0 {
				fmt.Println("no transfers")
				return nil
			}
			for _, tr := range list.Transfers {
				fmt.Printf("%s  %-10s %s  %s\n", tr.ID, tr.Status, tr.Filename, describeProgress(tr))
			}
			return nil
		},
	}
}

func describeProgress(tr transferState) string {
	if tr.Unit == "segments" {
		if tr.Total > 0 {
			return fmt.Sprintf("%d/%d segments", tr.Progress, tr.Total)
		}
		return fmt.Sprintf("%d segments", tr.Progress)
	}
	if tr.Total > 0 {
		return fmt.Sprintf("%s of %s", humanize.Bytes(uint64(tr.Progress)), humanize.Bytes(uint64(tr.Total)))
	}
	return humanize.Bytes(uint64(tr.Progress))
}
