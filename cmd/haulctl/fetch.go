package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	var kind string
	var providers []string
	var limit int
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "fetch <query>",
		Short: "Enumerate a listing without transferring anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			params := url.Values{}
			params.Set("kind", kind)
			params.Set("query", args[0])
			if len(providers) > 0 {
				params.Set("providers", strings.Join(providers, ","))
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			if delay > 0 {
				params.Set("delay_ms", strconv.FormatInt(delay.Milliseconds(), 10))
			}

			var resp fetchResponse
			if err := c.get("/api/v1/videos?"+params.Encode(), &resp); err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(resp)
			}
			for _, v := range resp.Videos {
				fmt.Printf("%s\t%s\n", v.URL, v.Title)
			}
			fmt.Printf("%d videos\n", resp.Count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "model", "Listing kind: model, playlist, or search")
	cmd.Flags().StringSliceVarP(&providers, "providers", "p", nil, "Restrict search to these providers")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum results (0 = server default)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Per-request courtesy delay override (e.g. 500ms)")
	return cmd
}
