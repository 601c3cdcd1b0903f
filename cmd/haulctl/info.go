package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show the canonical metadata of one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var resp infoResponse
			if err := c.get("/api/v1/videos/info?url="+url.QueryEscape(args[0]), &resp); err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(resp)
			}
			m := resp.Metadata
			fmt.Printf("Title:     %s\n", m.Title)
			fmt.Printf("Author:    %s\n", m.Author)
			fmt.Printf("Duration:  %s\n", (time.Duration(m.LengthSeconds) * time.Second).String())
			fmt.Printf("Published: %s\n", m.PublishDate)
			if len(m.Qualities) > 0 {
				fmt.Printf("Qualities: %s\n", strings.Join(m.Qualities, ", "))
			}
			if len(m.Tags) > 0 {
				fmt.Printf("Tags:      %s\n", strings.Join(m.Tags, ", "))
			}
			return nil
		},
	}
}
