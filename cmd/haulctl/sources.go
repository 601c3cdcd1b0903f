package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSourcesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage tracked sources",
	}
	cmd.AddCommand(newSourcesListCommand(opts))
	cmd.AddCommand(newSourcesAddCommand(opts))
	cmd.AddCommand(newSourcesRemoveCommand(opts))
	cmd.AddCommand(newSourcesSyncCommand(opts))
	return cmd
}

func newSourcesListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp sourcesResponse
			if err := opts.client().get("/api/v1/sources", &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(resp)
			}
			if resp.Count == 0 {
				fmt.Println("no tracked sources")
				return nil
			}
			for _, src := range resp.Sources {
				name := src.Name
				if name == "" {
					name = "-"
				}
				fmt.Printf("%s  %-8s %-20s %s\n", src.ID, src.Kind, name, src.Query)
			}
			return nil
		},
	}
}

func newSourcesAddCommand(opts *rootOptions) *cobra.Command {
	var name string
	var kind string
	var quality string

	cmd := &cobra.Command{
		Use:   "add <query>",
		Short: "Track a new source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"kind":  kind,
				"query": args[0],
			}
			if name != "" {
				body["name"] = name
			}
			if quality != "" {
				body["quality"] = quality
			}

			var src trackedSource
			if err := opts.client().post("/api/v1/sources", body, &src); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(src)
			}
			fmt.Printf("tracking %s as %s\n", src.Query, src.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&kind, "kind", "k", "model", "Listing kind: model, playlist, or search")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Default quality for syncs of this source")
	return cmd
}

func newSourcesRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <source-id>",
		Short: "Stop tracking a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().delete("/api/v1/sources/" + args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}

func newSourcesSyncCommand(opts *rootOptions) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "sync <source-id>",
		Short: "Queue a bulk acquisition from a tracked source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			var submitted submitResponse
			if err := c.post("/api/v1/sources/"+args[0]+"/sync", nil, &submitted); err != nil {
				return err
			}

			if opts.jsonOut && !wait {
				return printJSON(submitted)
			}
			fmt.Printf("queued job %s\n", submitted.JobID)

			if !wait {
				return nil
			}
			job, err := waitForJob(c, submitted.JobID)
			if err != nil {
				return err
			}
			return reportJob(opts, job)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the sync finishes and print the aggregate")
	return cmd
}
