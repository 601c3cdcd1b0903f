package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBulkCommand(opts *rootOptions) *cobra.Command {
	var kind string
	var providers []string
	var quality string
	var outputDir string
	var haltOnError bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "bulk <query>",
		Short: "Queue an enumerate-and-transfer-all acquisition",
		Long: "bulk enumerates a listing (a creator page, a playlist URL, or a\n" +
			"search query, per --kind) and transfers every item it yields.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			body := map[string]any{
				"kind":  kind,
				"query": args[0],
			}
			if len(providers) > 0 {
				body["providers"] = providers
			}
			if quality != "" {
				body["quality"] = quality
			}
			if outputDir != "" {
				body["output_dir"] = outputDir
			}
			if haltOnError {
				body["halt_on_error"] = true
			}

			var submitted submitResponse
			if err := c.post("/api/v1/transfers/bulk", body, &submitted); err != nil {
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

	cmd.Flags().StringVarP(&kind, "kind", "k", "model", "Listing kind: model, playlist, or search")
	cmd.Flags().StringSliceVarP(&providers, "providers", "p", nil, "Restrict search to these providers")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality token for every item")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Override the server's output directory")
	cmd.Flags().BoolVar(&haltOnError, "halt-on-error", false, "Stop the run at the first failed item")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the job finishes and print the aggregate")
	return cmd
}
