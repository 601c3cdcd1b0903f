package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func newTransferCommand(opts *rootOptions) *cobra.Command {
	var quality string
	var outputDir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "transfer <url>",
		Short: "Queue a single-URL acquisition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()

			body := map[string]string{"url": args[0]}
			if quality != "" {
				body["quality"] = quality
			}
			if outputDir != "" {
				body["output_dir"] = outputDir
			}

			var submitted submitResponse
			if err := c.post("/api/v1/transfers", body, &submitted); err != nil {
				return err
			}

			if opts.jsonOut && !watch {
				return printJSON(submitted)
			}
			fmt.Printf("queued job %s\n", submitted.JobID)

			if !watch {
				return nil
			}
			job, err := watchJob(c, submitted.JobID)
			if err != nil {
				return err
			}
			return reportJob(opts, job)
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality token (best, half, worst, or a resolution like 720p)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Override the server's output directory")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow progress until the job finishes")
	return cmd
}

// watchJob polls the job record and renders a progress bar from the live
// transfer registry until the job reaches a terminal status.
func watchJob(c *apiClient, jobID string) (jobResponse, error) {
	var job jobResponse

	progress := mpb.New(mpb.WithWidth(48))
	var bar *mpb.Bar

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := c.get("/api/v1/jobs/"+jobID, &job); err != nil {
			return job, err
		}

		if job.TransferID != "" {
			var list transferListResponse
			if err := c.get("/api/v1/transfers", &list); err == nil {
				for _, tr := range list.Transfers {
					if tr.ID != job.TransferID {
						continue
					}
					if bar == nil {
						bar = newTransferBar(progress, tr)
					}
					bar.SetTotal(tr.Total, false)
					bar.SetCurrent(tr.Progress)
				}
			}
		}

		if job.terminal() {
			if bar != nil {
				bar.SetTotal(-1, true)
				progress.Wait()
			}
			if job.Status == "failed" {
				return job, errors.New(job.Error)
			}
			return job, nil
		}
		<-ticker.C
	}
}

// waitForJob polls without rendering progress, for bulk runs where a
// single bar would misrepresent the work.
func waitForJob(c *apiClient, jobID string) (jobResponse, error) {
	var job jobResponse
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if err := c.get("/api/v1/jobs/"+jobID, &job); err != nil {
			return job, err
		}
		if job.terminal() {
			if job.Status == "failed" {
				return job, errors.New(job.Error)
			}
			return job, nil
		}
		<-ticker.C
	}
}

func newTransferBar(progress *mpb.Progress, tr transferState) *mpb.Bar {
	name := tr.Filename
	if len(name) > 40 {
		name = name[:37] + "..."
	}

	appendDecorators := []decor.Decorator{decor.Percentage(decor.WCSyncSpace)}
	if tr.Unit == "segments" {
		appendDecorators = append(appendDecorators, decor.CountersNoUnit(" %d/%d segs"))
	} else {
		appendDecorators = append(appendDecorators, decor.CountersKibiByte(" % .1f / % .1f"))
	}

	return progress.New(tr.Total,
		mpb.BarStyle(),
		mpb.PrependDecorators(decor.Name(name, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(appendDecorators...),
	)
}

func reportJob(opts *rootOptions, job jobResponse) error {
	if opts.jsonOut {
		return printJSON(job)
	}
	switch {
	case job.Outcome == "skipped":
		fmt.Printf("skipped: %s already exists\n", job.OutputPath)
	case job.Aggregate != nil:
		agg := job.Aggregate
		fmt.Printf("done: %d succeeded, %d skipped, %d failed\n",
			agg.Succeeded, agg.Skipped, agg.Failed)
		for _, u := range agg.FailedURLs {
			fmt.Fprintf(os.Stderr, "  failed: %s\n", u)
		}
	default:
		fmt.Printf("done: %s\n", job.OutputPath)
	}
	return nil
}

func printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
