// Command haulctl is the command-line client for a running mediahaul
// server: submit transfers, enumerate sources, and inspect live state
// over the HTTP API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	serverURL string
	apiKey    string
	timeout   time.Duration
	jsonOut   bool
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.serverURL, o.apiKey, o.timeout)
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "haulctl",
		Short: "Client for the mediahaul acquisition server",
		Long: "haulctl talks to a running mediahaul server: queue single or bulk\n" +
			"acquisitions, enumerate creators and playlists, manage tracked\n" +
			"sources, and watch live transfer progress.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	defaultServer := os.Getenv("MEDIAHAUL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8473"
	}
	root.PersistentFlags().StringVarP(&opts.serverURL, "server", "s", defaultServer, "Server base URL")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("MEDIAHAUL_API_KEY"), "API key")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request HTTP timeout")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print raw JSON responses")

	root.AddCommand(newTransferCommand(opts))
	root.AddCommand(newBulkCommand(opts))
	root.AddCommand(newFetchCommand(opts))
	root.AddCommand(newInfoCommand(opts))
	root.AddCommand(newStatusCommand(opts))
	root.AddCommand(newSourcesCommand(opts))
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("haulctl %s (built %s)\n", Version, BuildTime)
		},
	}
}
