// Command monitor renders the live transfer table of a running mediahaul
// server in the terminal, refreshing once a second.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

type transferState struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Progress   int64     `json:"progress"`
	Total      int64     `json:"total"`
	Unit       string    `json:"unit"`
	SpeedBps   float64   `json:"speed_bps"`
	LastUpdate time.Time `json:"last_update"`
}

type listResponse struct {
	Transfers []transferState `json:"transfers"`
	Count     int             `json:"count"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_s"`
	FreeDiskBytes int64  `json:"free_disk_bytes"`
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func (c *client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func main() {
	addr := flag.String("addr", "http://localhost:8473", "mediahaul server address")
	apiKey := flag.String("api-key", os.Getenv("MEDIAHAUL_API_KEY"), "API key")
	interval := flag.Duration("interval", time.Second, "refresh interval")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "monitor requires an interactive terminal")
		os.Exit(1)
	}

	c := &client{
		baseURL: *addr,
		apiKey:  *apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}

	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true).SetTitle(" Transfers ")

	status := tview.NewTextView().
		SetDynamicColors(true)
	status.SetBorder(true).SetTitle(" Server ")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(status, 3, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' || event.Key() == tcell.KeyEscape {
			app.Stop()
			return nil
		}
		return event
	})

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			var list listResponse
			listErr := c.get("/api/v1/transfers", &list)
			var health healthResponse
			healthErr := c.get("/healthz", &health)

			app.QueueUpdateDraw(func() {
				renderTable(table, list, listErr)
				renderStatus(status, health, healthErr)
			})
			<-ticker.C
		}
	}()

	if err := app.SetRoot(layout, true).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor error: %v\n", err)
		os.Exit(1)
	}
}

func renderTable(table *tview.Table, list listResponse, err error) {
	table.Clear()

	headers := []string{"ID", "FILENAME", "STATUS", "PROGRESS", "SPEED"}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}

	if err != nil {
		table.SetCell(1, 0, tview.NewTableCell(fmt.Sprintf("error: %v", err)).
			SetTextColor(tcell.ColorRed))
		return
	}

	for i, tr := range list.Transfers {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(tr.ID))
		table.SetCell(row, 1, tview.NewTableCell(tr.Filename).SetExpansion(2))
		table.SetCell(row, 2, tview.NewTableCell(tr.Status).
			SetTextColor(statusColor(tr.Status)))
		table.SetCell(row, 3, tview.NewTableCell(progressCell(tr)))
		table.SetCell(row, 4, tview.NewTableCell(speedCell(tr)))
	}
}

func renderStatus(view *tview.TextView, health healthResponse, err error) {
	if err != nil {
		view.SetText(fmt.Sprintf("[red]unreachable: %v", err))
		return
	}
	view.SetText(fmt.Sprintf("[green]%s[-] v%s  up %s  disk free %s",
		health.Status,
		health.Version,
		(time.Duration(health.UptimeSeconds) * time.Second).String(),
		humanize.Bytes(uint64(health.FreeDiskBytes)),
	))
}

func statusColor(status string) tcell.Color {
	switch status {
	case "completed":
		return tcell.ColorGreen
	case "failed":
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

func progressCell(tr transferState) string {
	if tr.Unit == "segments" {
		if tr.Total > 0 {
			return fmt.Sprintf("%d/%d segs", tr.Progress, tr.Total)
		}
		return fmt.Sprintf("%d segs", tr.Progress)
	}
	if tr.Total > 0 {
		return fmt.Sprintf("%s / %s (%.0f%%)",
			humanize.Bytes(uint64(tr.Progress)),
			humanize.Bytes(uint64(tr.Total)),
			float64(tr.Progress)/float64(tr.Total)*100)
	}
	return humanize.Bytes(uint64(tr.Progress))
}

func speedCell(tr transferState) string {
	if tr.SpeedBps <= 0 {
		return "-"
	}
	return humanize.SI(tr.SpeedBps, "bps")
}
