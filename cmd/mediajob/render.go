package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maauso/mediajob/internal/job"
	"github.com/maauso/mediajob/internal/media"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderLog(entries []job.Entry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.At.Format("15:04:05"),
			e.Text,
		})
	}
	return renderTable([]string{"#", "Time", "Entry"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}

// sizer reports artifact sizes.
type sizer interface {
	Size(path string) (int64, error)
}

func renderSummary(s job.Snapshot, sizes sizer) string {
	rows := [][]string{{"Job", s.ID}, {"Status", string(s.Status)}}
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, []string{label, value})
		}
	}
	withSize := func(path string) string {
		if path == "" {
			return ""
		}
		n, err := sizes.Size(path)
		if err != nil {
			return path
		}
		return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(n)))
	}

	add("Source", s.SourceURI)
	add("Staged", s.StagedPath)
	add("Thumbnail", withSize(s.ThumbnailPath))
	add("Output", withSize(s.OutputPath))
	add("Saved to", s.Location)
	add("Error", s.Error)

	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func renderPlan(invocations []media.Invocation) string {
	rows := make([][]string, 0, len(invocations))
	for _, inv := range invocations {
		rows = append(rows, []string{string(inv.Kind), inv.String()})
	}
	return renderTable([]string{"Step", "Command"}, rows, nil)
}

// busyReporter prints one line each time the job enters a new busy status.
type busyReporter struct {
	w        io.Writer
	colorize bool
	last     job.Status
}

func newBusyReporter(w io.Writer, colorize bool) *busyReporter {
	return &busyReporter{w: w, colorize: colorize}
}

func (b *busyReporter) Observe(s job.Snapshot) {
	if !s.IsBusy || s.Status == b.last {
		b.last = s.Status
		return
	}
	b.last = s.Status
	fmt.Fprintln(b.w, renderBusyLine(s.Status, b.colorize))
}

func renderBusyLine(status job.Status, colorize bool) string {
	line := "  busy: " + strings.ToLower(strings.ReplaceAll(string(status), "_", " ")) + "..."
	if colorize {
		return ansiYellow + line + ansiReset
	}
	return line
}
