package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/portal"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// render writes v in the selected format. table draws the human readable
// form; JSON and YAML encode v itself.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTable, "":
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func bookingRows(tw *tabwriter.Writer, bookings []model.Booking) {
	fmt.Fprintf(tw, "ID\tROOM\tDATE\tTIME\tSTATUS\tDESCRIPTION\n")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s-%s\t%s\t%s\n",
			b.ID, b.RoomName(), portal.FormatDate(b.Date),
			portal.FormatTime(b.StartTime), portal.FormatTime(b.EndTime),
			b.Status, truncate(b.Description, 40))
	}
}

func pageFooter(tw *tabwriter.Writer, p model.Pagination) {
	if p.Total == 0 {
		fmt.Fprintf(tw, "\nNo bookings found.\n")
		return
	}
	first := (p.Page-1)*p.Limit + 1
	last := p.Page * p.Limit
	if last > p.Total {
		last = p.Total
	}
	fmt.Fprintf(tw, "\nShowing %d to %d of %d results (page %d of %d)\n", first, last, p.Total, p.Page, p.TotalPages)
}

func roomRows(tw *tabwriter.Writer, rooms []model.Room) {
	fmt.Fprintf(tw, "ID\tNAME\tCAPACITY\tLOCATION\tPHOTOS\n")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", r.ID, r.Name, r.Capacity, r.Location, len(r.Photos))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
