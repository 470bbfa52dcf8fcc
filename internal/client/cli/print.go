package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/profile"
)

// printProfile writes the non-empty fields of p as aligned rows.
func printProfile(w io.Writer, p *profile.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	rows := [][2]string{
		{"id", p.ID.String()},
		{"etag", string(p.Token)},
		{"published", formatTime(p.Published)},
		{"updated", formatTime(p.Updated)},
		{"email", p.Email},
		{"name", p.DisplayName},
		{"locale", p.Locale},
		{"tz", p.TimeZone},
		{"bio", p.Bio},
		{"website", p.Website},
		{"avatar", p.AvatarURL},
		{"phone", p.Phone},
	}
	if p.Verified {
		rows = append(rows, [2]string{"verified", "true"})
	}
	if p.BirthYear != 0 {
		rows = append(rows, [2]string{"birth-year", strconv.Itoa(p.BirthYear)})
	}

	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// printSummary writes one line per profile.
func printSummary(w io.Writer, items []*profile.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tUPDATED"); err != nil {
		return err
	}
	for _, p := range items {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Email, p.DisplayName, formatTime(p.Updated)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
