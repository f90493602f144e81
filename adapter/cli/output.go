package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"
)

// JSONOutput reports whether --json (or STRIDE_JSON) was given.
func JSONOutput() bool {
	return viper.GetBool("json")
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTable returns a table writer that renders to w.
func NewTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

// ParseDate parses YYYY-MM-DD as a local date in loc. An empty string means
// today.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseStart parses a block start as RFC 3339 or "YYYY-MM-DD HH:MM" in loc.
func ParseStart(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start %q, use RFC 3339 or \"YYYY-MM-DD HH:MM\"", s)
	}
	return t, nil
}

// Span formats a time range for tables.
func Span(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s - %s", start.In(loc).Format("Mon Jan 2 15:04"), end.In(loc).Format("15:04"))
}

// ShortID shortens a uuid string for table output.
func ShortID(id fmt.Stringer) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
