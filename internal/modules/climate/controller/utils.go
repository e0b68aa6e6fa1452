package controller

import (
	"fmt"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

// parseStatsRange reads the {start} and optional {end} path values. Both must be
// calendar dates; their order is not checked, an inverted range just matches nothing.
func parseStatsRange(r *http.Request) (start, end string, err error) {
	start, err = parseDate("start", r.PathValue("start"))
	if err != nil {
		return "", "", err
	}
	if s := r.PathValue("end"); s != "" {
		end, err = parseDate("end", s)
		if err != nil {
			return "", "", err
		}
	}
	return start, end, nil
}

func parseDate(name, s string) (string, error) {
	if _, err := time.Parse(dateLayout, s); err != nil || len(s) != len(dateLayout) {
		return "", fmt.Errorf("invalid '%s' (expected YYYY-MM-DD)", name)
	}
	return s, nil
}
