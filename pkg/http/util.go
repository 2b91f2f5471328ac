package http

import (
	"strings"
	"time"

	xutil "Lenxys/pkg/util"
)

// ParseTime accepts RFC3339 or unix seconds.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

// SplitCSV splits a comma separated query value, dropping blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
