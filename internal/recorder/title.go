package recorder

import (
	"path"
	"strings"
	"time"
)

const openTimeLayout = "2006-01-02 15:04:05"

// ClipTitle derives a human-readable clip title from the recorder's
// relative file path: the last path element with its extension removed.
// Inputs that leave nothing after stripping are returned unchanged.
func ClipTitle(relativePath string) string {
	base := path.Base(relativePath)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return relativePath
	}
	return base
}

// FormatOpenTime renders the recorder's RFC3339 open timestamp as
// "YYYY-MM-DD HH:mm:ss", keeping the timestamp's own zone offset. If the
// value does not parse, the raw string is degraded by hand instead: the
// timezone suffix is cut and the date/time separator replaced. Never
// fails.
func FormatOpenTime(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s, _, _ := strings.Cut(raw, "+")
		return strings.ReplaceAll(s, "T", " ")
	}
	return t.Format(openTimeLayout)
}
