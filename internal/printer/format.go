package printer

import (
	"fmt"
	"time"
)

// FormatBytes returns a human-readable byte size, e.g. "512 B", "1.5 KB", "700.0 MB".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}

	units := []string{"KB", "MB", "GB", "TB"}
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	v := float64(bytes) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}

// TimeAgo returns how long ago t happened relative to now, e.g. "3 minutes ago".
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return "in the future"
	}

	amount, unit := int(diff.Seconds()), "second"
	switch {
	case diff >= 24*time.Hour:
		amount, unit = int(diff.Hours()/24), "day"
	case diff >= time.Hour:
		amount, unit = int(diff.Hours()), "hour"
	case diff >= time.Minute:
		amount, unit = int(diff.Minutes()), "minute"
	}

	if amount != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", amount, unit)
}

// FormatTimestamp returns the timestamp in UTC, "2006-01-02 15:04:05 UTC" format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
