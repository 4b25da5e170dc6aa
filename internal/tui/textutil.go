package tui

import (
	"fmt"
	"strings"
)

// truncateEnd shortens s to at most limit runes, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// formatPlaytime renders minutes as hours and minutes.
func formatPlaytime(minutes int) string {
	if minutes <= 0 {
		return "never played"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// formatSize renders a size in megabytes.
func formatSize(mb *int64) string {
	if mb == nil || *mb <= 0 {
		return "unknown"
	}
	if *mb < 1024 {
		return fmt.Sprintf("%d MB", *mb)
	}
	return fmt.Sprintf("%.1f GB", float64(*mb)/1024)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
