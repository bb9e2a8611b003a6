// Package common holds small utilities shared between features: text
// truncation for Telegram display, credential masking, duration formatting.
package common

import (
	"fmt"
	"strings"
	"time"
)

// Truncate shortens s to max runes, appending "..." when it was cut.
// Used when echoing rejected bulk-add entries and logging message text.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// MaskCredential hides the password part of a "user:pass" payload for
// display in redemption history. Payloads without a colon are returned
// unchanged.
//
//	MaskCredential("alice:hunter2") → "alice:•••••••"
func MaskCredential(payload string) string {
	i := strings.Index(payload, ":")
	if i < 0 {
		return payload
	}
	return payload[:i+1] + strings.Repeat("•", len(payload)-i-1)
}

// FormatDuration renders a countdown as "Hh Mm Ss".
// Non-positive durations render as "now".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatDateTime formats a timestamp for history and report listings.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// PluralizePoints returns "point" or "points" for n.
func PluralizePoints(n int) string {
	if n == 1 || n == -1 {
		return "point"
	}
	return "points"
}
