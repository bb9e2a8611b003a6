// Package inventory: parser.go classifies free-text bulk input into
// items. Admins paste either plain "user:pass" lines or decorated
// multi-line blocks exported by credential tools; the two arrive mixed
// with blank lines and must be split apart before validation.
package inventory

import (
	"regexp"
	"strings"
)

// decoratedHeader separates multi-line blocks in the decorated export
// format. Blocks carry USERNAME/EMAIL/RESET fields and are stored as
// premium items.
const decoratedHeader = "════════════════"

var (
	simpleCredRe = regexp.MustCompile(`^[\w.-]+:[\w.-]+$`)
	usernameRe   = regexp.MustCompile(`USERNAME\s*:\s*@?\S+`)
)

// ParsedItem is one classified entry ready for insertion.
type ParsedItem struct {
	Payload string
	Tier    Tier
}

// ParseBulkInput splits raw admin input into items and rejects.
//
// Rules, in order:
//   - input containing the decorated header is split on it; each block
//     with a USERNAME and an EMAIL or RESET field becomes one premium
//     item, stored verbatim
//   - otherwise the input is split into lines; a line matching
//     "user:pass" becomes a standard item
//   - everything else is rejected and echoed back to the caller
func ParseBulkInput(text string) (items []ParsedItem, rejected []string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if strings.Contains(text, decoratedHeader) {
		for _, block := range strings.Split(text, decoratedHeader) {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			if isDecoratedBlock(block) {
				items = append(items, ParsedItem{Payload: block, Tier: TierPremium})
			} else {
				rejected = append(rejected, block)
			}
		}
		return items, rejected
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if simpleCredRe.MatchString(line) {
			items = append(items, ParsedItem{Payload: line, Tier: TierStandard})
		} else {
			rejected = append(rejected, line)
		}
	}
	return items, rejected
}

// isDecoratedBlock checks a multi-line block for the fields that make it
// usable: a username plus a way in (email or reset link).
func isDecoratedBlock(block string) bool {
	if !usernameRe.MatchString(block) {
		return false
	}
	return strings.Contains(block, "EMAIL") || strings.Contains(block, "RESET")
}
