package ingest

import (
	"regexp"
	"strings"
)

// Bulk-import files separate alert blocks with either a dashed separator
// line or a run of blank lines. Alerts contain single blank lines between
// sections, so only runs of two or more count as a boundary.
var reBlockSeparator = regexp.MustCompile(`(?m)^\s*-{3,}\s*$|\n\s*\n\s*\n`)

// SplitBlocks splits operator-pasted text into candidate alert blocks.
// A block qualifies only when it is at least minLen bytes long and
// contains the alert marker; everything else in the file is ignored.
func SplitBlocks(text string, minLen int) []string {
	blocks := []string{}
	for _, block := range reBlockSeparator.Split(text, -1) {
		block = strings.TrimSpace(block)
		if len(block) < minLen {
			continue
		}
		if !isAlertText(block) {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// isAlertText reports whether text carries the alert marker, with or
// without the leading glyph.
func isAlertText(text string) bool {
	return strings.Contains(text, AlertMarker)
}
