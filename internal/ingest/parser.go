// Package ingest normalizes raw Telegram error alerts into structured
// ErrorReport rows and handles deduplicated persistence across the three
// ingestion channels (bulk import, webhook push, poll sync).
package ingest

import (
	"regexp"
	"strings"
	"time"
)

// Extraction regexes compiled once at package init. Each rule is
// independent: a section that is missing simply yields a nil field.
var (
	reFrom         = regexp.MustCompile(`(?m)^From:\s*(.+)$`)
	reRoomID       = regexp.MustCompile(`(?m)^Room ID:\s*(.+)$`)
	reTime         = regexp.MustCompile(`(?m)^Time:\s*(.+)$`)
	reErrorMessage = regexp.MustCompile(`(?s)Error Message:\s*(.*?)\s*(?:Error Type:|Stack Trace:|Last Message:|$)`)
	reErrorType    = regexp.MustCompile(`(?m)^Error Type:\s*(.+)$`)
	reLastMessage  = regexp.MustCompile(`(?s)Last Message:\s*(.+)$`)
	reStackTrace   = regexp.MustCompile("(?s)Stack Trace:\\s*```(.*?)```")
)

// ParsedFields holds the optional structured fields extracted from one
// alert. Nil means the labeled section was absent or unparseable.
type ParsedFields struct {
	UserEmail      *string
	RoomID         *string
	ErrorTimestamp *time.Time
	ErrorMessage   *string
	ErrorType      *string
	ToolName       *string
	LastMessage    *string
	StackTrace     *string
}

// Parse extracts structured fields from one raw alert text block. It is
// total: any input, including the empty string or text with no labeled
// sections, produces a valid ParsedFields with nils for missing fields.
func Parse(text string) ParsedFields {
	var f ParsedFields

	if m := reFrom.FindStringSubmatch(text); m != nil {
		f.UserEmail = strptr(unescape(m[1]))
	}
	if m := reRoomID.FindStringSubmatch(text); m != nil {
		f.RoomID = strptr(unescape(m[1]))
	}
	if m := reTime.FindStringSubmatch(text); m != nil {
		// A bad timestamp is treated as absent, not an error.
		if ts, err := time.Parse(time.RFC3339, unescape(m[1])); err == nil {
			utc := ts.UTC()
			f.ErrorTimestamp = &utc
		}
	}
	if m := reErrorMessage.FindStringSubmatch(text); m != nil {
		if msg := strings.TrimSpace(m[1]); msg != "" {
			f.ErrorMessage = &msg
		}
	}
	if m := reErrorType.FindStringSubmatch(text); m != nil {
		f.ErrorType = strptr(strings.TrimSpace(m[1]))
	}
	if m := reLastMessage.FindStringSubmatch(text); m != nil {
		if msg := strings.TrimSpace(m[1]); msg != "" {
			f.LastMessage = &msg
		}
	}
	if m := reStackTrace.FindStringSubmatch(text); m != nil {
		if trace := strings.TrimSpace(m[1]); trace != "" {
			f.StackTrace = &trace
		}
	}

	// Classify against the error message when we have one; the full text
	// otherwise, so unlabeled alerts still get a best-effort tool name.
	classifyInput := text
	if f.ErrorMessage != nil {
		classifyInput = *f.ErrorMessage
	}
	if tool := ClassifyTool(classifyInput); tool != "" {
		f.ToolName = &tool
	}

	return f
}

// unescape strips the backslash escapes Telegram's MarkdownV2 formatting
// leaves in alert values (e.g. "sam@example\.com").
func unescape(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\`, ""))
}

func strptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
