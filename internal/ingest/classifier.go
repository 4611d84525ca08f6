package ingest

import (
	"regexp"
	"strings"
)

// Tool-call failure patterns emitted by the chat backend's AI SDK.
var (
	reExecutingTool = regexp.MustCompile(`(?i)error executing tool ([a-zA-Z0-9_-]+)`)
	reInvalidArgs   = regexp.MustCompile(`(?i)invalid arguments for tool ([a-zA-Z0-9_-]+)`)
)

// Labels for high-frequency failure categories that carry no tool name.
const (
	labelRateLimit    = "rate_limit"
	labelUnknownError = "unknown_error"
)

// knownTools are tool-name substrings checked in fixed order. Order
// matters: "artist_deep_research" must be tried before "artist_research"
// and "deep_research", which it contains or co-occurs with.
var knownTools = []string{
	"send_email",
	"artist_deep_research",
	"artist_research",
	"get_spotify_top_tracks",
	"deep_research",
}

// ClassifyTool guesses which tool was being invoked when an error
// occurred. Heuristics run in a fixed priority order and the first match
// wins; an empty string means no heuristic matched. Callers may fall back
// to the reported error type as a last-resort label.
func ClassifyTool(text string) string {
	if m := reExecutingTool.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reInvalidArgs.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "rate limit") {
		return labelRateLimit
	}
	if strings.Contains(text, "[object Object]") {
		return labelUnknownError
	}

	for _, tool := range knownTools {
		if strings.Contains(text, tool) {
			return tool
		}
	}

	return ""
}
