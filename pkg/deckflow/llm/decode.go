package llm

import (
	"encoding/json"
	"strings"

	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
)

// extractJSON pulls a JSON document out of raw model output.
// Models frequently wrap JSON in markdown code fences or surround it with
// prose; we strip fences and trim to the outermost brace or bracket pair.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip a ```json ... ``` or ``` ... ``` fence.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Trim leading prose before the first { or [.
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start < 0 {
		return s
	}

	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}

// decodeObject parses model output into out, classifying failures as
// malformed so callers can decide to reprompt rather than retry blindly.
func decodeObject(raw string, out any) error {
	text := extractJSON(raw)
	if text == "" {
		return dferrors.Malformed(ErrNoObject, "decode response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &dferrors.JSONParseError{
			Input:   truncate(raw, 500),
			Message: err.Error(),
		}
	}
	return nil
}

// truncate caps s at n bytes for inclusion in error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// buildPrompt combines the instruction with the expected output schema.
func buildPrompt(req ObjectRequest) string {
	if req.Schema == "" {
		return req.Prompt
	}
	var b strings.Builder
	b.WriteString(req.Prompt)
	b.WriteString("\n\nRespond with JSON only, matching this shape exactly:\n")
	b.WriteString(req.Schema)
	return b.String()
}
