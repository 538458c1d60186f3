package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONArray pulls a JSON array out of free-form model output.
// Markdown code fences are stripped, then everything between the first '['
// and the last ']' is parsed strictly. There is no partial recovery: any
// parse failure is returned as *ErrInvalidResponse.
func ExtractJSONArray(text string) (json.RawMessage, error) {
	return extractJSON(text, '[', ']')
}

func extractJSON(text string, open, close byte) (json.RawMessage, error) {
	cleaned := StripCodeFences(text)

	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start < 0 || end < 0 || end < start {
		return nil, &ErrInvalidResponse{
			Content: text,
			Err:     fmt.Errorf("no JSON %c...%c span found", open, close),
		}
	}

	raw := cleaned[start : end+1]

	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&v); err != nil {
		return nil, &ErrInvalidResponse{
			Content: text,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}
	if dec.More() {
		return nil, &ErrInvalidResponse{
			Content: text,
			Err:     fmt.Errorf("trailing data after JSON value"),
		}
	}

	return json.RawMessage(raw), nil
}

// StripCodeFences removes every ``` marker together with the language tag
// that may follow it, so fences work on their own lines or inline.
func StripCodeFences(text string) string {
	var b strings.Builder
	rest := text
	for {
		i := strings.Index(rest, "```")
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		b.WriteByte('\n')
		rest = rest[i+3:]

		j := 0
		for j < len(rest) && isFenceTagByte(rest[j]) {
			j++
		}
		if j == len(rest) || isSpace(rest[j]) {
			rest = rest[j:]
		}
	}
	return strings.TrimSpace(b.String())
}

func isFenceTagByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == '+'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
