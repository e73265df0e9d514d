package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when no well-formed JSON object can be recovered.
var ErrNoJSONObject = errors.New("no JSON object found")

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.+?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ExtractJSONObject recovers a single JSON object from language model output.
// The input may be:
// - a plain object
// - an object wrapped in a markdown code fence
// - an object surrounded by prose
// - an object with trailing commas, unquoted keys or single quotes
//
// Arrays, scalars and null are rejected.
func ExtractJSONObject(input string) (json.RawMessage, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "\ufeff")
	if input == "" {
		return nil, fmt.Errorf("empty input: %w", ErrNoJSONObject)
	}

	for _, candidate := range candidates(input) {
		if obj, ok := asObject(candidate); ok {
			return obj, nil
		}
		if obj, ok := asObject(cleanAndFixJSON(candidate)); ok {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w in input: %s", ErrNoJSONObject, truncateString(input, 100))
}

// candidates lists the substrings worth trying, most specific first
func candidates(input string) []string {
	out := []string{input}

	if matches := fencedJSON.FindStringSubmatch(input); len(matches) > 1 {
		out = append(out, strings.TrimSpace(matches[1]))
	}

	if start := strings.IndexByte(input, '{'); start >= 0 {
		if extracted := extractBalancedBraces(input[start:]); extracted != "" {
			out = append(out, extracted)
		}
	}

	return out
}

func asObject(s string) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// extractBalancedBraces returns the first balanced {...} block, skipping
// braces inside string literals
func extractBalancedBraces(input string) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}

		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			if depth == 0 {
				start = i
			}
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

// cleanAndFixJSON attempts to fix common JSON formatting issues
func cleanAndFixJSON(input string) string {
	s := strings.TrimSpace(input)

	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = fixSingleQuotes(s)
	s = controlChars.ReplaceAllString(s, "")

	return s
}

// fixSingleQuotes converts single-quoted strings to double-quoted ones.
// Apostrophes inside words are left alone.
func fixSingleQuotes(input string) string {
	var result strings.Builder
	inDouble := false
	inSingle := false
	escape := false
	var prev rune

	for _, ch := range input {
		switch {
		case escape:
			escape = false
			result.WriteRune(ch)
		case ch == '\\':
			escape = true
			result.WriteRune(ch)
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			result.WriteRune(ch)
		case ch == '"' && inSingle:
			result.WriteString(`\"`)
		case ch == '\'' && !inDouble && !inSingle && strings.ContainsRune(":,[{ \t\n", prev):
			inSingle = true
			result.WriteRune('"')
		case ch == '\'' && inSingle:
			inSingle = false
			result.WriteRune('"')
		default:
			result.WriteRune(ch)
		}
		if ch != ' ' && ch != '\t' && ch != '\n' {
			prev = ch
		}
	}

	return result.String()
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
