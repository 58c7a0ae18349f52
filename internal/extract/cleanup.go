package extract

import "strings"

// fencePrefixes are code-fence openers models commonly wrap responses in,
// checked longest-first.
var fencePrefixes = []string{
	"```json", "```markdown", "```html", "```txt", "```text", "```",
}

// CleanResponse normalizes a raw model response for the given output
// format: code-fence wrappers are stripped for every format, and JSON
// additionally gets smart-quote normalization plus comment and
// trailing-comma removal so a near-miss response still parses.
func CleanResponse(raw, format string) string {
	s := strings.TrimSpace(raw)
	s = stripFences(s)
	if format == "json" {
		s = NormalizeSmartQuotes(s)
		s = StripJSONComments(s)
		s = StripTrailingCommas(s)
	}
	return strings.TrimSpace(s)
}

func stripFences(s string) string {
	for _, prefix := range fencePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-3])
	}
	return s
}

// NormalizeSmartQuotes replaces typographic quotes with their ASCII
// equivalents.
func NormalizeSmartQuotes(s string) string {
	replacer := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
	return replacer.Replace(s)
}

// StripJSONComments removes // line comments and /* */ block comments
// outside of string literals.
func StripJSONComments(s string) string {
	var sb strings.Builder
	inString := false
	escaped := false
	i := 0
	for i < len(s) {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		switch {
		case c == '"':
			inString = true
			sb.WriteByte(c)
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i += 2
			if i > len(s) {
				i = len(s)
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// StripTrailingCommas removes commas that directly precede a closing
// bracket or brace, outside of string literals.
func StripTrailingCommas(s string) string {
	var sb strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			sb.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
