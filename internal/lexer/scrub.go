// Package lexer blanks out comments and string literals in PHP source so that
// line-oriented pattern matching does not trip over keywords or brackets
// written inside them.
package lexer

import "strings"

type state int

const (
	stCode state = iota
	stLineComment
	stBlockComment
	stSingle
	stDouble
	stHeredoc
)

// Scrub removes block comments, `//` and `#` line comments, and the bodies of
// single- and double-quoted strings, heredocs and nowdocs. String literals
// collapse to '' or "", a heredoc or nowdoc to '' followed by the newlines
// of its body.
// Newlines inside removed text are kept, so the output has the same number
// of lines as the input. Unterminated constructs run to the end of input.
func Scrub(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))

	st := stCode
	label := ""
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch st {
		case stCode:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				st = stBlockComment
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				st = stLineComment
				i++
			case c == '#':
				st = stLineComment
			case c == '\'':
				sb.WriteString("''")
				st = stSingle
			case c == '"':
				sb.WriteString(`""`)
				st = stDouble
			case c == '<' && strings.HasPrefix(src[i:], "<<<"):
				l, next, ok := heredocLabel(src, i+3)
				if !ok {
					sb.WriteByte(c)
					continue
				}
				sb.WriteString("''")
				label = l
				st = stHeredoc
				i = next - 1
			default:
				sb.WriteByte(c)
			}

		case stLineComment:
			if c == '\n' || c == '\r' {
				sb.WriteByte(c)
				st = stCode
			}

		case stBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				st = stCode
				i++
			} else if c == '\n' || c == '\r' {
				sb.WriteByte(c)
			}

		case stHeredoc:
			if c != '\n' && c != '\r' {
				continue
			}
			sb.WriteByte(c)
			if c == '\r' && i+1 < len(src) && src[i+1] == '\n' {
				i++
				sb.WriteByte('\n')
			}
			if end, ok := heredocEnd(src, i+1, label); ok {
				st = stCode
				i = end - 1
			}

		case stSingle, stDouble:
			quote := byte('\'')
			if st == stDouble {
				quote = '"'
			}
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				if src[i] == '\n' || src[i] == '\r' {
					sb.WriteByte(src[i])
				}
			case c == quote:
				st = stCode
			case c == '\n' || c == '\r':
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}

// heredocLabel parses the opener after `<<<`: optional blanks, then an
// identifier that may be wrapped in single or double quotes, then a line
// break. It returns the identifier and the index of the line break.
func heredocLabel(src string, i int) (string, int, bool) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	var quote byte
	if i < len(src) && (src[i] == '\'' || src[i] == '"') {
		quote = src[i]
		i++
	}
	start := i
	for i < len(src) && isIdent(src[i], i == start) {
		i++
	}
	if i == start {
		return "", 0, false
	}
	label := src[start:i]
	if quote != 0 {
		if i >= len(src) || src[i] != quote {
			return "", 0, false
		}
		i++
	}
	if i >= len(src) || (src[i] != '\n' && src[i] != '\r') {
		return "", 0, false
	}
	return label, i, true
}

// heredocEnd reports whether the line starting at i closes the heredoc, and
// where the closing identifier ends. The identifier may be indented.
func heredocEnd(src string, i int, label string) (int, bool) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if !strings.HasPrefix(src[i:], label) {
		return 0, false
	}
	end := i + len(label)
	if end < len(src) && isIdent(src[end], false) {
		return 0, false
	}
	return end, true
}

func isIdent(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= 0x80:
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// Lines splits text on \r\n, \n or \r.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
