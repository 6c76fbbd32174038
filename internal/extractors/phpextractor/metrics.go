package phpextractor

import (
	"regexp"
	"strings"

	"github.com/dejo1307/modmap/internal/lexer"
)

var (
	branchRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bif\s*\(`),
		regexp.MustCompile(`(?i)\belseif\s*\(`),
		regexp.MustCompile(`(?i)\bfor\s*\(`),
		regexp.MustCompile(`(?i)\bforeach\s*\(`),
		regexp.MustCompile(`(?i)\bwhile\s*\(`),
		regexp.MustCompile(`(?i)\bcase\b`),
		regexp.MustCompile(`(?i)\bcatch\s*\(`),
	}

	// Tokens containing '?' that are not conditional expressions.
	questionNoise = strings.NewReplacer("??", "", "?->", "", "?>", "")
	openTagRe     = regexp.MustCompile(`(?i)<\?php`)
)

// EffectiveLOC counts non-blank lines of scrubbed text.
func EffectiveLOC(text string) int {
	n := 0
	for _, line := range lexer.Lines(text) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// Complexity approximates cyclomatic complexity of scrubbed text: one, plus
// one per branch keyword, short-circuit operator and ternary '?'.
func Complexity(text string) int {
	ccn := 1
	for _, re := range branchRes {
		ccn += len(re.FindAllStringIndex(text, -1))
	}
	ccn += strings.Count(text, "&&")
	ccn += strings.Count(text, "||")

	stripped := openTagRe.ReplaceAllString(text, "")
	stripped = questionNoise.Replace(stripped)
	ccn += strings.Count(stripped, "?")

	return ccn
}
