// Package phpextractor recovers namespace, type declarations, imports and
// inheritance clauses from PHP source using line-based pattern matching over
// scrubbed text.
package phpextractor

import (
	"regexp"
	"strings"

	"github.com/dejo1307/modmap/internal/extractors"
	"github.com/dejo1307/modmap/internal/lexer"
)

// PHPExtractor is the default, lexical symbol extractor.
type PHPExtractor struct{}

// New creates a new PHPExtractor.
func New() *PHPExtractor {
	return &PHPExtractor{}
}

func (e *PHPExtractor) Name() string {
	return "lexical"
}

// Extract scrubs src and extracts its symbols.
func (e *PHPExtractor) Extract(path string, src []byte) (extractors.Symbols, error) {
	return ExtractScrubbed(lexer.Scrub(string(src))), nil
}

// ExtractScrubbed lets callers that already scrubbed the file skip a
// second pass.
func (e *PHPExtractor) ExtractScrubbed(text string) extractors.Symbols {
	return ExtractScrubbed(text)
}

// --- Regex patterns ---

var (
	namespaceRe = regexp.MustCompile(`\bnamespace\s+([\w\\]+)\s*[;{]`)
	classRe     = regexp.MustCompile(`(?m)^[ \t]*(?:(?:final|readonly)[ \t]+)*class[ \t]+\w+`)
	interfaceRe = regexp.MustCompile(`(?m)^[ \t]*interface[ \t]+\w+`)
	abstractRe  = regexp.MustCompile(`(?m)^[ \t]*abstract[ \t]+(?:readonly[ \t]+)?class[ \t]+\w+`)
	useRe       = regexp.MustCompile(`\buse\s+([^;]+);`)
	heritageRe  = regexp.MustCompile(`\b(?:extends|implements)\s+([\w\\,\s]+)`)
	nameRe      = regexp.MustCompile(`^\\?[A-Za-z_][\w\\]*$`)
	splitRe     = regexp.MustCompile(`[,\s]+`)
)

// ExtractScrubbed extracts symbols from text that has already been passed
// through lexer.Scrub.
func ExtractScrubbed(text string) extractors.Symbols {
	var s extractors.Symbols

	s.Namespace = Namespace(text)
	s.Classes = len(classRe.FindAllStringIndex(text, -1))
	s.Interfaces = len(interfaceRe.FindAllStringIndex(text, -1))
	s.Abstracts = len(abstractRe.FindAllStringIndex(text, -1))

	for _, m := range useRe.FindAllStringSubmatchIndex(text, -1) {
		if !startsStatement(text, m[0]) {
			continue
		}
		s.Imports = append(s.Imports, parseUse(text[m[2]:m[3]])...)
	}

	for _, m := range heritageRe.FindAllStringSubmatch(text, -1) {
		for _, name := range splitRe.Split(strings.TrimSpace(m[1]), -1) {
			if name == "" || name == "extends" || name == "implements" {
				continue
			}
			if !nameRe.MatchString(name) {
				continue
			}
			s.Parents = append(s.Parents, extractors.Qualify(s.Namespace, name))
		}
	}

	return s
}

// startsStatement reports whether the keyword at i opens a statement: it is
// first on its line or follows `;`, `{`, `}` or the `<?php` tag.
func startsStatement(text string, i int) bool {
	before := strings.TrimRight(text[:i], " \t")
	if before == "" || strings.HasSuffix(before, "<?php") {
		return true
	}
	switch before[len(before)-1] {
	case '\n', '\r', ';', '{', '}':
		return true
	}
	return false
}

// Namespace returns the first namespace declared in scrubbed text, or "".
func Namespace(text string) string {
	if m := namespaceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimLeft(m[1], extractors.NamespaceSep)
	}
	return ""
}

// parseUse expands the body of a use statement into target identifiers.
// Handles aliases, comma lists, `use function`/`use const` and grouped
// `use A\{B, C as D}` forms. Anything that does not look like a qualified
// name (closure captures, trait adaptation blocks) is dropped.
func parseUse(body string) []string {
	body = strings.TrimSpace(body)
	for _, kw := range []string{"function", "const"} {
		if rest, ok := strings.CutPrefix(body, kw); ok && rest != "" && (rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n') {
			body = strings.TrimSpace(rest)
			break
		}
	}

	prefix := ""
	items := body
	if open := strings.Index(body, "{"); open >= 0 {
		end := strings.LastIndex(body, "}")
		if end < open {
			return nil
		}
		prefix = strings.TrimRight(strings.TrimSpace(body[:open]), extractors.NamespaceSep)
		if !nameRe.MatchString(prefix) {
			return nil
		}
		items = body[open+1 : end]
	}

	var out []string
	for _, item := range strings.Split(items, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		// In a group, members may carry their own function/const keyword.
		if prefix != "" && len(fields) > 1 && (fields[0] == "function" || fields[0] == "const") {
			fields = fields[1:]
		}
		name := fields[0]
		if !nameRe.MatchString(name) {
			continue
		}
		if prefix != "" {
			name = prefix + extractors.NamespaceSep + strings.TrimLeft(name, extractors.NamespaceSep)
		}
		out = append(out, strings.TrimLeft(name, extractors.NamespaceSep))
	}
	return out
}
