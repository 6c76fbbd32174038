package analysis

import (
	"github.com/dejo1307/modmap/internal/extractors"
	"github.com/dejo1307/modmap/internal/extractors/phpextractor"
	"github.com/dejo1307/modmap/internal/lexer"
)

// FileResult is everything the aggregator needs from one file.
type FileResult struct {
	Symbols extractors.Symbols `json:"symbols"`
	LOC     int                `json:"loc"`
	CCN     int                `json:"ccn"`
}

// FileAnalyzer turns the content of one file into a FileResult.
type FileAnalyzer interface {
	AnalyzeFile(path string, src []byte) (FileResult, error)
}

// scrubbedExtractor is implemented by extractors that can work directly on
// text already passed through lexer.Scrub.
type scrubbedExtractor interface {
	ExtractScrubbed(text string) extractors.Symbols
}

// SourceAnalyzer scrubs each file once, computes size metrics from the
// scrubbed text and delegates symbol extraction to an extractor.
type SourceAnalyzer struct {
	ext extractors.Extractor
}

// NewSourceAnalyzer creates a SourceAnalyzer. A nil extractor selects the
// lexical PHP extractor.
func NewSourceAnalyzer(ext extractors.Extractor) *SourceAnalyzer {
	if ext == nil {
		ext = phpextractor.New()
	}
	return &SourceAnalyzer{ext: ext}
}

// AnalyzeFile implements FileAnalyzer.
func (a *SourceAnalyzer) AnalyzeFile(path string, src []byte) (FileResult, error) {
	scrubbed := lexer.Scrub(string(src))
	fr := FileResult{
		LOC: phpextractor.EffectiveLOC(scrubbed),
		CCN: phpextractor.Complexity(scrubbed),
	}

	if se, ok := a.ext.(scrubbedExtractor); ok {
		fr.Symbols = se.ExtractScrubbed(scrubbed)
		return fr, nil
	}

	syms, err := a.ext.Extract(path, src)
	if err != nil {
		return FileResult{}, err
	}
	fr.Symbols = syms
	return fr, nil
}
