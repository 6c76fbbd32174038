package model

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// WriteJSON writes the analysis as indented JSON.
func (a Analysis) WriteJSON(w io.Writer) error {
	return writeJSON(w, a)
}

// WriteJSONFile writes the analysis to path.
func (a Analysis) WriteJSONFile(path string) error {
	return writeJSONFile(path, a)
}

// ReadAnalysis decodes an analysis written by WriteJSON.
func ReadAnalysis(r io.Reader) (Analysis, error) {
	var a Analysis
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	for key, rec := range a {
		if rec == nil {
			return nil, fmt.Errorf("decoding analysis: directory %q has no record", key)
		}
		if rec.Relations == nil {
			rec.Relations = []string{}
			continue
		}
		// AddRelation and HasRelation rely on a sorted, distinct list.
		slices.Sort(rec.Relations)
		rec.Relations = slices.Compact(rec.Relations)
	}
	return a, nil
}

// ReadAnalysisFile reads an analysis from path.
func ReadAnalysisFile(path string) (Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadAnalysis(bufio.NewReader(f))
}

// WriteJSON writes the community result as indented JSON.
func (r *CommunityResult) WriteJSON(w io.Writer) error {
	return writeJSON(w, r)
}

// WriteJSONFile writes the community result to path.
func (r *CommunityResult) WriteJSONFile(path string) error {
	return writeJSONFile(path, r)
}

// ReadCommunityResult decodes a community result written by WriteJSON.
func ReadCommunityResult(rd io.Reader) (*CommunityResult, error) {
	var r CommunityResult
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding communities: %w", err)
	}
	return &r, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := writeJSON(bw, v); err != nil {
		return err
	}
	return bw.Flush()
}
