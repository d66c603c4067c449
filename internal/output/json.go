package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/archcheck/internal/diagram"
	"github.com/dshills/archcheck/internal/relation"
	"github.com/dshills/archcheck/internal/review"
)

// JSONWriter outputs the full report as indented JSON. Code and analysis
// text keep their <, > and & characters, and empty diagram and relation
// lists are written as [] so consumers never see null.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	r := *report
	if r.Relations == nil {
		r.Relations = []relation.Candidate{}
	}
	r.Diagram = nonNilDiagram(r.Diagram)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&r); err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	return nil
}

func nonNilDiagram(m diagram.Model) diagram.Model {
	if m.Classes == nil {
		m.Classes = []string{}
	}
	if m.Interfaces == nil {
		m.Interfaces = []string{}
	}
	if m.Associations == nil {
		m.Associations = []diagram.Association{}
	}
	return m
}
