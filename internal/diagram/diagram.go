package diagram

import (
	"regexp"
	"strings"
)

var (
	declRe     = regexp.MustCompile(`^\s*(class|interface)\s+(\w+)`)
	relationRe = regexp.MustCompile(`^\s*(\w+)\s+([.\-*o]+(?:>\??)?)\s+(\w+)`)
)

// Association is a relation between two diagram entities. Arrow is the
// PlantUML arrow token exactly as written (for example "-->", "..>", "*--").
type Association struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Arrow string `json:"arrow"`
}

// Model is the structure extracted from one diagram text.
type Model struct {
	// Classes lists every declared entity name (classes and interfaces) in
	// declaration order, duplicates included.
	Classes []string `json:"classes"`
	// Interfaces lists the subset of Classes declared with "interface".
	Interfaces   []string      `json:"interfaces"`
	Associations []Association `json:"associations"`
}

// Extract scans text line by line and returns the declared entities and
// associations it finds. It never fails; unmatched lines are skipped.
func Extract(text string) Model {
	m := Model{
		Classes:      []string{},
		Interfaces:   []string{},
		Associations: []Association{},
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match := declRe.FindStringSubmatch(line); match != nil {
			m.Classes = append(m.Classes, match[2])
			if match[1] == "interface" {
				m.Interfaces = append(m.Interfaces, match[2])
			}
			continue
		}
		if match := relationRe.FindStringSubmatch(line); match != nil {
			m.Associations = append(m.Associations, Association{
				Left:  match[1],
				Right: match[3],
				Arrow: match[2],
			})
		}
	}
	return m
}

// UniqueClasses returns Classes with duplicates removed, keeping the first
// occurrence of each name.
func (m Model) UniqueClasses() []string {
	seen := make(map[string]bool, len(m.Classes))
	out := make([]string, 0, len(m.Classes))
	for _, c := range m.Classes {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Empty reports whether nothing was extracted.
func (m Model) Empty() bool {
	return len(m.Classes) == 0 && len(m.Associations) == 0
}
