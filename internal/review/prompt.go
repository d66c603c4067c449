package review

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/diagram"
	"github.com/dshills/archcheck/internal/i18n"
	"github.com/dshills/archcheck/internal/relation"
)

const (
	// MaxListItems bounds each list in the structure and relations sections.
	MaxListItems = 20
	// OmittedItem replaces the entries dropped from a shortened list.
	OmittedItem = "... (omitted) ..."
)

// PromptInput holds everything that goes into one prompt.
type PromptInput struct {
	Rules        string
	Requirements string
	Feature      string
	Diagram      string
	Model        diagram.Model
	Relations    []relation.Candidate
	Summary      string
}

// Assembler builds prompts in one language within a prompt budget. It holds
// no mutable state and is safe for concurrent use.
type Assembler struct {
	tr        *i18n.Translations
	maxChars  int
	maxTokens int
}

// NewAssembler returns an Assembler for lang whose prompts never exceed the
// prompt limits of budget.
func NewAssembler(lang string, budget changes.Budget) (*Assembler, error) {
	tr, err := i18n.New(lang)
	if err != nil {
		return nil, err
	}
	b := budget.Resolve()
	return &Assembler{tr: tr, maxChars: b.MaxPromptChars, maxTokens: b.MaxPromptTokens}, nil
}

// Assemble composes the prompt and clamps it to the prompt budget. The
// result depends only on in and the Assembler's settings.
func (a *Assembler) Assemble(in PromptInput) string {
	return Clamp(a.compose(in), a.maxChars, a.maxTokens)
}

func (a *Assembler) compose(in PromptInput) string {
	var b strings.Builder
	b.WriteString(a.tr.Message("prompt_role", nil))
	b.WriteString("\n\n")
	b.WriteString(a.tr.Message("prompt_guidelines", nil))

	a.section(&b, "section_rules", in.Rules)
	a.section(&b, "section_requirements", joinNonEmpty(in.Requirements, in.Feature))
	a.section(&b, "section_diagram", in.Diagram)
	a.section(&b, "section_structure", a.structure(in.Model))
	a.section(&b, "section_relations", relationLines(in.Relations))
	a.section(&b, "section_summary", in.Summary)

	b.WriteString("\n\n")
	b.WriteString(a.tr.Message("prompt_closing", nil))
	return b.String()
}

func (a *Assembler) section(b *strings.Builder, id, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		body = a.none()
	}
	fmt.Fprintf(b, "\n\n## %s\n%s", a.tr.Message(id, nil), body)
}

func (a *Assembler) none() string {
	return a.tr.Message("section_none", nil)
}

func (a *Assembler) structure(m diagram.Model) string {
	if m.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", a.tr.Message("label_classes", nil), a.inline(m.UniqueClasses()))
	fmt.Fprintf(&b, "%s: %s\n", a.tr.Message("label_interfaces", nil), a.inline(unique(m.Interfaces)))

	assocs := make([]string, 0, len(m.Associations))
	for _, as := range m.Associations {
		assocs = append(assocs, as.Left+" "+as.Arrow+" "+as.Right)
	}
	label := a.tr.Message("label_associations", nil)
	if len(assocs) == 0 {
		fmt.Fprintf(&b, "%s: %s\n", label, a.none())
		return b.String()
	}
	fmt.Fprintf(&b, "%s:\n", label)
	for _, s := range Shorten(assocs) {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return b.String()
}

func (a *Assembler) inline(items []string) string {
	if len(items) == 0 {
		return a.none()
	}
	return strings.Join(Shorten(items), ", ")
}

func relationLines(cs []relation.Candidate) string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, c.Left+" -> "+c.Right)
	}
	var b strings.Builder
	for _, s := range Shorten(lines) {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return b.String()
}

// Shorten keeps the first MaxListItems entries of items and marks the rest
// as omitted.
func Shorten(items []string) []string {
	if len(items) <= MaxListItems {
		return items
	}
	out := make([]string, 0, MaxListItems+1)
	out = append(out, items[:MaxListItems]...)
	return append(out, OmittedItem)
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Clamp cuts s so that it has at most maxTokens whitespace-delimited words
// and at most maxChars characters. Cuts always fall on whitespace, so no
// word is split; a single word longer than maxChars yields "". Non-positive
// limits are ignored.
func Clamp(s string, maxChars, maxTokens int) string {
	if changes.Limited(maxTokens) && changes.ApproxTokens(s) > maxTokens {
		s = cutWords(s, maxTokens)
	}
	if changes.Limited(maxChars) && changes.CharCount(s) > maxChars {
		s = cutChars(s, maxChars)
	}
	return s
}

// cutWords returns s up to the end of its n-th word. s must have more than
// n words.
func cutWords(s string, n int) string {
	words := 0
	inWord := false
	for i, r := range s {
		if !unicode.IsSpace(r) {
			inWord = true
			continue
		}
		if inWord {
			words++
			if words == n {
				return s[:i]
			}
		}
		inWord = false
	}
	return s
}

// cutChars returns the longest whitespace-terminated prefix of s with at
// most n runes, without trailing whitespace. s must be longer than n runes.
func cutChars(s string, n int) string {
	r := []rune(s)
	cut := n
	for cut > 0 && !unicode.IsSpace(r[cut]) {
		cut--
	}
	return strings.TrimRightFunc(string(r[:cut]), unicode.IsSpace)
}
