package relation

import (
	"regexp"
	"strings"
)

var arrowRe = regexp.MustCompile(`(\w+)\s*->\s*(\w+)`)

// Candidate is a relation that an added diff line appears to introduce.
type Candidate struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Detect returns one candidate per added line that contains an
// identifier-arrow-identifier expression. File header lines ("+++") are
// ignored. Candidates are returned in the order they appear and repeated
// occurrences are kept.
func Detect(diffText string) []Candidate {
	out := []Candidate{}
	for _, line := range strings.Split(diffText, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		if m := arrowRe.FindStringSubmatch(line); m != nil {
			out = append(out, Candidate{Left: m[1], Right: m[2]})
		}
	}
	return out
}

// Pairs converts candidates into [left, right] pairs, the shape used when
// relations are serialized as JSON arrays.
func Pairs(cs []Candidate) [][2]string {
	out := make([][2]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, [2]string{c.Left, c.Right})
	}
	return out
}
