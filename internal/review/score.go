package review

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var scoreRe = regexp.MustCompile(`Score\s*=\s*(\d+(?:\.\d+)?)`)

// ScoreResult is the score parsed from a response. Found distinguishes a
// real score of 0 from a missing one.
type ScoreResult struct {
	Value float64 `json:"value"`
	Found bool    `json:"found"`
}

// ExtractScore parses the first "Score=<number>" in text. Without a
// parseable score it reports {0, false}.
func ExtractScore(text string) ScoreResult {
	return ExtractScoreWithDefault(text, 0)
}

// ExtractScoreWithDefault is ExtractScore with a caller-chosen value for the
// not-found case. Parsed values are clamped to [0, 1].
func ExtractScoreWithDefault(text string, def float64) ScoreResult {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return ScoreResult{Value: def}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ScoreResult{Value: def}
	}
	return ScoreResult{Value: min(max(v, 0), 1), Found: true}
}

// Mode selects how a score is turned into an action.
type Mode string

const (
	ModeRecommendOnly Mode = "recommend_only"
	ModeEnforce       Mode = "enforce"
)

// ParseMode accepts the mode names in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRecommendOnly, "":
		return ModeRecommendOnly, nil
	case ModeEnforce:
		return ModeEnforce, nil
	default:
		return "", fmt.Errorf("unknown behavior %q: expected %s or %s", s, ModeRecommendOnly, ModeEnforce)
	}
}

// Action is the advisory label attached to an evaluation.
type Action string

const (
	ActionNone       Action = "NONE"
	ActionWouldBlock Action = "WOULD_BLOCK"
)

// Decision is the advisory outcome of an evaluation.
type Decision struct {
	Action    Action  `json:"action"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Mode      Mode    `json:"mode"`
}

// Decide labels a score. Recommend-only mode never yields WOULD_BLOCK;
// enforce mode does when the score is below threshold. Nothing is blocked
// either way.
func Decide(score ScoreResult, threshold float64, mode Mode) Decision {
	d := Decision{Action: ActionNone, Score: score.Value, Threshold: threshold, Mode: mode}
	if mode == ModeEnforce && score.Value < threshold {
		d.Action = ActionWouldBlock
	}
	return d
}
