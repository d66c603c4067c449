package review

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/archcheck/internal/logger"
	"github.com/dshills/archcheck/internal/providers"
)

// maxConcurrency limits parallel generator calls in compare mode.
const maxConcurrency = 4

// Target is one provider:model pair in compare mode.
type Target struct {
	Model string
	Gen   providers.Generator
}

// ParseModelSpec splits "provider:model".
func ParseModelSpec(spec string) (string, string, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model spec %q: expected provider:model", spec)
	}
	return parts[0], parts[1], nil
}

type compareModelResult struct {
	res ModelResult
	err error
}

// Compare sends the same prompt to every target concurrently. The report's
// score is the mean of the scores that were found and its decision is taken
// on that mean. The first generation error, in target order, is returned
// unchanged.
func (e *Engine) Compare(ctx context.Context, req Request, targets []Target) (*Report, error) {
	if len(targets) == 0 {
		return nil, ErrNoGenerator
	}
	start := time.Now()
	p := e.Prepare(ctx, req)
	prepareMs := time.Since(start).Milliseconds()

	results := make([]compareModelResult, len(targets))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = compareModelResult{err: fmt.Errorf("%s:%s: %w", t.Gen.Name(), t.Model, ctx.Err())}
				return
			}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = compareModelResult{err: fmt.Errorf("%s:%s: %w", t.Gen.Name(), t.Model, err)}
				return
			}

			res, err := e.generate(ctx, t.Gen, t.Model, p.Prompt)
			if err != nil {
				err = fmt.Errorf("%s:%s: %w", t.Gen.Name(), t.Model, err)
			}
			results[i] = compareModelResult{res: res, err: err}
		}(i, t)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}

	report := e.newReport(req, p)
	report.Provider = "compare"
	report.Models = make([]ModelResult, 0, len(results))
	var analyses, labels []string
	var llmMs int64
	for _, r := range results {
		report.Models = append(report.Models, r.res)
		labels = append(labels, r.res.Label)
		analyses = append(analyses, "### "+r.res.Label+"\n\n"+strings.TrimSpace(r.res.Analysis))
		llmMs = max(llmMs, r.res.LLMMs)
	}
	report.Model = strings.Join(labels, ",")
	report.Analysis = strings.Join(analyses, "\n\n")
	report.Score = meanScore(report.Models, e.cfg.ScoreDefault)
	report.Decision = Decide(report.Score, e.cfg.Threshold, e.mode)
	report.Cached = allCached(report.Models)
	report.Timing = Timing{
		PrepareMs: prepareMs,
		LLMMs:     llmMs,
		TotalMs:   time.Since(start).Milliseconds(),
	}
	logger.Info(ctx, "comparison complete", "models", len(targets), "score", report.Score.Value)
	return report, nil
}

func meanScore(models []ModelResult, def float64) ScoreResult {
	var sum float64
	n := 0
	for _, m := range models {
		if m.Score.Found {
			sum += m.Score.Value
			n++
		}
	}
	if n == 0 {
		return ScoreResult{Value: def}
	}
	return ScoreResult{Value: sum / float64(n), Found: true}
}

func allCached(models []ModelResult) bool {
	for _, m := range models {
		if !m.Cached {
			return false
		}
	}
	return len(models) > 0
}
