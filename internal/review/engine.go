package review

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/archcheck/internal/cache"
	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/diagram"
	"github.com/dshills/archcheck/internal/logger"
	"github.com/dshills/archcheck/internal/providers"
	"github.com/dshills/archcheck/internal/redact"
	"github.com/dshills/archcheck/internal/relation"
)

// ErrNoGenerator is returned by Evaluate on an Engine built without a
// generator (dry-run engines).
var ErrNoGenerator = errors.New("no generator configured")

// Engine runs evaluations. It holds only read-only state and is safe for
// concurrent use.
type Engine struct {
	cfg          config.Config
	mode         Mode
	gen          providers.Generator
	cache        *cache.Cache
	assembler    *Assembler
	rules        string
	requirements string
}

// NewEngine loads the rules and requirements documents named in cfg and
// returns an Engine. gen may be nil for an engine that only prepares
// prompts; c may be nil to disable caching.
func NewEngine(cfg config.Config, gen providers.Generator, c *cache.Cache) (*Engine, error) {
	mode, err := ParseMode(cfg.Behavior)
	if err != nil {
		return nil, err
	}
	asm, err := NewAssembler(cfg.Language, cfg.Budget)
	if err != nil {
		return nil, fmt.Errorf("prompt language: %w", err)
	}
	rules, err := LoadText(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	reqs, err := LoadText(cfg.RequirementsFile)
	if err != nil {
		return nil, fmt.Errorf("loading requirements: %w", err)
	}
	return &Engine{
		cfg:          cfg,
		mode:         mode,
		gen:          gen,
		cache:        c,
		assembler:    asm,
		rules:        rules,
		requirements: reqs,
	}, nil
}

// Prepared is the generation-independent part of an evaluation.
type Prepared struct {
	Prompt    string
	Model     diagram.Model
	Relations []relation.Candidate
	Summary   changes.Summary
	Info      PromptInfo
}

// Prepare runs every local step of the pipeline and returns the prompt that
// would be sent. It never fails.
func (e *Engine) Prepare(ctx context.Context, req Request) Prepared {
	fcs := req.Changes
	if e.cfg.Privacy.RedactSecrets {
		fcs = redact.Changes(fcs, e.cfg.Privacy.RedactPaths)
	}

	model := diagram.Extract(req.Diagram)

	relSource := req.RawDiff
	if relSource == "" {
		relSource = changes.JoinRecords(changes.DiffAll(fcs))
	} else if e.cfg.Privacy.RedactSecrets {
		relSource = redact.Secrets(relSource)
	}
	rels := relation.Detect(relSource)

	summary := changes.Summarize(fcs, e.cfg.Budget)
	if summary.Stop != changes.StopNone {
		logger.Info(ctx, "summary truncated", "stop", string(summary.Stop), "files", summary.FilesEmitted)
	}

	composed := e.assembler.compose(PromptInput{
		Rules:        e.rules,
		Requirements: e.requirements,
		Feature:      req.Feature,
		Diagram:      req.Diagram,
		Model:        model,
		Relations:    rels,
		Summary:      summary.Text,
	})
	prompt := Clamp(composed, e.assembler.maxChars, e.assembler.maxTokens)
	if len(prompt) != len(composed) {
		logger.Info(ctx, "prompt clamped", "from.chars", changes.CharCount(composed), "to.chars", changes.CharCount(prompt))
	}

	return Prepared{
		Prompt:    prompt,
		Model:     model,
		Relations: rels,
		Summary:   summary,
		Info: PromptInfo{
			Chars:    changes.CharCount(prompt),
			Tokens:   changes.ApproxTokens(prompt),
			Language: e.assembler.tr.Lang(),
			Clamped:  len(prompt) != len(composed),
		},
	}
}

// Evaluate runs the full pipeline for req. The only error source is the
// generator; its errors are returned as-is.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*Report, error) {
	if e.gen == nil {
		return nil, ErrNoGenerator
	}
	start := time.Now()
	p := e.Prepare(ctx, req)
	prepareMs := time.Since(start).Milliseconds()

	res, err := e.generate(ctx, e.gen, e.cfg.Model, p.Prompt)
	if err != nil {
		return nil, err
	}

	report := e.newReport(req, p)
	report.Provider = e.gen.Name()
	report.Model = e.cfg.Model
	report.Analysis = res.Analysis
	report.Score = res.Score
	report.Decision = res.Decision
	report.Cached = res.Cached
	report.Timing = Timing{
		PrepareMs: prepareMs,
		LLMMs:     res.LLMMs,
		TotalMs:   time.Since(start).Milliseconds(),
	}
	logger.Info(ctx, "evaluation complete",
		"score", report.Score.Value, "found", report.Score.Found,
		"action", string(report.Decision.Action), "cached", report.Cached)
	return report, nil
}

// generate sends prompt to gen through the cache and scores the answer.
func (e *Engine) generate(ctx context.Context, gen providers.Generator, model, prompt string) (ModelResult, error) {
	key := cache.BuildCacheKey(gen.Name(), model, e.cfg.MaxOutputTokens, prompt)
	res := ModelResult{Label: gen.Name() + ":" + model}

	if content, ok := e.cache.Get(key); ok {
		logger.Debug(ctx, "cache hit", "provider", gen.Name(), "model", model)
		res.Analysis = content
		res.Cached = true
	} else {
		llmStart := time.Now()
		resp, err := gen.Generate(ctx, providers.GenerateRequest{
			Prompt:      prompt,
			MaxTokens:   e.cfg.MaxOutputTokens,
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			return ModelResult{}, err
		}
		res.LLMMs = time.Since(llmStart).Milliseconds()
		res.Analysis = resp.Content
		logger.Debug(ctx, "generated", "provider", gen.Name(), "model", model,
			"tokens", resp.TokensUsed, "ms", res.LLMMs)
		if err := e.cache.Put(key, resp.Content); err != nil {
			logger.Warn(ctx, "cache write failed", "error", err)
		}
	}

	res.Score = ExtractScoreWithDefault(res.Analysis, e.cfg.ScoreDefault)
	res.Decision = Decide(res.Score, e.cfg.Threshold, e.mode)
	return res, nil
}

func (e *Engine) newReport(req Request, p Prepared) *Report {
	return &Report{
		Tool:    ToolName,
		Version: ReportVersion,
		RunID:   generateRunID(),
		Inputs: InputInfo{
			Source:         req.Source,
			Range:          req.Range,
			DeveloperEmail: req.DeveloperEmail,
			ReviewerEmail:  req.ReviewerEmail,
			Files:          len(req.Changes),
		},
		Diagram:   p.Model,
		Relations: p.Relations,
		Summary:   p.Summary,
		Prompt:    p.Info,
	}
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
