package review

import (
	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/diagram"
	"github.com/dshills/archcheck/internal/relation"
)

const (
	// ToolName identifies reports produced by this package.
	ToolName = "archcheck"
	// ReportVersion is the version of the Report schema.
	ReportVersion = "1.0"
)

// Request is one evaluation request.
type Request struct {
	DeveloperEmail string
	ReviewerEmail  string
	Diagram        string
	Changes        []changes.FileChange
	Feature        string
	// RawDiff, when set, is the source for relation detection. Otherwise the
	// per-file diffs of Changes are used.
	RawDiff string
	// Source and Range describe where the changes came from (for example
	// "staged" or "range" with "main..HEAD"). They are informational.
	Source string
	Range  string
}

// InputInfo describes what was evaluated.
type InputInfo struct {
	Source         string `json:"source,omitempty"`
	Range          string `json:"range,omitempty"`
	DeveloperEmail string `json:"developerEmail,omitempty"`
	ReviewerEmail  string `json:"reviewerEmail,omitempty"`
	Files          int    `json:"files"`
}

// PromptInfo describes the assembled prompt.
type PromptInfo struct {
	Chars    int    `json:"chars"`
	Tokens   int    `json:"tokens"`
	Language string `json:"language"`
	// Clamped reports that the prompt budget cut the assembled prompt.
	Clamped bool `json:"clamped"`
}

// ModelResult is one model's answer in compare mode.
type ModelResult struct {
	Label    string      `json:"label"`
	Analysis string      `json:"analysis"`
	Score    ScoreResult `json:"score"`
	Decision Decision    `json:"decision"`
	Cached   bool        `json:"cached"`
	LLMMs    int64       `json:"llmMs"`
}

// Timing contains performance metrics.
type Timing struct {
	PrepareMs int64 `json:"prepareMs"`
	LLMMs     int64 `json:"llmMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool      string               `json:"tool"`
	Version   string               `json:"version"`
	RunID     string               `json:"runId"`
	Inputs    InputInfo            `json:"inputs"`
	Provider  string               `json:"provider"`
	Model     string               `json:"model"`
	Analysis  string               `json:"analysis"`
	Score     ScoreResult          `json:"score"`
	Decision  Decision             `json:"decision"`
	Diagram   diagram.Model        `json:"diagram"`
	Relations []relation.Candidate `json:"relations"`
	Summary   changes.Summary      `json:"summary"`
	Prompt    PromptInfo           `json:"prompt"`
	Cached    bool                 `json:"cached"`
	Models    []ModelResult        `json:"models,omitempty"`
	Timing    Timing               `json:"timing"`
}
