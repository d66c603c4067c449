package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/review"
)

// EmptyPayloadMessage is the error body answered for an unusable request.
const EmptyPayloadMessage = "No JSON payload received"

// ErrEmptyPayload is returned for a missing, null or empty JSON object.
var ErrEmptyPayload = errors.New("no JSON payload received")

// unknownFile is the path given to code entries that omit one.
const unknownFile = "unknown_file"

// Payload is the JSON request body of an evaluation.
type Payload struct {
	Email struct {
		Developer string `json:"developer"`
		Reviewer  string `json:"reviewer"`
	} `json:"email"`
	Diagram string       `json:"diagram"`
	Code    []CodeChange `json:"code"`
	Feature string       `json:"feature"`
	Diff    string       `json:"diff,omitempty"`
}

// CodeChange is one entry of Payload.Code.
type CodeChange struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ParsePayload decodes an evaluation request body.
func ParsePayload(data []byte) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || len(fields) == 0 {
		return nil, ErrEmptyPayload
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return &p, nil
}

// Request converts the payload into a pipeline request.
func (p *Payload) Request() review.Request {
	fcs := make([]changes.FileChange, 0, len(p.Code))
	for _, c := range p.Code {
		path := c.Path
		if path == "" {
			path = unknownFile
		}
		fcs = append(fcs, changes.FileChange{Path: path, Before: c.Before, After: c.After})
	}
	return review.Request{
		DeveloperEmail: p.Email.Developer,
		ReviewerEmail:  p.Email.Reviewer,
		Diagram:        p.Diagram,
		Changes:        fcs,
		Feature:        p.Feature,
		RawDiff:        p.Diff,
		Source:         "request",
	}
}
