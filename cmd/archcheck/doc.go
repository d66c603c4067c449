// Archcheck is a CLI and HTTP service that reviews code changes for
// architecture compliance with LLM providers.
//
// It compares changes against a PlantUML diagram, general architecture rules
// and feature requirements, and reports the model's analysis with an advisory
// score and decision. Exit codes are deterministic so it fits CI pipelines and
// git hooks without blocking them by default.
//
// Usage:
//
//	archcheck eval staged --diagram arch.puml      # evaluate staged changes
//	archcheck eval range origin/main..HEAD         # evaluate a revision range
//	archcheck eval request payload.json            # evaluate an API payload
//	archcheck github 42 --comment                  # evaluate a pull request
//	archcheck diagram arch.puml                    # print the diagram structure
//	archcheck serve                                # serve POST /api/v1/architecture-eval
package main
