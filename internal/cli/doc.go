// Package cli wires together the Cobra command tree for the archcheck binary.
//
// It defines the root command and all subcommands (eval, github, diagram,
// relations, serve, config, cache, models, hook, version), binds flags, reads
// configuration, invokes the evaluation engine, and maps outcomes to
// deterministic exit codes. Evaluations are advisory: a WOULD_BLOCK decision
// only changes the exit code when --fail-on-block is given.
package cli
