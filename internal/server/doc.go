// Package server exposes the evaluation pipeline over HTTP.
//
// A single endpoint, POST /api/v1/architecture-eval, accepts a diagram, the
// changed files and an optional feature description, runs one evaluation and
// answers with the model's analysis and the advisory decision. GET /healthz
// reports liveness. Every route passes through a permissive CORS middleware,
// and the listener accepts HTTP/2 cleartext (h2c).
package server
