// Package github fetches pull-request snapshots and posts evaluation comments
// through the GitHub REST API.
//
// A snapshot carries the full before/after content of every changed file
// (read at the PR's base and head commits) plus GitHub's unified diff for
// relation detection. Authentication uses GITHUB_TOKEN; GITHUB_API_URL
// selects a GitHub Enterprise endpoint.
package github
