// Package relation detects structural relations introduced by a change by
// scanning raw unified-diff text for added lines of the form "A -> B".
package relation
