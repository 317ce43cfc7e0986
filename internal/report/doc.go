// Package report builds the final coaching report for a completed
// assessment, preferring an LLM-written narrative with a deterministic
// template fallback.
package report
