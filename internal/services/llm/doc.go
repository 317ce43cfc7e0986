// Package llm provides a small client for OpenAI-compatible chat completion
// APIs. The report generator uses it to turn assessment results into a
// coaching narrative; callers must tolerate it being unconfigured.
package llm
