// Package analysis defines the feature documents produced by the audio,
// visual, and narrative analyzers, and the adapters that invoke them as
// external commands.
package analysis
