// Package services defines the sentinel errors shared by pipeline stages and
// external tool adapters, plus the helper that wraps stage failures with
// enough context to classify them later.
package services
