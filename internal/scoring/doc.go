// Package scoring aggregates analyzer feature bags into the weighted
// three-bucket scorecard. Pure functions only; no I/O.
package scoring
