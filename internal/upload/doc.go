// Package upload implements chunked video upload sessions: declared-size and
// extension validation, out-of-order chunk receipt, assembly into a single
// file on completion, and cancellation or TTL expiry with chunk cleanup.
package upload
