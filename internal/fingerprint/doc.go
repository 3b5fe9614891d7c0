// Package fingerprint computes deterministic SHA-256 content fingerprints for
// files stored in, and restored from, snapshot history.
package fingerprint
