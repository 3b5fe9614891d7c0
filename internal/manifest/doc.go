// Package manifest encodes and decodes the per-snapshot record that lists a
// snapshot's version id, creation timestamp, and file name to fingerprint map.
// The format is indented JSON so that a stored snapshot can be inspected and
// repaired by hand.
package manifest
