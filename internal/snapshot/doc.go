// Package snapshot implements the commit and revert engine.
//
// Commit copies every tracked file of a flat working directory into a new,
// sequentially numbered snapshot together with a manifest of SHA-256
// fingerprints, and advances the head pointer last. Revert verifies every file
// of the preceding snapshot against its manifest before it touches the working
// directory, then replaces the tracked files and moves the head pointer back.
//
// Commit and revert share one ExclusionPolicy so both agree on which files
// are tracked.
package snapshot
