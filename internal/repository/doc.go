// Package repository manages the on-disk repository root: the HEAD pointer
// naming the checked-out version and the directory layout of stored snapshots.
//
// The layout is
//
//	<root>/HEAD                 decimal version id
//	<root>/commits/<id>/        one directory per sealed snapshot
//
// Store performs no locking; a single process is expected to operate on a
// repository at a time.
package repository
