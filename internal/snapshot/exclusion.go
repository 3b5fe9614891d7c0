package snapshot

import (
	"strings"
)

const (
	repositoryMarkerConstant         = ".scm"
	sourceControlMarkerConstant      = ".git"
	buildOutputMarkerConstant        = "target"
	dependencyManifestMarkerConstant = "Cargo"
	executableSuffixConstant         = "scm"
	sourceFileSuffixConstant         = ".rs"
)

// ExclusionPolicy decides which working directory paths are never captured by
// commit and never removed by revert.
type ExclusionPolicy struct {
	// Markers exclude any path containing one of them as a substring.
	Markers  []string
	// Suffixes exclude any path ending with one of them.
	Suffixes []string
}

// DefaultExclusionPolicy returns the markers and suffixes used when configuration provides none.
func DefaultExclusionPolicy() ExclusionPolicy {
	return ExclusionPolicy{
		Markers: []string{
			repositoryMarkerConstant,
			sourceControlMarkerConstant,
			buildOutputMarkerConstant,
			dependencyManifestMarkerConstant,
		},
		Suffixes: []string{
			executableSuffixConstant,
			sourceFileSuffixConstant,
		},
	}
}

// WithMarker returns a copy of the policy that also excludes paths containing marker.
func (policy ExclusionPolicy) WithMarker(marker string) ExclusionPolicy {
	trimmedMarker := strings.TrimSpace(marker)
	extended := ExclusionPolicy{
		Markers:  append([]string(nil), policy.Markers...),
		Suffixes: append([]string(nil), policy.Suffixes...),
	}
	if len(trimmedMarker) == 0 {
		return extended
	}
	for _, existingMarker := range extended.Markers {
		if existingMarker == trimmedMarker {
			return extended
		}
	}
	extended.Markers = append(extended.Markers, trimmedMarker)
	return extended
}

// Excludes reports whether path is outside the tracked set.
func (policy ExclusionPolicy) Excludes(path string) bool {
	for _, marker := range policy.Markers {
		if len(marker) > 0 && strings.Contains(path, marker) {
			return true
		}
	}
	for _, suffix := range policy.Suffixes {
		if len(suffix) > 0 && strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
