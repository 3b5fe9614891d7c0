package snapshot

import (
	"strings"
)

const (
	defaultWorkingDirectoryConstant             = "."
	defaultRepositoryDirectoryConstant          = ".scm"
	workingDirectoryConfigurationKeyConstant    = "working_directory"
	repositoryDirectoryConfigurationKeyConstant = "repository_directory"
	exclusionMarkersConfigurationKeyConstant    = "exclusion.markers"
	exclusionSuffixesConfigurationKeyConstant   = "exclusion.suffixes"
	configurationKeySeparatorConstant           = "."
)

// CommandConfiguration captures persisted configuration for the commit and revert commands.
type CommandConfiguration struct {
	WorkingDirectory    string                 `mapstructure:"working_directory"`
	RepositoryDirectory string                 `mapstructure:"repository_directory"`
	Exclusion           ExclusionConfiguration `mapstructure:"exclusion"`
}

// ExclusionConfiguration lists the markers and suffixes that keep paths out of snapshots.
type ExclusionConfiguration struct {
	Markers  []string `mapstructure:"markers"`
	Suffixes []string `mapstructure:"suffixes"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	defaultPolicy := DefaultExclusionPolicy()
	return CommandConfiguration{
		WorkingDirectory:    defaultWorkingDirectoryConstant,
		RepositoryDirectory: defaultRepositoryDirectoryConstant,
		Exclusion: ExclusionConfiguration{
			Markers:  defaultPolicy.Markers,
			Suffixes: defaultPolicy.Suffixes,
		},
	}
}

// DefaultConfigurationValues returns viper defaults keyed beneath prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		joinConfigurationKey(prefix, workingDirectoryConfigurationKeyConstant):    defaults.WorkingDirectory,
		joinConfigurationKey(prefix, repositoryDirectoryConfigurationKeyConstant): defaults.RepositoryDirectory,
		joinConfigurationKey(prefix, exclusionMarkersConfigurationKeyConstant):    defaults.Exclusion.Markers,
		joinConfigurationKey(prefix, exclusionSuffixesConfigurationKeyConstant):   defaults.Exclusion.Suffixes,
	}
}

// Sanitize trims configured values and falls back to defaults for missing entries.
// An explicitly empty marker or suffix list is kept empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.WorkingDirectory = strings.TrimSpace(configuration.WorkingDirectory)
	if len(sanitized.WorkingDirectory) == 0 {
		sanitized.WorkingDirectory = defaults.WorkingDirectory
	}

	sanitized.RepositoryDirectory = strings.TrimSpace(configuration.RepositoryDirectory)
	if len(sanitized.RepositoryDirectory) == 0 {
		sanitized.RepositoryDirectory = defaults.RepositoryDirectory
	}

	if configuration.Exclusion.Markers == nil {
		sanitized.Exclusion.Markers = defaults.Exclusion.Markers
	} else {
		sanitized.Exclusion.Markers = sanitizeEntries(configuration.Exclusion.Markers)
	}

	if configuration.Exclusion.Suffixes == nil {
		sanitized.Exclusion.Suffixes = defaults.Exclusion.Suffixes
	} else {
		sanitized.Exclusion.Suffixes = sanitizeEntries(configuration.Exclusion.Suffixes)
	}

	return sanitized
}

// ExclusionPolicy converts the configured markers and suffixes into an ExclusionPolicy.
func (configuration CommandConfiguration) ExclusionPolicy() ExclusionPolicy {
	return ExclusionPolicy{
		Markers:  append([]string(nil), configuration.Exclusion.Markers...),
		Suffixes: append([]string(nil), configuration.Exclusion.Suffixes...),
	}
}

func sanitizeEntries(entries []string) []string {
	sanitizedEntries := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmedEntry := strings.TrimSpace(entry)
		if len(trimmedEntry) == 0 {
			continue
		}
		sanitizedEntries = append(sanitizedEntries, trimmedEntry)
	}
	return sanitizedEntries
}

func joinConfigurationKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
