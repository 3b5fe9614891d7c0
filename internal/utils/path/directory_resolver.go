package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                = "~"
	tildeForwardSlashPrefixConstant    = "~/"
	directoryRequiredMessageConstant   = "directory path must be provided"
	homeDirectoryErrorTemplateConstant = "unable to resolve home directory for %s: %w"
	absolutePathErrorTemplateConstant  = "unable to resolve absolute path for %s: %w"
)

var errDirectoryRequired = errors.New(directoryRequiredMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// DirectoryResolver turns configured directory values into clean absolute paths.
// A leading tilde expands to the user's home directory; relative values are
// interpreted against a caller-supplied base directory.
type DirectoryResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	homeDirectoryOnce     sync.Once
}

// NewDirectoryResolver constructs a resolver using the operating system home lookup.
func NewDirectoryResolver() *DirectoryResolver {
	return NewDirectoryResolverWithProvider(os.UserHomeDir)
}

// NewDirectoryResolverWithProvider constructs a resolver with a custom home directory provider.
func NewDirectoryResolverWithProvider(provider HomeDirectoryProvider) *DirectoryResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &DirectoryResolver{homeDirectoryProvider: provider}
}

// Resolve returns the absolute, cleaned form of candidate. Relative candidates are joined onto baseDirectory.
func (resolver *DirectoryResolver) Resolve(candidate string, baseDirectory string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidate)
	if len(trimmedCandidate) == 0 {
		return "", errDirectoryRequired
	}

	expandedCandidate, expansionError := resolver.expandHome(trimmedCandidate)
	if expansionError != nil {
		return "", expansionError
	}

	if !filepath.IsAbs(expandedCandidate) && len(strings.TrimSpace(baseDirectory)) > 0 {
		expandedCandidate = filepath.Join(strings.TrimSpace(baseDirectory), expandedCandidate)
	}

	absolutePath, absoluteError := filepath.Abs(expandedCandidate)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, trimmedCandidate, absoluteError)
	}

	return filepath.Clean(absolutePath), nil
}

func (resolver *DirectoryResolver) expandHome(candidate string) (string, error) {
	if !strings.HasPrefix(candidate, tildeSymbolConstant) {
		return candidate, nil
	}

	isBareTilde := candidate == tildeSymbolConstant
	hasSlashPrefix := strings.HasPrefix(candidate, tildeForwardSlashPrefixConstant)
	hasSeparatorPrefix := strings.HasPrefix(candidate, tildeSymbolConstant+string(os.PathSeparator))
	if !isBareTilde && !hasSlashPrefix && !hasSeparatorPrefix {
		return candidate, nil
	}

	resolver.homeDirectoryOnce.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidate, resolver.homeDirectoryError)
	}

	if isBareTilde {
		return resolver.homeDirectory, nil
	}
	return filepath.Join(resolver.homeDirectory, candidate[len(tildeSymbolConstant)+1:]), nil
}
