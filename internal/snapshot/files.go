package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/scm/internal/fingerprint"
	"github.com/temirov/scm/internal/manifest"
)

const (
	workingDirectoryListErrorTemplateConstant = "unable to list working directory %s: %w"
	copySourceOpenErrorTemplateConstant       = "unable to open %s: %w"
	copySourceInspectErrorTemplateConstant    = "unable to inspect %s: %w"
	copyDestinationErrorTemplateConstant      = "unable to create %s: %w"
	copyTransferErrorTemplateConstant         = "unable to copy %s to %s: %w"
	copyCloseErrorTemplateConstant            = "unable to close %s: %w"
	copyDestinationFlagsConstant              = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	manifestNameCollisionLogMessageConstant   = "Working directory file shares the manifest name and is not tracked"
)

// trackedFileNames lists the regular files directly inside the working directory
// that the exclusion policy does not match, sorted by name. A file named like the
// manifest is never tracked.
func (engine *Engine) trackedFileNames() ([]string, error) {
	directoryEntries, listError := afero.ReadDir(engine.fileSystem, engine.workingDirectory)
	if listError != nil {
		return nil, fmt.Errorf(workingDirectoryListErrorTemplateConstant, engine.workingDirectory, listError)
	}

	fileNames := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.Mode().IsRegular() {
			continue
		}
		if engine.exclusion.Excludes(directoryEntry.Name()) {
			continue
		}
		if directoryEntry.Name() == manifest.FileName {
			engine.logger.Warn(manifestNameCollisionLogMessageConstant, zap.String(logFieldFileNameConstant, directoryEntry.Name()))
			continue
		}
		fileNames = append(fileNames, directoryEntry.Name())
	}

	return fileNames, nil
}

// copyFile copies sourcePath to destinationPath, preserving permission bits, and
// returns the fingerprint of the bytes that were written.
func (engine *Engine) copyFile(sourcePath string, destinationPath string) (copiedFingerprint fingerprint.Fingerprint, copyError error) {
	sourceFile, openError := engine.fileSystem.Open(sourcePath)
	if openError != nil {
		return "", fmt.Errorf(copySourceOpenErrorTemplateConstant, sourcePath, openError)
	}
	defer func() {
		if closeError := sourceFile.Close(); closeError != nil {
			copyError = multierr.Append(copyError, fmt.Errorf(copyCloseErrorTemplateConstant, sourcePath, closeError))
		}
	}()

	sourceInfo, statError := sourceFile.Stat()
	if statError != nil {
		return "", fmt.Errorf(copySourceInspectErrorTemplateConstant, sourcePath, statError)
	}

	destinationFile, createError := engine.fileSystem.OpenFile(destinationPath, copyDestinationFlagsConstant, sourceInfo.Mode().Perm())
	if createError != nil {
		return "", fmt.Errorf(copyDestinationErrorTemplateConstant, destinationPath, createError)
	}
	defer func() {
		if closeError := destinationFile.Close(); closeError != nil {
			copyError = multierr.Append(copyError, fmt.Errorf(copyCloseErrorTemplateConstant, destinationPath, closeError))
		}
	}()

	computedFingerprint, transferError := fingerprint.FingerprintReader(io.TeeReader(sourceFile, destinationFile))
	if transferError != nil {
		return "", fmt.Errorf(copyTransferErrorTemplateConstant, sourcePath, destinationPath, transferError)
	}

	return computedFingerprint, nil
}

func (engine *Engine) workingFilePath(fileName string) string {
	return filepath.Join(engine.workingDirectory, fileName)
}
