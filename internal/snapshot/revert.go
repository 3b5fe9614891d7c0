package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/scm/internal/fingerprint"
	"github.com/temirov/scm/internal/manifest"
	"github.com/temirov/scm/internal/repository"
)

const (
	repositoryInspectErrorTemplateConstant   = "unable to inspect repository: %w"
	manifestReadErrorTemplateConstant        = "unable to read manifest %s: %w"
	manifestDecodeErrorTemplateConstant      = "snapshot %d: %w"
	manifestVersionMismatchTemplateConstant  = "%w: manifest records version %d inside snapshot %d"
	snapshotFileInspectErrorTemplateConstant = "unable to inspect stored file %s: %w"
	workingFileRemoveErrorTemplateConstant   = "unable to remove %s: %w"
	workingFileRestoreErrorTemplateConstant  = "unable to restore %s from snapshot %d: %w"
	headRewindErrorTemplateConstant          = "unable to move head to %d: %w"
	revertSkippedLogMessageConstant          = "Revert skipped"
	revertStartedLogMessageConstant          = "Revert started"
	integrityVerifiedLogMessageConstant      = "Snapshot integrity verified"
	integrityViolationLogMessageConstant     = "Snapshot integrity violation"
	workingFileRemovedLogMessageConstant     = "Working file removed"
	workingFileRestoredLogMessageConstant    = "Working file restored"
	revertCompletedLogMessageConstant        = "Revert completed"
	logFieldRevertStatusConstant             = "status"
	logFieldIntegrityReasonConstant          = "reason"
	minimumRevertibleHeadConstant            = repository.VersionID(2)
)

// RevertStatus describes how a revert request ended.
type RevertStatus string

// Revert outcomes. Only RevertStatusReverted changes any state.
const (
	RevertStatusReverted        RevertStatus = RevertStatus("reverted")
	RevertStatusNoRepository    RevertStatus = RevertStatus("no_repository")
	RevertStatusNothingToRevert RevertStatus = RevertStatus("nothing_to_revert")
	RevertStatusTargetNotFound  RevertStatus = RevertStatus("target_not_found")
)

// RevertResult describes a completed or skipped revert.
type RevertResult struct {
	Status        RevertStatus
	VersionID     repository.VersionID
	RestoredFiles []string
	RemovedFiles  []string
}

// Revert restores the working directory to the snapshot preceding the head.
//
// Every stored file of the target snapshot is verified against the manifest
// before the working directory is modified. A missing or altered stored file
// yields an *IntegrityError and leaves the working directory and head untouched.
// Restored copies are checked against the manifest again, and a mismatch found
// then is reported the same way with the head still untouched. The head pointer
// is written last.
func (engine *Engine) Revert(executionContext context.Context) (RevertResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return RevertResult{}, contextError
	}

	initialized, inspectError := engine.store.IsInitialized()
	if inspectError != nil {
		return RevertResult{}, fmt.Errorf(repositoryInspectErrorTemplateConstant, inspectError)
	}
	if !initialized {
		engine.observer.RepositoryMissing()
		return engine.skipRevert(RevertResult{Status: RevertStatusNoRepository}), nil
	}

	headVersionID := engine.store.ReadHead()
	if headVersionID < minimumRevertibleHeadConstant {
		engine.observer.NothingToRevert(headVersionID)
		return engine.skipRevert(RevertResult{Status: RevertStatusNothingToRevert, VersionID: headVersionID}), nil
	}

	targetVersionID := headVersionID - 1
	targetExists, targetInspectError := engine.store.SnapshotExists(targetVersionID)
	if targetInspectError != nil {
		return RevertResult{}, targetInspectError
	}
	if !targetExists {
		engine.observer.RevertTargetMissing(targetVersionID)
		return engine.skipRevert(RevertResult{Status: RevertStatusTargetNotFound, VersionID: targetVersionID}), nil
	}

	engine.observer.RevertStarted(targetVersionID)
	engine.logger.Info(
		revertStartedLogMessageConstant,
		zap.Uint64(logFieldHeadVersionIDConstant, uint64(headVersionID)),
		zap.Uint64(logFieldTargetVersionIDConstant, uint64(targetVersionID)),
	)

	targetManifest, manifestError := engine.readManifest(targetVersionID)
	if manifestError != nil {
		return RevertResult{}, manifestError
	}

	restorableFiles, verificationError := engine.verifySnapshot(targetVersionID, targetManifest)
	if verificationError != nil {
		return RevertResult{}, verificationError
	}
	engine.observer.IntegrityVerified(targetVersionID, len(restorableFiles))

	if contextError := executionContext.Err(); contextError != nil {
		return RevertResult{}, contextError
	}

	removedFiles, clearError := engine.clearWorkingDirectory()
	if clearError != nil {
		return RevertResult{}, clearError
	}

	if restoreError := engine.restoreSnapshot(targetVersionID, targetManifest, restorableFiles); restoreError != nil {
		return RevertResult{}, restoreError
	}

	if headError := engine.store.WriteHead(targetVersionID); headError != nil {
		return RevertResult{}, fmt.Errorf(headRewindErrorTemplateConstant, targetVersionID, headError)
	}

	engine.logger.Info(
		revertCompletedLogMessageConstant,
		zap.Uint64(logFieldVersionIDConstant, uint64(targetVersionID)),
		zap.Int(logFieldFileCountConstant, len(restorableFiles)),
		zap.Int(logFieldRemovedFileCountConstant, len(removedFiles)),
	)
	engine.observer.RevertCompleted(targetVersionID)

	return RevertResult{
		Status:        RevertStatusReverted,
		VersionID:     targetVersionID,
		RestoredFiles: restorableFiles,
		RemovedFiles:  removedFiles,
	}, nil
}

func (engine *Engine) skipRevert(result RevertResult) RevertResult {
	engine.logger.Info(
		revertSkippedLogMessageConstant,
		zap.String(logFieldRevertStatusConstant, string(result.Status)),
		zap.Uint64(logFieldVersionIDConstant, uint64(result.VersionID)),
	)
	return result
}

func (engine *Engine) readManifest(versionID repository.VersionID) (manifest.Manifest, error) {
	manifestPath := filepath.Join(engine.store.SnapshotPath(versionID), manifest.FileName)
	manifestContent, readError := afero.ReadFile(engine.fileSystem, manifestPath)
	if readError != nil {
		return manifest.Manifest{}, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}

	decodedManifest, decodeError := manifest.Decode(manifestContent)
	if decodeError != nil {
		return manifest.Manifest{}, fmt.Errorf(manifestDecodeErrorTemplateConstant, versionID, decodeError)
	}
	if repository.VersionID(decodedManifest.VersionID) != versionID {
		return manifest.Manifest{}, fmt.Errorf(manifestVersionMismatchTemplateConstant, manifest.ErrMalformedManifest, decodedManifest.VersionID, versionID)
	}

	return decodedManifest, nil
}

// verifySnapshot recomputes the fingerprint of every stored file recorded in
// snapshotManifest and returns the verified file names in sorted order.
func (engine *Engine) verifySnapshot(versionID repository.VersionID, snapshotManifest manifest.Manifest) ([]string, error) {
	snapshotPath := engine.store.SnapshotPath(versionID)
	fileNames := snapshotManifest.FileNames()
	sort.Strings(fileNames)

	for _, fileName := range fileNames {
		recordedFingerprint := fingerprint.Fingerprint(snapshotManifest.Files[fileName])
		storedPath := filepath.Join(snapshotPath, fileName)

		storedInfo, statError := engine.fileSystem.Stat(storedPath)
		if statError != nil && !errors.Is(statError, fs.ErrNotExist) {
			return nil, fmt.Errorf(snapshotFileInspectErrorTemplateConstant, storedPath, statError)
		}
		if statError != nil || !storedInfo.Mode().IsRegular() {
			return nil, engine.integrityViolation(&IntegrityError{
				VersionID:           versionID,
				FileName:            fileName,
				Reason:              IntegrityFailureMissingFile,
				RecordedFingerprint: recordedFingerprint,
			})
		}

		computedFingerprint, hashError := engine.hasher.FingerprintFile(storedPath)
		if hashError != nil {
			return nil, hashError
		}
		if computedFingerprint != recordedFingerprint {
			return nil, engine.integrityViolation(&IntegrityError{
				VersionID:           versionID,
				FileName:            fileName,
				Reason:              IntegrityFailureFingerprintMismatch,
				RecordedFingerprint: recordedFingerprint,
				ComputedFingerprint: computedFingerprint,
			})
		}
	}

	engine.logger.Info(
		integrityVerifiedLogMessageConstant,
		zap.Uint64(logFieldVersionIDConstant, uint64(versionID)),
		zap.Int(logFieldFileCountConstant, len(fileNames)),
	)

	return fileNames, nil
}

func (engine *Engine) integrityViolation(integrityError *IntegrityError) error {
	engine.logger.Error(
		integrityViolationLogMessageConstant,
		zap.Uint64(logFieldVersionIDConstant, uint64(integrityError.VersionID)),
		zap.String(logFieldFileNameConstant, integrityError.FileName),
		zap.String(logFieldIntegrityReasonConstant, string(integrityError.Reason)),
	)
	return integrityError
}

func (engine *Engine) clearWorkingDirectory() ([]string, error) {
	fileNames, listError := engine.trackedFileNames()
	if listError != nil {
		return nil, listError
	}

	for _, fileName := range fileNames {
		workingPath := engine.workingFilePath(fileName)
		if removeError := engine.fileSystem.Remove(workingPath); removeError != nil {
			return nil, fmt.Errorf(workingFileRemoveErrorTemplateConstant, workingPath, removeError)
		}
		engine.logger.Debug(workingFileRemovedLogMessageConstant, zap.String(logFieldFileNameConstant, fileName))
	}

	return fileNames, nil
}

// restoreSnapshot copies fileNames back into the working directory and checks
// every restored copy against the fingerprint snapshotManifest records for it.
func (engine *Engine) restoreSnapshot(versionID repository.VersionID, snapshotManifest manifest.Manifest, fileNames []string) error {
	snapshotPath := engine.store.SnapshotPath(versionID)
	for _, fileName := range fileNames {
		restoredFingerprint, copyError := engine.copyFile(filepath.Join(snapshotPath, fileName), engine.workingFilePath(fileName))
		if copyError != nil {
			return fmt.Errorf(workingFileRestoreErrorTemplateConstant, fileName, versionID, copyError)
		}
		recordedFingerprint := fingerprint.Fingerprint(snapshotManifest.Files[fileName])
		if restoredFingerprint != recordedFingerprint {
			return engine.integrityViolation(&IntegrityError{
				VersionID:           versionID,
				FileName:            fileName,
				Reason:              IntegrityFailureFingerprintMismatch,
				RecordedFingerprint: recordedFingerprint,
				ComputedFingerprint: restoredFingerprint,
			})
		}
		engine.logger.Debug(
			workingFileRestoredLogMessageConstant,
			zap.Uint64(logFieldVersionIDConstant, uint64(versionID)),
			zap.String(logFieldFileNameConstant, fileName),
		)
	}
	return nil
}
