package snapshot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/scm/internal/manifest"
	"github.com/temirov/scm/internal/repository"
)

const (
	manifestFilePermissionsConstant            = 0o644
	repositoryInitializeErrorTemplateConstant  = "unable to initialize repository: %w"
	snapshotCaptureErrorTemplateConstant       = "unable to capture %s into snapshot %d: %w"
	manifestWriteErrorTemplateConstant         = "unable to write manifest %s: %w"
	headAdvanceErrorTemplateConstant           = "unable to advance head to %d: %w"
	versionSpaceExhaustedTemplateConstant      = "%w: head is %d"
	versionSpaceExhaustedMessageConstant       = "no version id remains after the current head"
	snapshotCleanupErrorTemplateConstant       = "unable to remove incomplete snapshot %s: %w"
	commitStartedLogMessageConstant            = "Commit started"
	commitFileCapturedLogMessageConstant       = "File captured"
	commitCompletedLogMessageConstant          = "Commit completed"
	commitAbandonedLogMessageConstant          = "Commit abandoned; incomplete snapshot removed"
	displacedSnapshotRemovalLogMessageConstant = "Unable to remove displaced snapshot directory"
)

// ErrVersionSpaceExhausted reports a head that cannot be advanced.
var ErrVersionSpaceExhausted = errors.New(versionSpaceExhaustedMessageConstant)

// CommitResult describes a sealed snapshot.
type CommitResult struct {
	VersionID             repository.VersionID
	Files                 []string
	RepositoryInitialized bool
}

// Commit captures the working directory into a new snapshot numbered head+1.
//
// The snapshot is assembled in a staging directory and renamed into place once
// its manifest is written; the head pointer is written last. On any failure the
// head and every stored snapshot directory are left as they were.
func (engine *Engine) Commit(executionContext context.Context) (CommitResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return CommitResult{}, contextError
	}

	repositoryCreated, initializeError := engine.store.EnsureInitialized()
	if initializeError != nil {
		return CommitResult{}, fmt.Errorf(repositoryInitializeErrorTemplateConstant, initializeError)
	}
	if repositoryCreated {
		engine.observer.RepositoryInitialized(engine.store.RootPath())
	}

	headVersionID := engine.store.ReadHead()
	if headVersionID == math.MaxUint64 {
		return CommitResult{}, fmt.Errorf(versionSpaceExhaustedTemplateConstant, ErrVersionSpaceExhausted, uint64(headVersionID))
	}
	newVersionID := headVersionID + 1

	stagingPath, stageError := engine.store.StageSnapshot(newVersionID)
	if stageError != nil {
		return CommitResult{}, stageError
	}

	engine.observer.CommitStarted(newVersionID)
	engine.logger.Info(
		commitStartedLogMessageConstant,
		zap.Uint64(logFieldVersionIDConstant, uint64(newVersionID)),
		zap.String(logFieldWorkingDirectoryConstant, engine.workingDirectory),
		zap.String(logFieldSnapshotPathConstant, stagingPath),
	)

	capturedFiles, captureError := engine.captureSnapshot(newVersionID, stagingPath)
	if captureError != nil {
		return CommitResult{}, engine.abandonSnapshot(stagingPath, captureError)
	}

	displacedPath, sealError := engine.store.SealSnapshot(newVersionID, stagingPath)
	if sealError != nil {
		return CommitResult{}, engine.abandonSnapshot(stagingPath, sealError)
	}

	if headError := engine.store.WriteHead(newVersionID); headError != nil {
		advanceError := fmt.Errorf(headAdvanceErrorTemplateConstant, newVersionID, headError)
		if unsealError := engine.store.UnsealSnapshot(newVersionID, displacedPath); unsealError != nil {
			return CommitResult{}, multierr.Append(advanceError, unsealError)
		}
		engine.logger.Warn(
			commitAbandonedLogMessageConstant,
			zap.String(logFieldSnapshotPathConstant, engine.store.SnapshotPath(newVersionID)),
			zap.Error(advanceError),
		)
		return CommitResult{}, advanceError
	}

	if displacedPath != "" {
		if removeError := engine.fileSystem.RemoveAll(displacedPath); removeError != nil {
			engine.logger.Warn(
				displacedSnapshotRemovalLogMessageConstant,
				zap.String(logFieldSnapshotPathConstant, displacedPath),
				zap.Error(removeError),
			)
		}
	}

	engine.logger.Info(
		commitCompletedLogMessageConstant,
		zap.Uint64(logFieldVersionIDConstant, uint64(newVersionID)),
		zap.Int(logFieldFileCountConstant, len(capturedFiles)),
	)
	engine.observer.CommitCompleted(newVersionID, len(capturedFiles))

	return CommitResult{
		VersionID:             newVersionID,
		Files:                 capturedFiles,
		RepositoryInitialized: repositoryCreated,
	}, nil
}

func (engine *Engine) captureSnapshot(versionID repository.VersionID, snapshotPath string) ([]string, error) {
	fileNames, listError := engine.trackedFileNames()
	if listError != nil {
		return nil, listError
	}

	recordedFiles := make(map[string]string, len(fileNames))
	for _, fileName := range fileNames {
		capturedFingerprint, copyError := engine.copyFile(engine.workingFilePath(fileName), filepath.Join(snapshotPath, fileName))
		if copyError != nil {
			return nil, fmt.Errorf(snapshotCaptureErrorTemplateConstant, fileName, versionID, copyError)
		}
		recordedFiles[fileName] = capturedFingerprint.String()

		engine.logger.Debug(
			commitFileCapturedLogMessageConstant,
			zap.Uint64(logFieldVersionIDConstant, uint64(versionID)),
			zap.String(logFieldFileNameConstant, fileName),
			zap.String(logFieldFingerprintConstant, capturedFingerprint.String()),
		)
	}

	encodedManifest, encodeError := manifest.Encode(manifest.Manifest{
		VersionID: uint64(versionID),
		Timestamp: engine.clock().UTC().Format(time.RFC3339Nano),
		Files:     recordedFiles,
	})
	if encodeError != nil {
		return nil, encodeError
	}

	manifestPath := filepath.Join(snapshotPath, manifest.FileName)
	if writeError := afero.WriteFile(engine.fileSystem, manifestPath, encodedManifest, manifestFilePermissionsConstant); writeError != nil {
		return nil, fmt.Errorf(manifestWriteErrorTemplateConstant, manifestPath, writeError)
	}

	return fileNames, nil
}

func (engine *Engine) abandonSnapshot(snapshotPath string, cause error) error {
	if removeError := engine.fileSystem.RemoveAll(snapshotPath); removeError != nil {
		return multierr.Append(cause, fmt.Errorf(snapshotCleanupErrorTemplateConstant, snapshotPath, removeError))
	}
	engine.logger.Warn(
		commitAbandonedLogMessageConstant,
		zap.String(logFieldSnapshotPathConstant, snapshotPath),
		zap.Error(cause),
	)
	return cause
}
