package ui

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/scm/internal/repository"
)

const (
	repositoryInitializedMessageConstant       = "Initialized empty SCM repository."
	commitStartedMessageTemplateConstant       = "Committing version %d..."
	commitCompletedMessageTemplateConstant     = "Successfully committed version %d (%d %s)."
	repositoryMissingMessageConstant           = "No SCM repository found."
	nothingToRevertMessageConstant             = "Nothing to revert (already at initial state or empty)."
	revertTargetMissingMessageTemplateConstant = "Target version %d not found."
	revertStartedMessageTemplateConstant       = "Reverting to version %d..."
	integrityVerifiedMessageTemplateConstant   = "Integrity check passed (%d %s). Restoring files..."
	revertCompletedMessageTemplateConstant     = "Revert complete. Now at version %d."
	singularFileNounConstant                   = "file"
	pluralFileNounConstant                     = "files"
	statusLineWriteFailedLogMessageConstant    = "Unable to write status line"
	logFieldStatusLineConstant                 = "status_line"
)

// SnapshotEventFormatter builds human-readable messages for snapshot lifecycle events.
type SnapshotEventFormatter struct{}

// RepositoryInitialized formats the message announcing a freshly created repository.
func (SnapshotEventFormatter) RepositoryInitialized() string {
	return repositoryInitializedMessageConstant
}

// CommitStarted formats the message announcing a commit in progress.
func (SnapshotEventFormatter) CommitStarted(versionID repository.VersionID) string {
	return fmt.Sprintf(commitStartedMessageTemplateConstant, versionID)
}

// CommitCompleted formats the message announcing a sealed snapshot.
func (formatter SnapshotEventFormatter) CommitCompleted(versionID repository.VersionID, fileCount int) string {
	return fmt.Sprintf(commitCompletedMessageTemplateConstant, versionID, fileCount, formatter.fileNoun(fileCount))
}

// RepositoryMissing formats the message shown when no repository exists.
func (SnapshotEventFormatter) RepositoryMissing() string {
	return repositoryMissingMessageConstant
}

// NothingToRevert formats the message shown when the head has no predecessor.
func (SnapshotEventFormatter) NothingToRevert() string {
	return nothingToRevertMessageConstant
}

// RevertTargetMissing formats the message shown when the preceding snapshot is absent.
func (SnapshotEventFormatter) RevertTargetMissing(targetVersionID repository.VersionID) string {
	return fmt.Sprintf(revertTargetMissingMessageTemplateConstant, targetVersionID)
}

// RevertStarted formats the message announcing a revert in progress.
func (SnapshotEventFormatter) RevertStarted(targetVersionID repository.VersionID) string {
	return fmt.Sprintf(revertStartedMessageTemplateConstant, targetVersionID)
}

// IntegrityVerified formats the message announcing a successful integrity check.
func (formatter SnapshotEventFormatter) IntegrityVerified(fileCount int) string {
	return fmt.Sprintf(integrityVerifiedMessageTemplateConstant, fileCount, formatter.fileNoun(fileCount))
}

// RevertCompleted formats the message announcing the new head after a revert.
func (SnapshotEventFormatter) RevertCompleted(versionID repository.VersionID) string {
	return fmt.Sprintf(revertCompletedMessageTemplateConstant, versionID)
}

func (SnapshotEventFormatter) fileNoun(fileCount int) string {
	if fileCount == 1 {
		return singularFileNounConstant
	}
	return pluralFileNounConstant
}

// SnapshotEventReporter writes one status line per snapshot event to an output stream.
type SnapshotEventReporter struct {
	output    io.Writer
	logger    *zap.Logger
	formatter SnapshotEventFormatter
}

// NewSnapshotEventReporter constructs a reporter writing to output. Write failures are logged, never returned.
func NewSnapshotEventReporter(output io.Writer, logger *zap.Logger) *SnapshotEventReporter {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotEventReporter{output: output, logger: logger, formatter: SnapshotEventFormatter{}}
}

// RepositoryInitialized reports a freshly created repository.
func (reporter *SnapshotEventReporter) RepositoryInitialized(string) {
	reporter.writeLine(reporter.formatter.RepositoryInitialized())
}

// CommitStarted reports a commit in progress.
func (reporter *SnapshotEventReporter) CommitStarted(versionID repository.VersionID) {
	reporter.writeLine(reporter.formatter.CommitStarted(versionID))
}

// CommitCompleted reports a sealed snapshot.
func (reporter *SnapshotEventReporter) CommitCompleted(versionID repository.VersionID, fileCount int) {
	reporter.writeLine(reporter.formatter.CommitCompleted(versionID, fileCount))
}

// RepositoryMissing reports that no repository exists.
func (reporter *SnapshotEventReporter) RepositoryMissing() {
	reporter.writeLine(reporter.formatter.RepositoryMissing())
}

// NothingToRevert reports that the head has no predecessor.
func (reporter *SnapshotEventReporter) NothingToRevert(repository.VersionID) {
	reporter.writeLine(reporter.formatter.NothingToRevert())
}

// RevertTargetMissing reports that the preceding snapshot is absent.
func (reporter *SnapshotEventReporter) RevertTargetMissing(targetVersionID repository.VersionID) {
	reporter.writeLine(reporter.formatter.RevertTargetMissing(targetVersionID))
}

// RevertStarted reports a revert in progress.
func (reporter *SnapshotEventReporter) RevertStarted(targetVersionID repository.VersionID) {
	reporter.writeLine(reporter.formatter.RevertStarted(targetVersionID))
}

// IntegrityVerified reports a successful integrity check.
func (reporter *SnapshotEventReporter) IntegrityVerified(_ repository.VersionID, fileCount int) {
	reporter.writeLine(reporter.formatter.IntegrityVerified(fileCount))
}

// RevertCompleted reports the new head after a revert.
func (reporter *SnapshotEventReporter) RevertCompleted(versionID repository.VersionID) {
	reporter.writeLine(reporter.formatter.RevertCompleted(versionID))
}

func (reporter *SnapshotEventReporter) writeLine(statusLine string) {
	if reporter == nil {
		return
	}
	if _, writeError := fmt.Fprintln(reporter.output, statusLine); writeError != nil {
		reporter.logger.Warn(
			statusLineWriteFailedLogMessageConstant,
			zap.String(logFieldStatusLineConstant, statusLine),
			zap.Error(writeError),
		)
	}
}
