package ui_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/scm/internal/ui"
)

const (
	testSubtestTemplateConstant          = "%d_%s"
	testRepositoryRootConstant           = "/work/.scm"
	testWriteFailureMessageConstant      = "pipe closed"
	testStatusLineWriteFailedMsgConstant = "Unable to write status line"
)

func TestSnapshotEventReporterWritesStatusLines(testInstance *testing.T) {
	testCases := []struct {
		name         string
		invoke       func(reporter *ui.SnapshotEventReporter)
		expectedLine string
	}{
		{
			name:         "repository_initialized",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.RepositoryInitialized(testRepositoryRootConstant) },
			expectedLine: "Initialized empty SCM repository.\n",
		},
		{
			name:         "commit_started",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.CommitStarted(3) },
			expectedLine: "Committing version 3...\n",
		},
		{
			name:         "commit_completed_single_file",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.CommitCompleted(3, 1) },
			expectedLine: "Successfully committed version 3 (1 file).\n",
		},
		{
			name:         "commit_completed_many_files",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.CommitCompleted(4, 0) },
			expectedLine: "Successfully committed version 4 (0 files).\n",
		},
		{
			name:         "repository_missing",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.RepositoryMissing() },
			expectedLine: "No SCM repository found.\n",
		},
		{
			name:         "nothing_to_revert",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.NothingToRevert(1) },
			expectedLine: "Nothing to revert (already at initial state or empty).\n",
		},
		{
			name:         "target_missing",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.RevertTargetMissing(6) },
			expectedLine: "Target version 6 not found.\n",
		},
		{
			name:         "revert_started",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.RevertStarted(6) },
			expectedLine: "Reverting to version 6...\n",
		},
		{
			name:         "integrity_verified",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.IntegrityVerified(6, 2) },
			expectedLine: "Integrity check passed (2 files). Restoring files...\n",
		},
		{
			name:         "revert_completed",
			invoke:       func(reporter *ui.SnapshotEventReporter) { reporter.RevertCompleted(6) },
			expectedLine: "Revert complete. Now at version 6.\n",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			output := &bytes.Buffer{}
			reporter := ui.NewSnapshotEventReporter(output, zap.NewNop())
			testCase.invoke(reporter)
			require.Equal(testInstance, testCase.expectedLine, output.String())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New(testWriteFailureMessageConstant)
}

func TestSnapshotEventReporterLogsWriteFailures(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	reporter := ui.NewSnapshotEventReporter(failingWriter{}, zap.New(observedCore))

	reporter.CommitStarted(1)

	require.Equal(testInstance, 1, observedLogs.FilterMessage(testStatusLineWriteFailedMsgConstant).Len())
}

func TestSnapshotEventReporterToleratesMissingOutput(testInstance *testing.T) {
	reporter := ui.NewSnapshotEventReporter(nil, nil)
	require.NotPanics(testInstance, func() {
		reporter.RevertCompleted(2)
	})
}
