package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// HeadFileName names the file holding the current version id.
	HeadFileName         = "HEAD"
	// CommitsDirectoryName names the directory holding one subdirectory per snapshot.
	CommitsDirectoryName = "commits"

	// EmptyVersionID is the head of a repository without snapshots.
	EmptyVersionID VersionID = 0

	headTemporaryFilePatternConstant         = "HEAD-*.tmp"
	repositoryDirectoryPermissionsConstant   = 0o755
	headFilePermissionsConstant              = 0o644
	rootRequiredMessageConstant              = "repository root must be provided"
	rootCreateErrorTemplateConstant          = "unable to create repository root %s: %w"
	commitsCreateErrorTemplateConstant       = "unable to create snapshot storage %s: %w"
	rootInspectErrorTemplateConstant         = "unable to inspect repository root %s: %w"
	rootNotDirectoryTemplateConstant         = "repository root %s is not a directory"
	headInitializeErrorTemplateConstant      = "unable to initialize head: %w"
	headTemporaryCreateErrorTemplateConstant = "unable to stage head update in %s: %w"
	headTemporaryWriteErrorTemplateConstant  = "unable to write head update %s: %w"
	headTemporaryCloseErrorTemplateConstant  = "unable to close head update %s: %w"
	headReplaceErrorTemplateConstant         = "unable to replace %s: %w"
	headCleanupErrorTemplateConstant         = "unable to remove staged head %s: %w"
	snapshotInspectErrorTemplateConstant     = "unable to inspect snapshot %d at %s: %w"
	snapshotStagingPrefixTemplateConstant    = ".staging-%d-"
	displacedSnapshotSuffixConstant          = ".displaced"
	snapshotStageErrorTemplateConstant       = "unable to stage snapshot %d in %s: %w"
	snapshotDisplaceErrorTemplateConstant    = "unable to move existing snapshot %s aside: %w"
	snapshotSealErrorTemplateConstant        = "unable to seal snapshot %d at %s: %w"
	snapshotReinstateErrorTemplateConstant   = "unable to reinstate snapshot %s from %s: %w"
	snapshotRemoveErrorTemplateConstant      = "unable to remove snapshot %s: %w"
	snapshotDisplacedLogMessageConstant      = "Existing snapshot directory moved aside"
	logFieldSnapshotPathConstant             = "snapshot_path"
	logFieldDisplacedPathConstant            = "displaced_path"
	headUnreadableMessageConstant            = "Head pointer unreadable; treating repository as empty"
	headMalformedMessageConstant             = "Head pointer malformed; treating repository as empty"
	repositoryInitializedLogMessageConstant  = "Repository initialized"
	headWrittenLogMessageConstant            = "Head pointer updated"
	logFieldRepositoryRootConstant           = "repository_root"
	logFieldHeadPathConstant                 = "head_path"
	logFieldHeadContentConstant              = "head_content"
	logFieldVersionIDConstant                = "version_id"
	versionIDFormatBaseConstant              = 10
	versionIDBitSizeConstant                 = 64
)

var errRootRequired = errors.New(rootRequiredMessageConstant)

// VersionID identifies a snapshot. Ids start at 1 and increase by one per commit.
type VersionID uint64

// String renders the id in decimal.
func (versionID VersionID) String() string {
	return strconv.FormatUint(uint64(versionID), versionIDFormatBaseConstant)
}

// StoreDependencies describes the collaborators required by Store.
type StoreDependencies struct {
	FileSystem afero.Fs
	Logger     *zap.Logger
}

// Store persists the head pointer and maps version ids to snapshot directories.
type Store struct {
	fileSystem afero.Fs
	logger     *zap.Logger
	rootPath   string
}

// NewStore constructs a Store rooted at rootPath.
func NewStore(rootPath string, dependencies StoreDependencies) (*Store, error) {
	trimmedRootPath := strings.TrimSpace(rootPath)
	if len(trimmedRootPath) == 0 {
		return nil, errRootRequired
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		fileSystem: fileSystem,
		logger:     logger,
		rootPath:   filepath.Clean(trimmedRootPath),
	}, nil
}

// RootPath returns the repository root directory.
func (store *Store) RootPath() string {
	return store.rootPath
}

// IsInitialized reports whether the repository root exists.
func (store *Store) IsInitialized() (bool, error) {
	rootInfo, statError := store.fileSystem.Stat(store.rootPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(rootInspectErrorTemplateConstant, store.rootPath, statError)
	}
	if !rootInfo.IsDir() {
		return false, fmt.Errorf(rootNotDirectoryTemplateConstant, store.rootPath)
	}
	return true, nil
}

// EnsureInitialized creates the repository root, its snapshot storage, and a zero head
// when the root does not exist yet. It reports whether it created the repository.
func (store *Store) EnsureInitialized() (bool, error) {
	initialized, inspectError := store.IsInitialized()
	if inspectError != nil {
		return false, inspectError
	}
	if initialized {
		return false, nil
	}

	if createError := store.fileSystem.MkdirAll(store.rootPath, repositoryDirectoryPermissionsConstant); createError != nil {
		return false, fmt.Errorf(rootCreateErrorTemplateConstant, store.rootPath, createError)
	}

	commitsPath := store.commitsPath()
	if createError := store.fileSystem.MkdirAll(commitsPath, repositoryDirectoryPermissionsConstant); createError != nil {
		return false, fmt.Errorf(commitsCreateErrorTemplateConstant, commitsPath, createError)
	}

	if writeError := store.WriteHead(EmptyVersionID); writeError != nil {
		return false, fmt.Errorf(headInitializeErrorTemplateConstant, writeError)
	}

	store.logger.Info(repositoryInitializedLogMessageConstant, zap.String(logFieldRepositoryRootConstant, store.rootPath))

	return true, nil
}

// ReadHead returns the current head. Missing, unreadable, or malformed head content yields EmptyVersionID.
func (store *Store) ReadHead() VersionID {
	headPath := store.headPath()

	headContent, readError := afero.ReadFile(store.fileSystem, headPath)
	if readError != nil {
		if !errors.Is(readError, fs.ErrNotExist) {
			store.logger.Warn(
				headUnreadableMessageConstant,
				zap.String(logFieldHeadPathConstant, headPath),
				zap.Error(readError),
			)
		}
		return EmptyVersionID
	}

	trimmedContent := strings.TrimSpace(string(headContent))
	parsedValue, parseError := strconv.ParseUint(trimmedContent, versionIDFormatBaseConstant, versionIDBitSizeConstant)
	if parseError != nil {
		store.logger.Warn(
			headMalformedMessageConstant,
			zap.String(logFieldHeadPathConstant, headPath),
			zap.String(logFieldHeadContentConstant, trimmedContent),
			zap.Error(parseError),
		)
		return EmptyVersionID
	}

	return VersionID(parsedValue)
}

// WriteHead replaces the head pointer with versionID. The new value is staged in a
// temporary file and renamed over HEAD.
func (store *Store) WriteHead(versionID VersionID) (writeError error) {
	stagedFile, createError := afero.TempFile(store.fileSystem, store.rootPath, headTemporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(headTemporaryCreateErrorTemplateConstant, store.rootPath, createError)
	}
	stagedPath := stagedFile.Name()

	defer func() {
		if writeError == nil {
			return
		}
		if removeError := store.fileSystem.Remove(stagedPath); removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
			writeError = multierr.Append(writeError, fmt.Errorf(headCleanupErrorTemplateConstant, stagedPath, removeError))
		}
	}()

	if _, stageError := stagedFile.WriteString(versionID.String()); stageError != nil {
		_ = stagedFile.Close()
		return fmt.Errorf(headTemporaryWriteErrorTemplateConstant, stagedPath, stageError)
	}
	if closeError := stagedFile.Close(); closeError != nil {
		return fmt.Errorf(headTemporaryCloseErrorTemplateConstant, stagedPath, closeError)
	}
	if chmodError := store.fileSystem.Chmod(stagedPath, headFilePermissionsConstant); chmodError != nil {
		return fmt.Errorf(headTemporaryWriteErrorTemplateConstant, stagedPath, chmodError)
	}

	headPath := store.headPath()
	if renameError := store.fileSystem.Rename(stagedPath, headPath); renameError != nil {
		return fmt.Errorf(headReplaceErrorTemplateConstant, headPath, renameError)
	}

	store.logger.Debug(headWrittenLogMessageConstant, zap.Uint64(logFieldVersionIDConstant, uint64(versionID)))

	return nil
}

// SnapshotPath maps versionID to its storage directory without touching the filesystem.
func (store *Store) SnapshotPath(versionID VersionID) string {
	return filepath.Join(store.commitsPath(), versionID.String())
}

// SnapshotExists reports whether the storage directory of versionID exists.
func (store *Store) SnapshotExists(versionID VersionID) (bool, error) {
	snapshotPath := store.SnapshotPath(versionID)
	exists, inspectError := afero.DirExists(store.fileSystem, snapshotPath)
	if inspectError != nil {
		return false, fmt.Errorf(snapshotInspectErrorTemplateConstant, versionID, snapshotPath, inspectError)
	}
	return exists, nil
}

// StageSnapshot creates a fresh, empty directory inside the snapshot storage in
// which the snapshot of versionID is assembled before SealSnapshot moves it into place.
func (store *Store) StageSnapshot(versionID VersionID) (string, error) {
	commitsPath := store.commitsPath()
	stagingPath, stageError := afero.TempDir(store.fileSystem, commitsPath, fmt.Sprintf(snapshotStagingPrefixTemplateConstant, versionID))
	if stageError != nil {
		return "", fmt.Errorf(snapshotStageErrorTemplateConstant, versionID, commitsPath, stageError)
	}
	if chmodError := store.fileSystem.Chmod(stagingPath, repositoryDirectoryPermissionsConstant); chmodError != nil {
		return "", multierr.Append(
			fmt.Errorf(snapshotStageErrorTemplateConstant, versionID, commitsPath, chmodError),
			store.fileSystem.RemoveAll(stagingPath),
		)
	}
	return stagingPath, nil
}

// SealSnapshot renames stagingPath to the storage directory of versionID.
//
// A directory already stored under versionID, left behind by a revert, is moved
// aside first and its new path is returned so the caller can discard it once the
// head advances or hand it to UnsealSnapshot. The returned path is empty when
// nothing was displaced. On failure the displaced directory is put back.
func (store *Store) SealSnapshot(versionID VersionID, stagingPath string) (string, error) {
	snapshotPath := store.SnapshotPath(versionID)
	exists, inspectError := store.SnapshotExists(versionID)
	if inspectError != nil {
		return "", inspectError
	}

	displacedPath := ""
	if exists {
		displacedPath = stagingPath + displacedSnapshotSuffixConstant
		if renameError := store.fileSystem.Rename(snapshotPath, displacedPath); renameError != nil {
			return "", fmt.Errorf(snapshotDisplaceErrorTemplateConstant, snapshotPath, renameError)
		}
		store.logger.Debug(
			snapshotDisplacedLogMessageConstant,
			zap.String(logFieldSnapshotPathConstant, snapshotPath),
			zap.String(logFieldDisplacedPathConstant, displacedPath),
		)
	}

	if renameError := store.fileSystem.Rename(stagingPath, snapshotPath); renameError != nil {
		sealError := fmt.Errorf(snapshotSealErrorTemplateConstant, versionID, snapshotPath, renameError)
		if displacedPath != "" {
			if reinstateError := store.fileSystem.Rename(displacedPath, snapshotPath); reinstateError != nil {
				sealError = multierr.Append(sealError, fmt.Errorf(snapshotReinstateErrorTemplateConstant, snapshotPath, displacedPath, reinstateError))
			}
		}
		return "", sealError
	}

	return displacedPath, nil
}

// UnsealSnapshot removes the sealed snapshot of versionID and moves displacedPath,
// when not empty, back in its place.
func (store *Store) UnsealSnapshot(versionID VersionID, displacedPath string) error {
	snapshotPath := store.SnapshotPath(versionID)
	if removeError := store.fileSystem.RemoveAll(snapshotPath); removeError != nil {
		return fmt.Errorf(snapshotRemoveErrorTemplateConstant, snapshotPath, removeError)
	}
	if displacedPath == "" {
		return nil
	}
	if reinstateError := store.fileSystem.Rename(displacedPath, snapshotPath); reinstateError != nil {
		return fmt.Errorf(snapshotReinstateErrorTemplateConstant, snapshotPath, displacedPath, reinstateError)
	}
	return nil
}

func (store *Store) headPath() string {
	return filepath.Join(store.rootPath, HeadFileName)
}

func (store *Store) commitsPath() string {
	return filepath.Join(store.rootPath, CommitsDirectoryName)
}
