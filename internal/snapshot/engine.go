package snapshot

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/scm/internal/fingerprint"
	"github.com/temirov/scm/internal/repository"
)

const (
	workingDirectoryRequiredMessageConstant    = "working directory must be provided"
	repositoryDirectoryRequiredMessageConstant = "repository directory must be provided"
	logFieldWorkingDirectoryConstant           = "working_directory"
	logFieldVersionIDConstant                  = "version_id"
	logFieldTargetVersionIDConstant            = "target_version_id"
	logFieldHeadVersionIDConstant              = "head_version_id"
	logFieldSnapshotPathConstant               = "snapshot_path"
	logFieldFileNameConstant                   = "file_name"
	logFieldFingerprintConstant                = "fingerprint"
	logFieldFileCountConstant                  = "file_count"
	logFieldRemovedFileCountConstant           = "removed_file_count"
)

var (
	errWorkingDirectoryRequired    = errors.New(workingDirectoryRequiredMessageConstant)
	errRepositoryDirectoryRequired = errors.New(repositoryDirectoryRequiredMessageConstant)
)

// Clock supplies snapshot creation times.
type Clock func() time.Time

// EngineConfiguration locates the working directory and the repository that records it.
type EngineConfiguration struct {
	WorkingDirectory    string
	RepositoryDirectory string
	Exclusion           ExclusionPolicy
}

// EngineDependencies describes optional collaborators for Engine.
type EngineDependencies struct {
	FileSystem afero.Fs
	Logger     *zap.Logger
	Observer   EventObserver
	Clock      Clock
}

// Engine commits the working directory into snapshots and reverts it to the preceding snapshot.
type Engine struct {
	fileSystem       afero.Fs
	logger           *zap.Logger
	observer         EventObserver
	clock            Clock
	store            *repository.Store
	hasher           *fingerprint.Hasher
	workingDirectory string
	exclusion        ExclusionPolicy
}

// NewEngine constructs an Engine. The base name of the repository directory is
// always added to the exclusion markers so the repository never snapshots itself.
func NewEngine(configuration EngineConfiguration, dependencies EngineDependencies) (*Engine, error) {
	workingDirectory := strings.TrimSpace(configuration.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return nil, errWorkingDirectoryRequired
	}
	repositoryDirectory := strings.TrimSpace(configuration.RepositoryDirectory)
	if len(repositoryDirectory) == 0 {
		return nil, errRepositoryDirectoryRequired
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	observer := dependencies.Observer
	if observer == nil {
		observer = discardingObserver{}
	}

	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	store, storeError := repository.NewStore(repositoryDirectory, repository.StoreDependencies{
		FileSystem: fileSystem,
		Logger:     logger,
	})
	if storeError != nil {
		return nil, storeError
	}

	return &Engine{
		fileSystem:       fileSystem,
		logger:           logger,
		observer:         observer,
		clock:            clock,
		store:            store,
		hasher:           fingerprint.NewHasher(fileSystem),
		workingDirectory: filepath.Clean(workingDirectory),
		exclusion:        configuration.Exclusion.WithMarker(filepath.Base(store.RootPath())),
	}, nil
}

// Store exposes the repository state store backing the engine.
func (engine *Engine) Store() *repository.Store {
	return engine.store
}

// ExclusionPolicy returns the effective exclusion policy shared by commit and revert.
func (engine *Engine) ExclusionPolicy() ExclusionPolicy {
	return engine.exclusion
}
