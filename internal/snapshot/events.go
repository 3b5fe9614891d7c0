package snapshot

import (
	"github.com/temirov/scm/internal/repository"
)

// EventObserver receives human-facing progress notifications from Engine.
type EventObserver interface {
	RepositoryInitialized(repositoryRoot string)
	CommitStarted(versionID repository.VersionID)
	CommitCompleted(versionID repository.VersionID, fileCount int)
	RepositoryMissing()
	NothingToRevert(headVersionID repository.VersionID)
	RevertTargetMissing(targetVersionID repository.VersionID)
	RevertStarted(targetVersionID repository.VersionID)
	IntegrityVerified(targetVersionID repository.VersionID, fileCount int)
	RevertCompleted(versionID repository.VersionID)
}

type discardingObserver struct{}

func (discardingObserver) RepositoryInitialized(string)                {}
func (discardingObserver) CommitStarted(repository.VersionID)          {}
func (discardingObserver) CommitCompleted(repository.VersionID, int)   {}
func (discardingObserver) RepositoryMissing()                          {}
func (discardingObserver) NothingToRevert(repository.VersionID)        {}
func (discardingObserver) RevertTargetMissing(repository.VersionID)    {}
func (discardingObserver) RevertStarted(repository.VersionID)          {}
func (discardingObserver) IntegrityVerified(repository.VersionID, int) {}
func (discardingObserver) RevertCompleted(repository.VersionID)        {}
