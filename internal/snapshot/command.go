package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/scm/internal/ui"
	"github.com/temirov/scm/internal/utils"
	pathutils "github.com/temirov/scm/internal/utils/path"
)

// Command names registered by CommandBuilder.
const (
	CommitCommandName = "commit"
	RevertCommandName = "revert"
)

const (
	commitCommandShortDescriptionConstant    = "Save the current state of the working directory"
	commitCommandLongDescriptionConstant     = "commit copies every tracked file of the working directory into a new numbered snapshot, records a SHA-256 fingerprint for each file, and moves the head to the new snapshot."
	revertCommandShortDescriptionConstant    = "Revert to the previous state"
	revertCommandLongDescriptionConstant     = "revert verifies every file of the snapshot preceding the head against its recorded fingerprint, then replaces the tracked files of the working directory with that snapshot and moves the head back by one."
	commitExecutionErrorTemplateConstant     = "commit failed: %w"
	revertExecutionErrorTemplateConstant     = "revert failed: %w"
	workingDirectoryErrorTemplateConstant    = "unable to resolve working directory: %w"
	repositoryDirectoryErrorTemplateConstant = "unable to resolve repository directory: %w"
	engineConfiguredLogMessageConstant       = "Snapshot engine configured"
	logFieldRepositoryDirectoryConstant      = "repository_directory"
	logFieldExclusionMarkersConstant         = "exclusion_markers"
	logFieldConfigurationFileConstant        = "config_file"
	logFieldExclusionSuffixesConstant        = "exclusion_suffixes"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// WorkingDirectoryProvider reports the process working directory.
type WorkingDirectoryProvider func() (string, error)

// CommandBuilder assembles the commit and revert Cobra commands.
type CommandBuilder struct {
	LoggerProvider           LoggerProvider
	ConfigurationProvider    func() CommandConfiguration
	FileSystem               afero.Fs
	Clock                    Clock
	WorkingDirectoryProvider WorkingDirectoryProvider
	DirectoryResolver        *pathutils.DirectoryResolver
}

// BuildCommitCommand constructs the commit command.
func (builder *CommandBuilder) BuildCommitCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           CommitCommandName,
		Short:         commitCommandShortDescriptionConstant,
		Long:          commitCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          builder.runCommit,
	}
	return command, nil
}

// BuildRevertCommand constructs the revert command.
func (builder *CommandBuilder) BuildRevertCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           RevertCommandName,
		Short:         revertCommandShortDescriptionConstant,
		Long:          revertCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          builder.runRevert,
	}
	return command, nil
}

func (builder *CommandBuilder) runCommit(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return command.Help()
	}

	engine, engineError := builder.buildEngine(command)
	if engineError != nil {
		return engineError
	}

	if _, commitError := engine.Commit(resolveExecutionContext(command)); commitError != nil {
		return fmt.Errorf(commitExecutionErrorTemplateConstant, commitError)
	}
	return nil
}

func (builder *CommandBuilder) runRevert(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return command.Help()
	}

	engine, engineError := builder.buildEngine(command)
	if engineError != nil {
		return engineError
	}

	if _, revertError := engine.Revert(resolveExecutionContext(command)); revertError != nil {
		return fmt.Errorf(revertExecutionErrorTemplateConstant, revertError)
	}
	return nil
}

func (builder *CommandBuilder) buildEngine(command *cobra.Command) (*Engine, error) {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger()
	resolver := builder.resolveDirectoryResolver()

	processDirectory, processDirectoryError := builder.resolveProcessDirectory()
	if processDirectoryError != nil {
		return nil, fmt.Errorf(workingDirectoryErrorTemplateConstant, processDirectoryError)
	}

	workingDirectory, workingDirectoryError := resolver.Resolve(configuration.WorkingDirectory, processDirectory)
	if workingDirectoryError != nil {
		return nil, fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	repositoryDirectory, repositoryDirectoryError := resolver.Resolve(configuration.RepositoryDirectory, workingDirectory)
	if repositoryDirectoryError != nil {
		return nil, fmt.Errorf(repositoryDirectoryErrorTemplateConstant, repositoryDirectoryError)
	}

	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Debug(
		engineConfiguredLogMessageConstant,
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.String(logFieldRepositoryDirectoryConstant, repositoryDirectory),
		zap.Strings(logFieldExclusionMarkersConstant, configuration.Exclusion.Markers),
		zap.Strings(logFieldExclusionSuffixesConstant, configuration.Exclusion.Suffixes),
	)

	return NewEngine(
		EngineConfiguration{
			WorkingDirectory:    workingDirectory,
			RepositoryDirectory: repositoryDirectory,
			Exclusion:           configuration.ExclusionPolicy(),
		},
		EngineDependencies{
			FileSystem: builder.FileSystem,
			Logger:     logger,
			Observer:   ui.NewSnapshotEventReporter(utils.NewFlushingWriter(command.OutOrStdout()), logger),
			Clock:      builder.Clock,
		},
	)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveDirectoryResolver() *pathutils.DirectoryResolver {
	if builder.DirectoryResolver != nil {
		return builder.DirectoryResolver
	}
	return pathutils.NewDirectoryResolver()
}

func (builder *CommandBuilder) resolveProcessDirectory() (string, error) {
	if builder.WorkingDirectoryProvider != nil {
		return builder.WorkingDirectoryProvider()
	}
	return os.Getwd()
}

func resolveExecutionContext(command *cobra.Command) context.Context {
	if command == nil || command.Context() == nil {
		return context.Background()
	}
	return command.Context()
}
