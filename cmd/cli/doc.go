// Package cli constructs the scm command-line interface: the Cobra root command
// with its commit and revert subcommands, layered configuration, and zap logging.
package cli
