// Package utils holds the process-level plumbing shared by the scm commands:
// layered Viper configuration loading, zap logger construction, command context
// values, and a flushing writer for status output.
package utils
