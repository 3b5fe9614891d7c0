package utils_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/scm/internal/utils"
)

const (
	testLoggerFactorySubtestTemplateConstant = "%d_%s"
	testInvalidLogLevelConstant              = "verbose"
	testInvalidLogFormatConstant             = "xml"
	testLogMessageConstant                   = "logger_factory_test_message"
	testSuppressedLogMessageConstant         = "logger_factory_suppressed_message"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectStructuredLog bool
		expectDebugOutput   bool
	}{
		{
			name:                "debug_structured",
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
			expectDebugOutput:   true,
		},
		{
			name:                "info_structured",
			requestedLogLevel:   utils.LogLevelInfo,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:               "warn_console",
			requestedLogLevel:  utils.LogLevelWarn,
			requestedLogFormat: utils.LogFormatConsole,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			loggerFactory := utils.NewLoggerFactoryWithSink(zapcore.AddSync(outputBuffer))

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)

			logger.Debug(testSuppressedLogMessageConstant)
			logger.Error(testLogMessageConstant)
			require.NoError(testInstance, logger.Sync())

			firstLine := bytes.SplitN(bytes.TrimSpace(outputBuffer.Bytes()), []byte("\n"), 2)[0]
			require.Contains(testInstance, outputBuffer.String(), testLogMessageConstant)
			require.Equal(testInstance, testCase.expectDebugOutput, bytes.Contains(outputBuffer.Bytes(), []byte(testSuppressedLogMessageConstant)))
			require.Equal(testInstance, testCase.expectStructuredLog, json.Valid(firstLine))
		})
	}
}

func TestLoggerFactoryRejectsUnsupportedSettings(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactoryWithSink(zapcore.AddSync(&bytes.Buffer{}))

	levelLogger, levelError := loggerFactory.CreateLogger(utils.LogLevel(testInvalidLogLevelConstant), utils.LogFormatConsole)
	require.ErrorIs(testInstance, levelError, utils.ErrUnsupportedLogLevel)
	require.Nil(testInstance, levelLogger)

	formatLogger, formatError := loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormat(testInvalidLogFormatConstant))
	require.ErrorIs(testInstance, formatError, utils.ErrUnsupportedLogFormat)
	require.Nil(testInstance, formatLogger)
}

func TestParseLogSettings(testInstance *testing.T) {
	parsedLevel, levelError := utils.ParseLogLevel("  WARN ")
	require.NoError(testInstance, levelError)
	require.Equal(testInstance, utils.LogLevelWarn, parsedLevel)

	parsedFormat, formatError := utils.ParseLogFormat("Structured")
	require.NoError(testInstance, formatError)
	require.Equal(testInstance, utils.LogFormatStructured, parsedFormat)

	_, invalidLevelError := utils.ParseLogLevel(testInvalidLogLevelConstant)
	require.ErrorIs(testInstance, invalidLevelError, utils.ErrUnsupportedLogLevel)

	_, invalidFormatError := utils.ParseLogFormat(testInvalidLogFormatConstant)
	require.ErrorIs(testInstance, invalidFormatError, utils.ErrUnsupportedLogFormat)
}
