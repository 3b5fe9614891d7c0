package fingerprint_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/scm/internal/fingerprint"
)

const (
	testHelloContentConstant               = "hello"
	testWorldContentConstant               = "world"
	testHelloFingerprintConstant           = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	testWorldFingerprintConstant           = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
	testEmptyFingerprintConstant           = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	testWorkingDirectoryConstant           = "/work"
	testFirstFileNameConstant              = "a.txt"
	testSecondFileNameConstant             = "renamed.bin"
	testMissingFileNameConstant            = "missing.txt"
	testFingerprintSubtestTemplate         = "%d_%s"
	testReaderFailureMessageConstant       = "disk vanished"
	testFingerprintHexLengthConstant       = 64
	testFingerprintHexAlphabetConstant     = "0123456789abcdef"
	testFingerprintFilePermissionsConstant = 0o644
)

func TestHasherFingerprintFile(testInstance *testing.T) {
	testCases := []struct {
		name                string
		fileName            string
		content             string
		expectedFingerprint fingerprint.Fingerprint
	}{
		{
			name:                "hello_content",
			fileName:            testFirstFileNameConstant,
			content:             testHelloContentConstant,
			expectedFingerprint: testHelloFingerprintConstant,
		},
		{
			name:                "world_content",
			fileName:            testFirstFileNameConstant,
			content:             testWorldContentConstant,
			expectedFingerprint: testWorldFingerprintConstant,
		},
		{
			name:                "empty_content",
			fileName:            testFirstFileNameConstant,
			content:             "",
			expectedFingerprint: testEmptyFingerprintConstant,
		},
		{
			name:                "name_does_not_affect_digest",
			fileName:            testSecondFileNameConstant,
			content:             testHelloContentConstant,
			expectedFingerprint: testHelloFingerprintConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testFingerprintSubtestTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			filePath := testWorkingDirectoryConstant + "/" + testCase.fileName
			require.NoError(testInstance, afero.WriteFile(fileSystem, filePath, []byte(testCase.content), testFingerprintFilePermissionsConstant))

			hasher := fingerprint.NewHasher(fileSystem)
			computedFingerprint, hashError := hasher.FingerprintFile(filePath)
			require.NoError(testInstance, hashError)
			require.Equal(testInstance, testCase.expectedFingerprint, computedFingerprint)
			require.Len(testInstance, computedFingerprint.String(), testFingerprintHexLengthConstant)
			for _, character := range computedFingerprint.String() {
				require.True(testInstance, strings.ContainsRune(testFingerprintHexAlphabetConstant, character))
			}
		})
	}
}

func TestHasherFingerprintFileIsDeterministicAcrossPermissions(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	firstPath := testWorkingDirectoryConstant + "/" + testFirstFileNameConstant
	secondPath := testWorkingDirectoryConstant + "/" + testSecondFileNameConstant
	require.NoError(testInstance, afero.WriteFile(fileSystem, firstPath, []byte(testHelloContentConstant), 0o600))
	require.NoError(testInstance, afero.WriteFile(fileSystem, secondPath, []byte(testHelloContentConstant), 0o755))

	hasher := fingerprint.NewHasher(fileSystem)
	firstFingerprint, firstError := hasher.FingerprintFile(firstPath)
	require.NoError(testInstance, firstError)
	secondFingerprint, secondError := hasher.FingerprintFile(secondPath)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstFingerprint, secondFingerprint)
}

func TestHasherFingerprintFileReportsMissingFile(testInstance *testing.T) {
	hasher := fingerprint.NewHasher(afero.NewMemMapFs())
	_, hashError := hasher.FingerprintFile(testWorkingDirectoryConstant + "/" + testMissingFileNameConstant)
	require.Error(testInstance, hashError)
	require.Contains(testInstance, hashError.Error(), testMissingFileNameConstant)
}

func TestHasherUsesOperatingSystemWhenFileSystemMissing(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	filePath := temporaryDirectory + "/" + testFirstFileNameConstant
	require.NoError(testInstance, afero.WriteFile(afero.NewOsFs(), filePath, []byte(testHelloContentConstant), testFingerprintFilePermissionsConstant))

	computedFingerprint, hashError := fingerprint.NewHasher(nil).FingerprintFile(filePath)
	require.NoError(testInstance, hashError)
	require.Equal(testInstance, fingerprint.Fingerprint(testHelloFingerprintConstant), computedFingerprint)
}

func TestFingerprintReaderAndBytesAgree(testInstance *testing.T) {
	readerFingerprint, readerError := fingerprint.FingerprintReader(strings.NewReader(testWorldContentConstant))
	require.NoError(testInstance, readerError)
	require.Equal(testInstance, fingerprint.FingerprintBytes([]byte(testWorldContentConstant)), readerFingerprint)
	require.Equal(testInstance, fingerprint.Fingerprint(testWorldFingerprintConstant), readerFingerprint)
}

func TestFingerprintReaderPropagatesReadFailure(testInstance *testing.T) {
	readFailure := errors.New(testReaderFailureMessageConstant)
	_, readerError := fingerprint.FingerprintReader(iotest.ErrReader(readFailure))
	require.ErrorIs(testInstance, readerError, readFailure)
}
