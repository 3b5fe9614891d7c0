package manifest_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/scm/internal/manifest"
)

const (
	testManifestSubtestTemplateConstant = "%d_%s"
	testTimestampConstant               = "2026-10-18T09:30:00.123456789Z"
	testHelloFingerprintConstant        = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	testWorldFingerprintConstant        = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
	testEmptyFingerprintConstant        = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func TestManifestRoundTrip(testInstance *testing.T) {
	testCases := []struct {
		name     string
		manifest manifest.Manifest
	}{
		{
			name: "zero_files",
			manifest: manifest.Manifest{
				VersionID: 1,
				Timestamp: testTimestampConstant,
				Files:     map[string]string{},
			},
		},
		{
			name: "one_file",
			manifest: manifest.Manifest{
				VersionID: 2,
				Timestamp: testTimestampConstant,
				Files:     map[string]string{"a.txt": testHelloFingerprintConstant},
			},
		},
		{
			name: "many_files_with_varied_names",
			manifest: manifest.Manifest{
				VersionID: 9001,
				Timestamp: "",
				Files: map[string]string{
					"a.txt":                testHelloFingerprintConstant,
					"README":               testWorldFingerprintConstant,
					".env.local":           testEmptyFingerprintConstant,
					"with space.md":        testHelloFingerprintConstant,
					"ünïcødé-名前.txt":       testWorldFingerprintConstant,
					"quote\"and<html>&.js": testEmptyFingerprintConstant,
					"Makefile":             testHelloFingerprintConstant,
				},
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testManifestSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			encodedContent, encodeError := manifest.Encode(testCase.manifest)
			require.NoError(testInstance, encodeError)
			require.True(testInstance, strings.HasSuffix(string(encodedContent), "\n"))
			require.True(testInstance, json.Valid(encodedContent))

			decodedManifest, decodeError := manifest.Decode(encodedContent)
			require.NoError(testInstance, decodeError)
			require.Equal(testInstance, testCase.manifest, decodedManifest)
		})
	}
}

func TestManifestEncodeIsHumanReadableAndDeterministic(testInstance *testing.T) {
	snapshotManifest := manifest.Manifest{
		VersionID: 3,
		Timestamp: testTimestampConstant,
		Files: map[string]string{
			"b.txt": testWorldFingerprintConstant,
			"a.txt": testHelloFingerprintConstant,
		},
	}

	firstEncoding, firstError := manifest.Encode(snapshotManifest)
	require.NoError(testInstance, firstError)
	secondEncoding, secondError := manifest.Encode(snapshotManifest)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstEncoding, secondEncoding)

	expectedEncoding := "{\n" +
		"  \"version_id\": 3,\n" +
		"  \"timestamp\": \"" + testTimestampConstant + "\",\n" +
		"  \"files\": {\n" +
		"    \"a.txt\": \"" + testHelloFingerprintConstant + "\",\n" +
		"    \"b.txt\": \"" + testWorldFingerprintConstant + "\"\n" +
		"  }\n" +
		"}\n"
	require.Equal(testInstance, expectedEncoding, string(firstEncoding))
}

func TestManifestEncodeWritesNilFilesAsEmptyObject(testInstance *testing.T) {
	encodedContent, encodeError := manifest.Encode(manifest.Manifest{VersionID: 1})
	require.NoError(testInstance, encodeError)
	require.Contains(testInstance, string(encodedContent), "\"files\": {}")

	decodedManifest, decodeError := manifest.Decode(encodedContent)
	require.NoError(testInstance, decodeError)
	require.NotNil(testInstance, decodedManifest.Files)
	require.Empty(testInstance, decodedManifest.Files)
}

func TestManifestDecodeAcceptsMissingTimestamp(testInstance *testing.T) {
	decodedManifest, decodeError := manifest.Decode([]byte(`{"version_id": 4, "files": {"a.txt": "abc"}}`))
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, uint64(4), decodedManifest.VersionID)
	require.Empty(testInstance, decodedManifest.Timestamp)
	require.Equal(testInstance, []string{"a.txt"}, decodedManifest.FileNames())
}

func TestManifestDecodeRejectsMalformedContent(testInstance *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "empty_content", content: ""},
		{name: "not_json", content: "version_id=1"},
		{name: "json_array", content: `[1, 2]`},
		{name: "json_null", content: `null`},
		{name: "truncated_object", content: `{"version_id": 1, "files": {`},
		{name: "missing_version", content: `{"timestamp": "now", "files": {}}`},
		{name: "null_version", content: `{"version_id": null, "files": {}}`},
		{name: "zero_version", content: `{"version_id": 0, "files": {}}`},
		{name: "negative_version", content: `{"version_id": -1, "files": {}}`},
		{name: "string_version", content: `{"version_id": "1", "files": {}}`},
		{name: "missing_files", content: `{"version_id": 1, "timestamp": "now"}`},
		{name: "null_files", content: `{"version_id": 1, "files": null}`},
		{name: "files_not_object", content: `{"version_id": 1, "files": ["a.txt"]}`},
		{name: "fingerprint_not_string", content: `{"version_id": 1, "files": {"a.txt": 5}}`},
		{name: "nested_file_name", content: `{"version_id": 1, "files": {"dir/a.txt": "abc"}}`},
		{name: "parent_file_name", content: `{"version_id": 1, "files": {"..": "abc"}}`},
		{name: "empty_file_name", content: `{"version_id": 1, "files": {"": "abc"}}`},
		{name: "trailing_content", content: `{"version_id": 1, "files": {}} {"version_id": 2}`},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testManifestSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, decodeError := manifest.Decode([]byte(testCase.content))
			require.Error(testInstance, decodeError)
			require.ErrorIs(testInstance, decodeError, manifest.ErrMalformedManifest)
		})
	}
}
