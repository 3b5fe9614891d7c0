package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// FileName is the manifest file stored inside every snapshot directory.
	FileName = "manifest.json"

	malformedManifestMessageConstant    = "malformed manifest"
	encodeErrorTemplateConstant         = "unable to encode manifest for version %d: %w"
	decodeErrorTemplateConstant         = "%w: %v"
	missingFieldTemplateConstant        = "%w: missing required field %q"
	invalidVersionTemplateConstant      = "%w: version_id must be positive"
	invalidFileNameTemplateConstant     = "%w: invalid file name %q"
	trailingContentTemplateConstant     = "%w: unexpected content after manifest object"
	versionIDFieldNameConstant          = "version_id"
	filesFieldNameConstant              = "files"
	manifestIndentPrefixConstant        = ""
	manifestIndentConstant              = "  "
	manifestTrailingNewlineConstant     = '\n'
	currentDirectoryNameConstant        = "."
	parentDirectoryNameConstant         = ".."
	forbiddenFileNameCharactersConstant = "/\\\x00"
)

// ErrMalformedManifest reports manifest content that is not a well-formed record.
var ErrMalformedManifest = errors.New(malformedManifestMessageConstant)

// Manifest describes one sealed snapshot.
type Manifest struct {
	VersionID uint64            `json:"version_id"`
	Timestamp string            `json:"timestamp"`
	Files     map[string]string `json:"files"`
}

type decodedManifest struct {
	VersionID *uint64            `json:"version_id"`
	Timestamp string             `json:"timestamp"`
	Files     *map[string]string `json:"files"`
}

// FileNames returns the recorded file names in no particular order.
func (manifest Manifest) FileNames() []string {
	fileNames := make([]string, 0, len(manifest.Files))
	for fileName := range manifest.Files {
		fileNames = append(fileNames, fileName)
	}
	return fileNames
}

// Encode renders manifest as indented JSON terminated by a newline. A nil file map is written as an empty object.
func Encode(manifest Manifest) ([]byte, error) {
	if manifest.Files == nil {
		manifest.Files = map[string]string{}
	}

	encodedContent, marshalError := json.MarshalIndent(manifest, manifestIndentPrefixConstant, manifestIndentConstant)
	if marshalError != nil {
		return nil, fmt.Errorf(encodeErrorTemplateConstant, manifest.VersionID, marshalError)
	}

	return append(encodedContent, manifestTrailingNewlineConstant), nil
}

// Decode parses content produced by Encode. Errors wrap ErrMalformedManifest.
func Decode(content []byte) (Manifest, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))

	var decoded decodedManifest
	if decodeError := decoder.Decode(&decoded); decodeError != nil {
		return Manifest{}, fmt.Errorf(decodeErrorTemplateConstant, ErrMalformedManifest, decodeError)
	}
	if decoder.More() {
		return Manifest{}, fmt.Errorf(trailingContentTemplateConstant, ErrMalformedManifest)
	}

	if decoded.VersionID == nil {
		return Manifest{}, fmt.Errorf(missingFieldTemplateConstant, ErrMalformedManifest, versionIDFieldNameConstant)
	}
	if *decoded.VersionID == 0 {
		return Manifest{}, fmt.Errorf(invalidVersionTemplateConstant, ErrMalformedManifest)
	}
	if decoded.Files == nil || *decoded.Files == nil {
		return Manifest{}, fmt.Errorf(missingFieldTemplateConstant, ErrMalformedManifest, filesFieldNameConstant)
	}

	files := *decoded.Files
	for fileName := range files {
		if !isFlatFileName(fileName) {
			return Manifest{}, fmt.Errorf(invalidFileNameTemplateConstant, ErrMalformedManifest, fileName)
		}
	}

	return Manifest{
		VersionID: *decoded.VersionID,
		Timestamp: decoded.Timestamp,
		Files:     files,
	}, nil
}

func isFlatFileName(fileName string) bool {
	if len(fileName) == 0 {
		return false
	}
	if fileName == currentDirectoryNameConstant || fileName == parentDirectoryNameConstant {
		return false
	}
	return !strings.ContainsAny(fileName, forbiddenFileNameCharactersConstant)
}
