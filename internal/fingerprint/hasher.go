package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

const (
	fileOpenErrorTemplateConstant  = "unable to open %s for fingerprinting: %w"
	fileReadErrorTemplateConstant  = "unable to read %s for fingerprinting: %w"
	fileCloseErrorTemplateConstant = "unable to close %s after fingerprinting: %w"
	readerErrorTemplateConstant    = "unable to fingerprint content: %w"
)

// Fingerprint is the lowercase hexadecimal SHA-256 digest of file content.
type Fingerprint string

// String returns the hexadecimal digest.
func (fingerprint Fingerprint) String() string {
	return string(fingerprint)
}

// Hasher fingerprints files on the provided filesystem.
type Hasher struct {
	fileSystem afero.Fs
}

// NewHasher constructs a Hasher. A nil filesystem falls back to the operating system.
func NewHasher(fileSystem afero.Fs) *Hasher {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Hasher{fileSystem: fileSystem}
}

// FingerprintFile streams the file at filePath through SHA-256.
func (hasher *Hasher) FingerprintFile(filePath string) (fingerprint Fingerprint, hashError error) {
	file, openError := hasher.fileSystem.Open(filePath)
	if openError != nil {
		return "", fmt.Errorf(fileOpenErrorTemplateConstant, filePath, openError)
	}
	defer func() {
		if closeError := file.Close(); closeError != nil {
			hashError = multierr.Append(hashError, fmt.Errorf(fileCloseErrorTemplateConstant, filePath, closeError))
		}
	}()

	digest := sha256.New()
	if _, copyError := io.Copy(digest, file); copyError != nil {
		return "", fmt.Errorf(fileReadErrorTemplateConstant, filePath, copyError)
	}

	return Fingerprint(hex.EncodeToString(digest.Sum(nil))), nil
}

// FingerprintReader consumes reader and returns the digest of everything read.
func FingerprintReader(reader io.Reader) (Fingerprint, error) {
	digest := sha256.New()
	if _, copyError := io.Copy(digest, reader); copyError != nil {
		return "", fmt.Errorf(readerErrorTemplateConstant, copyError)
	}
	return Fingerprint(hex.EncodeToString(digest.Sum(nil))), nil
}

// FingerprintBytes returns the digest of content.
func FingerprintBytes(content []byte) Fingerprint {
	sum := sha256.Sum256(content)
	return Fingerprint(hex.EncodeToString(sum[:]))
}
