package snapshot

import (
	"errors"
	"fmt"

	"github.com/temirov/scm/internal/fingerprint"
	"github.com/temirov/scm/internal/repository"
)

const (
	integrityViolationMessageConstant      = "integrity error"
	integrityErrorTemplateConstant         = "%s: snapshot %d file %s: %s"
	integrityMismatchErrorTemplateConstant = "%s: snapshot %d file %s: %s (recorded %s, computed %s)"
)

// IntegrityFailureReason classifies an integrity violation.
type IntegrityFailureReason string

// Integrity failure reasons.
const (
	IntegrityFailureMissingFile         IntegrityFailureReason = IntegrityFailureReason("backup file missing")
	IntegrityFailureFingerprintMismatch IntegrityFailureReason = IntegrityFailureReason("backup file corrupted")
)

// ErrIntegrityViolation is matched by every IntegrityError through errors.Is.
var ErrIntegrityViolation = errors.New(integrityViolationMessageConstant)

// IntegrityError reports a stored snapshot file that is missing or no longer matches its recorded fingerprint.
type IntegrityError struct {
	VersionID           repository.VersionID
	FileName            string
	Reason              IntegrityFailureReason
	RecordedFingerprint fingerprint.Fingerprint
	ComputedFingerprint fingerprint.Fingerprint
}

// Error describes the violation including the offending file name.
func (integrityError *IntegrityError) Error() string {
	if integrityError.Reason == IntegrityFailureFingerprintMismatch {
		return fmt.Sprintf(
			integrityMismatchErrorTemplateConstant,
			integrityViolationMessageConstant,
			integrityError.VersionID,
			integrityError.FileName,
			integrityError.Reason,
			integrityError.RecordedFingerprint,
			integrityError.ComputedFingerprint,
		)
	}
	return fmt.Sprintf(
		integrityErrorTemplateConstant,
		integrityViolationMessageConstant,
		integrityError.VersionID,
		integrityError.FileName,
		integrityError.Reason,
	)
}

// Unwrap exposes ErrIntegrityViolation.
func (integrityError *IntegrityError) Unwrap() error {
	return ErrIntegrityViolation
}
