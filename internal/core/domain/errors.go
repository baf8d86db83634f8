package domain

import "errors"

// ErrSessionNotFound is an error thrown when an upload session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidUploadID is an error thrown when the upload id is malformed
var ErrInvalidUploadID = errors.New("invalid upload id")

// ErrInvalidPartNumber is an error thrown when a part number is out of range
var ErrInvalidPartNumber = errors.New("invalid part number")

// ErrInvalidTotalParts is an error thrown when the part count is out of bounds
var ErrInvalidTotalParts = errors.New("invalid total parts")

// ErrPartSizeMismatch is an error thrown when a part body has the wrong length
var ErrPartSizeMismatch = errors.New("part size mismatch")

// ErrChunkIncomplete is an error thrown when finalize is requested before all parts arrived
var ErrChunkIncomplete = errors.New("chunk set incomplete")

// ErrFinalizeInProgress is an error thrown when a session is already finalizing
var ErrFinalizeInProgress = errors.New("finalize in progress")

// ErrSessionTerminal is an error thrown on operations against a terminal session
var ErrSessionTerminal = errors.New("session in terminal state")

// ErrQuotaExceeded is an error thrown when a reservation would exceed the user quota
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrReservationNotFound is an error thrown when a reservation id is unknown
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNameConflict is an error thrown when the target name already exists
var ErrNameConflict = errors.New("name already exists")

// ErrChecksumMismatch is an error thrown when the assembled digest differs from the declared one
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrTooManySessions is an error thrown when a user hits the concurrent session ceiling
var ErrTooManySessions = errors.New("too many active sessions")

// ErrFileSizeTooBig is an error thrown when the declared size exceeds the configured maximum
var ErrFileSizeTooBig = errors.New("file size too big")

// ErrInvalidPartSize is an error thrown when the declared part size is out of bounds
var ErrInvalidPartSize = errors.New("invalid part size")

// ErrObjectNotFound is an error thrown when a file object is not found
var ErrObjectNotFound = errors.New("object not found")

// ErrJobNotFound is an error thrown when an archive job id is unknown
var ErrJobNotFound = errors.New("job not found")

// ErrJobNotReady is an error thrown when a job result is requested before completion
var ErrJobNotReady = errors.New("job not ready")

// ErrJobInvalid is an error thrown when archive job inputs are not usable
var ErrJobInvalid = errors.New("job invalid")

// errorCodes maps sentinel errors to the stable identifiers surfaced to the
// collaborator layer. Codes are contract, not prose.
var errorCodes = map[error]string{
	ErrSessionNotFound:    "session-not-found",
	ErrInvalidUploadID:    "invalid-upload-id",
	ErrInvalidPartNumber:  "invalid-part-number",
	ErrInvalidTotalParts:  "invalid-total-parts",
	ErrPartSizeMismatch:   "part-size-mismatch",
	ErrChunkIncomplete:    "chunk-incomplete",
	ErrFinalizeInProgress: "finalize-in-progress",
	ErrSessionTerminal:    "session-terminal",
	ErrQuotaExceeded:      "quota-exceeded",
	ErrNameConflict:       "name-conflict",
	ErrChecksumMismatch:   "checksum-mismatch",
	ErrTooManySessions:    "too-many-sessions",
	ErrFileSizeTooBig:     "file-too-big",
	ErrInvalidPartSize:    "invalid-part-size",
	ErrObjectNotFound:     "object-not-found",
	ErrJobNotFound:        "job-not-found",
	ErrJobNotReady:        "job-not-ready",
	ErrJobInvalid:         "job-invalid",
}

// CodeOf returns the stable code for err, or "internal" for infrastructure
// failures that the caller may retry.
func CodeOf(err error) string {
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "internal"
}
