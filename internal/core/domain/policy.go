package domain

import "time"

// UploadPolicy is the read-only view of the upload configuration echoed back
// at session-open time so the client can self-configure its retry and
// parallelism behavior. It is immutable once the registry is constructed.
type UploadPolicy struct {
	MinPartSize        int64         `json:"min_part_size"`
	MaxPartSize        int64         `json:"max_part_size"`
	MaxFileSize        int64         `json:"max_file_size"`
	MaxParallelParts   int           `json:"max_parallel_parts"`
	MaxSessionsPerUser int           `json:"max_sessions_per_user"`
	LargeFileThreshold int64         `json:"large_file_threshold"`
	Resumable          bool          `json:"resumable"`
	HashVerify         bool          `json:"hash_verify"`
	InstantUpload      bool          `json:"instant_upload"`
	SessionTTL         time.Duration `json:"session_ttl"`
	RetryBaseDelay     time.Duration `json:"retry_base_delay"`
	RetryMaxDelay      time.Duration `json:"retry_max_delay"`
	RetryMaxAttempts   int           `json:"retry_max_attempts"`
}

// SweepReport summarizes one garbage-collection pass. The counts are
// independent observable outcomes; operators read locked_stale to detect a
// stuck finalize.
type SweepReport struct {
	Scanned     int `json:"scanned"`
	Deleted     int `json:"deleted"`
	Skipped     int `json:"skipped"`
	LockedStale int `json:"locked_stale"`
}
