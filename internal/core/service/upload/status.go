package upload

import (
	"context"
	"sort"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// Status reports the session's state, received and missing part numbers, and
// the remaining TTL. Pure read; clients poll it to resume an interrupted
// upload without re-sending completed parts.
func (u *uploadService) Status(ctx context.Context, sessionID uuid.UUID) (*domain.UploadStatus, error) {

	session, err := u.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	parts, err := u.uow.UploadPartRepo().FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	uploaded := make([]int, 0, len(parts))
	var uploadedBytes int64
	have := make(map[int]bool, len(parts))
	for _, p := range parts {
		uploaded = append(uploaded, p.PartNumber)
		uploadedBytes += p.Size
		have[p.PartNumber] = true
	}
	sort.Ints(uploaded)

	missing := make([]int, 0, session.TotalParts-len(parts))
	for n := 1; n <= session.TotalParts; n++ {
		if !have[n] {
			missing = append(missing, n)
		}
	}

	remaining := time.Until(session.ExpiresAt)
	if remaining < 0 {
		remaining = 0
	}

	return &domain.UploadStatus{
		Status:        session.Status,
		TotalParts:    session.TotalParts,
		UploadedParts: uploaded,
		MissingParts:  missing,
		UploadedBytes: uploadedBytes,
		ExpiresIn:     remaining,
	}, nil
}
