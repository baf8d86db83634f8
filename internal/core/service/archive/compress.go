package archive

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// perEntryOverhead pads the quota estimate for container headers and
// incompressible inputs.
const perEntryOverhead = 4096

// compress reads each input object and produces one archive committed through
// the same file-tree and quota path a finalized upload uses. The target name
// selects the container: .zip gets a zip, everything else a tar.gz.
func (s *Service) compress(ctx context.Context, job *domain.ArchiveJob) (string, error) {

	inputs := make([]*domain.FileObject, 0, len(job.InputIDs))
	var estimate int64 = perEntryOverhead
	for _, id := range job.InputIDs {
		obj, err := s.files.FindByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: input %s vanished", domain.ErrJobInvalid, id)
		}
		inputs = append(inputs, obj)
		estimate += obj.Size + perEntryOverhead
	}

	reservationID, err := s.ledger.Reserve(ctx, job.OwnerID, estimate)
	if err != nil {
		return "", err
	}

	objectID := uuid.New()
	storageKey := objectID.String()
	hasher := sha256.New()

	pr, pw := io.Pipe()
	asZip := strings.HasSuffix(strings.ToLower(job.TargetName), ".zip")
	go func() {
		w := io.MultiWriter(pw, hasher)
		if asZip {
			pw.CloseWithError(s.writeZip(ctx, w, inputs))
		} else {
			pw.CloseWithError(s.writeTarGz(ctx, w, inputs))
		}
	}()

	contentType := "application/gzip"
	if asZip {
		contentType = "application/zip"
	}

	written, err := s.objects.WriteObject(ctx, storageKey, pr, -1, contentType)
	if err != nil {
		// unblock the compressor goroutine: it may still be parked in a pipe write
		pr.CloseWithError(err)
		s.releaseQuiet(ctx, reservationID)
		return "", fmt.Errorf("archive write failed: %w", err)
	}

	// swap the conservative estimate for the actual archive size
	s.releaseQuiet(ctx, reservationID)
	actualID, err := s.ledger.Reserve(ctx, job.OwnerID, written)
	if err != nil {
		s.discard(ctx, storageKey)
		return "", err
	}

	obj := domain.FileObject{
		ID:         objectID,
		OwnerID:    job.OwnerID,
		ParentID:   job.ParentID,
		Name:       job.TargetName,
		Size:       written,
		MimeType:   contentType,
		Digest:     "sha256:" + hex.EncodeToString(hasher.Sum(nil)),
		StorageKey: storageKey,
	}
	if err := s.files.Commit(ctx, obj, false); err != nil {
		s.releaseQuiet(ctx, actualID)
		s.discard(ctx, storageKey)
		return "", err
	}
	if err := s.ledger.Commit(ctx, actualID); err != nil {
		return "", err
	}

	return fmt.Sprintf("compressed %d objects into %s (%d bytes)", len(inputs), job.TargetName, written), nil
}

func (s *Service) writeZip(ctx context.Context, w io.Writer, inputs []*domain.FileObject) error {
	zw := zip.NewWriter(w)
	for _, in := range inputs {
		hdr := &zip.FileHeader{
			Name:     in.Name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		}
		ew, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if err := s.copyObject(ctx, ew, in); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (s *Service) writeTarGz(ctx context.Context, w io.Writer, inputs []*domain.FileObject) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	for _, in := range inputs {
		hdr := &tar.Header{
			Name:    in.Name,
			Size:    in.Size,
			Mode:    0o644,
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if err := s.copyObject(ctx, tw, in); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func (s *Service) copyObject(ctx context.Context, w io.Writer, in *domain.FileObject) error {
	rc, err := s.objects.ReadObject(ctx, in.StorageKey)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("streaming %s: %w", in.Name, err)
	}
	return nil
}

func (s *Service) releaseQuiet(ctx context.Context, reservationID uuid.UUID) {
	if err := s.ledger.Release(ctx, reservationID); err != nil {
		s.logger.Error("failed to release archive reservation", "error", err)
	}
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.objects.DeleteObject(ctx, key); err != nil {
		s.logger.Error("failed to discard archive output", "key", key, "error", err)
	}
}
