package archive

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// extract streams the archive container and creates one committed object per
// entry. Directory entries and path components are dropped; each entry lands
// flat under the job's target parent. Quota is reserved and committed per
// entry, so a quota failure midway leaves the already-extracted entries
// committed and reported in the error.
func (s *Service) extract(ctx context.Context, job *domain.ArchiveJob) (string, error) {

	input, err := s.files.FindByID(ctx, job.InputIDs[0])
	if err != nil {
		return "", fmt.Errorf("%w: input vanished", domain.ErrJobInvalid)
	}

	var extracted int
	if strings.HasSuffix(strings.ToLower(input.Name), ".zip") {
		extracted, err = s.extractZip(ctx, job, input)
	} else {
		extracted, err = s.extractTarGz(ctx, job, input)
	}
	if err != nil {
		return "", fmt.Errorf("after %d entries: %w", extracted, err)
	}
	return fmt.Sprintf("extracted %d entries from %s", extracted, input.Name), nil
}

// extractZip spools the archive to a temp file because the zip central
// directory requires random access.
func (s *Service) extractZip(ctx context.Context, job *domain.ArchiveJob, input *domain.FileObject) (int, error) {

	rc, err := s.objects.ReadObject(ctx, input.StorageKey)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "filedepot-extract-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, rc)
	if err != nil {
		return 0, err
	}

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrJobInvalid, err)
	}

	extracted := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		er, err := f.Open()
		if err != nil {
			return extracted, err
		}
		err = s.commitEntry(ctx, job, path.Base(f.Name), er, int64(f.UncompressedSize64))
		er.Close()
		if err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

func (s *Service) extractTarGz(ctx context.Context, job *domain.ArchiveJob, input *domain.FileObject) (int, error) {

	rc, err := s.objects.ReadObject(ctx, input.StorageKey)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrJobInvalid, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	extracted := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return extracted, nil
		}
		if err != nil {
			return extracted, fmt.Errorf("%w: %v", domain.ErrJobInvalid, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := s.commitEntry(ctx, job, path.Base(hdr.Name), tr, hdr.Size); err != nil {
			return extracted, err
		}
		extracted++
	}
}

// commitEntry writes one archive entry through the object store and the
// file-tree + quota path: reserve, write, commit.
func (s *Service) commitEntry(ctx context.Context, job *domain.ArchiveJob, name string, body io.Reader, size int64) error {

	reservationID, err := s.ledger.Reserve(ctx, job.OwnerID, size)
	if err != nil {
		return fmt.Errorf("entry %q: %w", name, err)
	}

	objectID := uuid.New()
	storageKey := objectID.String()
	hasher := sha256.New()

	written, err := s.objects.WriteObject(ctx, storageKey, io.TeeReader(body, hasher), size, "application/octet-stream")
	if err != nil {
		s.releaseQuiet(ctx, reservationID)
		return fmt.Errorf("entry %q: %w", name, err)
	}

	obj := domain.FileObject{
		ID:         objectID,
		OwnerID:    job.OwnerID,
		ParentID:   job.ParentID,
		Name:       name,
		Size:       written,
		MimeType:   "application/octet-stream",
		Digest:     "sha256:" + hex.EncodeToString(hasher.Sum(nil)),
		StorageKey: storageKey,
	}
	if err := s.files.Commit(ctx, obj, true); err != nil {
		s.releaseQuiet(ctx, reservationID)
		s.discard(ctx, storageKey)
		return fmt.Errorf("entry %q: %w", name, err)
	}
	if err := s.ledger.Commit(ctx, reservationID); err != nil {
		// the entry is committed to the tree either way; release so the
		// reservation is not pinned until restart
		s.logger.Error("quota commit failed after entry commit", "entry", name, "error", err)
		s.releaseQuiet(ctx, reservationID)
		return fmt.Errorf("entry %q: %w", name, err)
	}
	return nil
}
