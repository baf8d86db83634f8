package archive_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/service/archive"
	"filedepot/internal/core/service/quota"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func waitTerminal(t *testing.T, service *archive.Service, jobID uuid.UUID) *domain.ArchiveJob {
	t.Helper()
	var job *domain.ArchiveJob
	require.Eventually(t, func() bool {
		var err error
		job, err = service.Status(context.Background(), jobID)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestArchiveService_Compress_ProducesReadableZip(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	inputID := uuid.New()
	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "notes.txt", Size: 5, StorageKey: "objects/notes"}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	mockLedger := quota.NewMockLedger()
	service := newService(mockFiles, mockObjects, mockLedger, archiveCfg)

	var archived bytes.Buffer
	var mu sync.Mutex

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockObjects.On("ReadObject", mock.Anything, "objects/notes").Return(io.NopCloser(bytes.NewReader([]byte("hello"))), nil)
	mockLedger.On("Reserve", mock.Anything, ownerID, mock.Anything).Return(uuid.New(), nil)
	mockLedger.On("Release", mock.Anything, mock.Anything).Return(nil)
	mockObjects.On("WriteObject", mock.Anything, mock.Anything, mock.Anything, int64(-1), "application/zip").
		Run(func(args mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			_, _ = io.Copy(&archived, args.Get(2).(io.Reader))
		}).
		Return(int64(100), nil)
	mockFiles.On("Commit", mock.Anything, mock.MatchedBy(func(obj domain.FileObject) bool {
		return obj.Name == "bundle.zip" && obj.OwnerID == ownerID
	}), false).Return(nil)
	mockLedger.On("Commit", mock.Anything, mock.Anything).Return(nil)

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindCompress, []uuid.UUID{inputID}, uuid.New(), "bundle.zip")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusReady, job.Status)
	assert.Contains(t, job.Message, "compressed 1 objects")

	mu.Lock()
	defer mu.Unlock()
	zr, err := zip.NewReader(bytes.NewReader(archived.Bytes()), int64(archived.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "notes.txt", zr.File[0].Name)

	er, err := zr.File[0].Open()
	require.NoError(t, err)
	defer er.Close()
	content, err := io.ReadAll(er)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
}

func TestArchiveService_Compress_QuotaExhaustedFailsJob(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	inputID := uuid.New()
	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "big.bin", Size: 1 << 30, StorageKey: "objects/big"}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	mockLedger := quota.NewMockLedger()
	service := newService(mockFiles, mockObjects, mockLedger, archiveCfg)

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockLedger.On("Reserve", mock.Anything, ownerID, mock.Anything).Return(uuid.Nil, domain.ErrQuotaExceeded)

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindCompress, []uuid.UUID{inputID}, uuid.New(), "bundle.tar.gz")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusError, job.Status)
	assert.Contains(t, job.Message, "quota exceeded")
	mockObjects.AssertNotCalled(t, "WriteObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// trackedReader reports, through its channel, that the input stream was closed.
type trackedReader struct {
	io.Reader
	closed chan struct{}
}

func (r *trackedReader) Close() error {
	close(r.closed)
	return nil
}

func TestArchiveService_Compress_WriteFailureUnblocksCompressor(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	inputID := uuid.New()

	// incompressible input, large enough that the compressor must flush into
	// the pipe while the store write is still pending
	data := make([]byte, 256<<10)
	r := uint32(1)
	for i := range data {
		r = r*1664525 + 1013904223
		data[i] = byte(r >> 24)
	}
	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "noise.bin", Size: int64(len(data)), StorageKey: "objects/noise"}
	source := &trackedReader{Reader: bytes.NewReader(data), closed: make(chan struct{})}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	mockLedger := quota.NewMockLedger()
	service := newService(mockFiles, mockObjects, mockLedger, archiveCfg)

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockObjects.On("ReadObject", mock.Anything, "objects/noise").Return(source, nil)
	mockLedger.On("Reserve", mock.Anything, ownerID, mock.Anything).Return(uuid.New(), nil)
	mockLedger.On("Release", mock.Anything, mock.Anything).Return(nil)
	// the store aborts after the first chunk, leaving the rest of the
	// compressed stream undrained
	mockObjects.On("WriteObject", mock.Anything, mock.Anything, mock.Anything, int64(-1), "application/gzip").
		Run(func(args mock.Arguments) {
			_, _ = io.CopyN(io.Discard, args.Get(2).(io.Reader), 1024)
		}).
		Return(int64(0), errors.New("storage offline"))

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindCompress, []uuid.UUID{inputID}, uuid.New(), "bundle.tar.gz")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusError, job.Status)
	assert.Contains(t, job.Message, "archive write failed")
	mockLedger.AssertCalled(t, "Release", mock.Anything, mock.Anything)
	// the compressor goroutine must observe the failure and let go of its input
	require.Eventually(t, func() bool {
		select {
		case <-source.closed:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "input stream was never released")
}

func TestArchiveService_Extract_QuotaCommitFailureReleasesReservation(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	inputID := uuid.New()
	reservationID := uuid.New()

	var container bytes.Buffer
	gz := gzip.NewWriter(&container)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "a.txt", Size: 5, Mode: 0o644, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("alpha"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "bundle.tar.gz", Size: int64(container.Len()), StorageKey: "objects/bundle"}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	mockLedger := quota.NewMockLedger()
	service := newService(mockFiles, mockObjects, mockLedger, archiveCfg)

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockObjects.On("ReadObject", mock.Anything, "objects/bundle").Return(io.NopCloser(bytes.NewReader(container.Bytes())), nil)
	mockLedger.On("Reserve", mock.Anything, ownerID, int64(5)).Return(reservationID, nil)
	mockObjects.On("WriteObject", mock.Anything, mock.Anything, mock.Anything, int64(5), "application/octet-stream").
		Run(func(args mock.Arguments) {
			_, _ = io.Copy(io.Discard, args.Get(2).(io.Reader))
		}).
		Return(int64(5), nil)
	mockFiles.On("Commit", mock.Anything, mock.Anything, true).Return(nil)
	mockLedger.On("Commit", mock.Anything, reservationID).Return(errors.New("usage write failed"))
	mockLedger.On("Release", mock.Anything, reservationID).Return(nil)

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindExtract, []uuid.UUID{inputID}, uuid.New(), "")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusError, job.Status)
	// the reservation must not stay pinned once the entry commit cannot settle
	mockLedger.AssertCalled(t, "Release", mock.Anything, reservationID)
}

func TestArchiveService_Extract_TarGzCommitsEachEntry(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	parentID := uuid.New()
	inputID := uuid.New()

	var container bytes.Buffer
	gz := gzip.NewWriter(&container)
	tw := tar.NewWriter(gz)
	for name, body := range map[string]string{"a.txt": "alpha", "b.txt": "bravo"} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: "dir/" + name, Size: int64(len(body)), Mode: 0o644, Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "bundle.tar.gz", Size: int64(container.Len()), StorageKey: "objects/bundle"}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	mockLedger := quota.NewMockLedger()
	service := newService(mockFiles, mockObjects, mockLedger, archiveCfg)

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockObjects.On("ReadObject", mock.Anything, "objects/bundle").Return(io.NopCloser(bytes.NewReader(container.Bytes())), nil)
	mockLedger.On("Reserve", mock.Anything, ownerID, int64(5)).Return(uuid.New(), nil)
	mockObjects.On("WriteObject", mock.Anything, mock.Anything, mock.Anything, int64(5), "application/octet-stream").
		Run(func(args mock.Arguments) {
			_, _ = io.Copy(io.Discard, args.Get(2).(io.Reader))
		}).
		Return(int64(5), nil)
	// extracted entries land flat under the job parent, overwrite on
	mockFiles.On("Commit", mock.Anything, mock.MatchedBy(func(obj domain.FileObject) bool {
		return obj.ParentID == parentID && (obj.Name == "a.txt" || obj.Name == "b.txt")
	}), true).Return(nil)
	mockLedger.On("Commit", mock.Anything, mock.Anything).Return(nil)

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindExtract, []uuid.UUID{inputID}, parentID, "")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusReady, job.Status)
	assert.Contains(t, job.Message, "extracted 2 entries")
	mockFiles.AssertNumberOfCalls(t, "Commit", 2)
	mockLedger.AssertNumberOfCalls(t, "Commit", 2)
}

func TestArchiveService_Extract_CorruptContainerFailsJob(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID := uuid.New()
	inputID := uuid.New()
	input := &domain.FileObject{ID: inputID, OwnerID: ownerID, Name: "broken.tgz", Size: 12, StorageKey: "objects/broken"}

	mockFiles := repository.NewMockFileRepository()
	mockObjects := storage.NewMockObjectStore()
	service := newService(mockFiles, mockObjects, quota.NewMockLedger(), archiveCfg)

	mockFiles.On("FindByID", mock.Anything, inputID).Return(input, nil)
	mockObjects.On("ReadObject", mock.Anything, "objects/broken").Return(io.NopCloser(bytes.NewReader([]byte("not gzip data"))), nil)

	go func() { _ = service.Start(ctx) }()

	// Act
	jobID, err := service.Prepare(context.Background(), ownerID, domain.ArchiveJobKindExtract, []uuid.UUID{inputID}, uuid.New(), "")
	require.NoError(t, err)
	job := waitTerminal(t, service, jobID)

	// Assert
	assert.Equal(t, domain.ArchiveJobStatusError, job.Status)
	assert.Contains(t, job.Message, "after 0 entries")
}
