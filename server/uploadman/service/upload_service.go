package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	commonlog "upload_server/server/common/log"
	"upload_server/server/uploadman/domain"
)

// Failure kinds surfaced to the HTTP layer. Each maps to exactly one status
// code; internal store errors are wrapped, never returned verbatim.
var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrStorage         = errors.New("object storage failure")
	ErrPersistence     = errors.New("metadata persistence failure")
)

// ObjectStore is the object-side capability the orchestrator needs: a durable
// synchronous put and the consumer-facing URL for a key.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// FileStore persists one metadata row per upload as a single committed unit.
type FileStore interface {
	Insert(ctx context.Context, rec domain.FileRecord) error
}

type UploadService struct {
	objects      ObjectStore
	records      FileStore
	publisher    *AMQPPublisher
	stats        *StatsService
	storeTimeout time.Duration
}

// NewUploadService wires the orchestrator. publisher and stats may be nil;
// both drive best-effort side effects that never change the response.
func NewUploadService(objects ObjectStore, records FileStore, publisher *AMQPPublisher, stats *StatsService, storeTimeout time.Duration) *UploadService {
	if storeTimeout <= 0 {
		storeTimeout = 30 * time.Second
	}
	return &UploadService{
		objects:      objects,
		records:      records,
		publisher:    publisher,
		stats:        stats,
		storeTimeout: storeTimeout,
	}
}

// Upload runs the ingestion sequence: classify the declared type, read the
// payload, write the object, then commit the metadata row. The object write
// comes first so a record never exists without its object. A metadata failure
// after a successful object write leaves an orphan object behind; it is logged
// with its key and left for out-of-band reclamation rather than deleted inline.
func (s *UploadService) Upload(ctx context.Context, filename, declaredType string, body io.Reader) (domain.FileRecord, string, error) {
	mediaType, extension, err := classifyMediaType(declaredType)
	if err != nil {
		return domain.FileRecord{}, "", err
	}

	payload, err := io.ReadAll(body)
	if err != nil {
		return domain.FileRecord{}, "", fmt.Errorf("read payload: %w", err)
	}
	size := int64(len(payload))

	fileID := uuid.NewString()
	objectKey := fileID + "." + extension

	putCtx, cancelPut := context.WithTimeout(ctx, s.storeTimeout)
	defer cancelPut()
	if err := s.objects.Put(putCtx, objectKey, bytes.NewReader(payload), size, mediaType); err != nil {
		return domain.FileRecord{}, "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	rec := domain.FileRecord{
		ID:          fileID,
		Filename:    filename,
		ContentType: mediaType,
		Size:        size,
		UploadDate:  time.Now().UTC(),
	}

	insertCtx, cancelInsert := context.WithTimeout(ctx, s.storeTimeout)
	defer cancelInsert()
	if err := s.records.Insert(insertCtx, rec); err != nil {
		commonlog.Errorf("metadata insert failed, orphan object %s left for reclamation: %v", objectKey, err)
		return domain.FileRecord{}, "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.afterUpload(ctx, rec, objectKey, payload)

	return rec, s.objects.PublicURL(objectKey), nil
}

// afterUpload runs the side effects of a committed upload. Failures here are
// logged and swallowed: the upload already succeeded.
func (s *UploadService) afterUpload(ctx context.Context, rec domain.FileRecord, objectKey string, payload []byte) {
	if rec.ContentType == "image/jpeg" || rec.ContentType == "image/png" {
		if err := s.storeThumbnail(ctx, rec.ID, payload); err != nil {
			commonlog.Warnf("thumbnail for %s: %v", objectKey, err)
		}
	}

	if s.publisher != nil {
		evt := domain.UploadedEvent{
			FileID:      rec.ID,
			ObjectKey:   objectKey,
			ContentType: rec.ContentType,
			Size:        rec.Size,
			UploadedAt:  rec.UploadDate,
		}
		if err := s.publisher.PublishUploaded(ctx, evt); err != nil {
			commonlog.Warnf("publish files.uploaded for %s: %v", rec.ID, err)
		}
	}

	if s.stats != nil {
		if err := s.stats.RecordUpload(ctx, rec.Size); err != nil {
			commonlog.Warnf("record upload stats for %s: %v", rec.ID, err)
		}
	}
}

func (s *UploadService) storeThumbnail(ctx context.Context, fileID string, payload []byte) error {
	img, err := imaging.Decode(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Thumbnail(img, 320, 320, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, imaging.JPEG); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbKey := fileID + "_thumb.jpg"
	putCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.objects.Put(putCtx, thumbKey, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg")
}
