package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"upload_server/server/uploadman/domain"
)

type memObjectStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memObjectStore) Put(_ context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("declared size %d does not match payload size %d", size, len(data))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memObjectStore) PublicURL(key string) string {
	return "http://localhost:9000/uploads/" + key
}

func (m *memObjectStore) objectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type memFileStore struct {
	mu        sync.Mutex
	records   map[string]domain.FileRecord
	insertErr error
}

func newMemFileStore() *memFileStore {
	return &memFileStore{records: map[string]domain.FileRecord{}}
}

func (m *memFileStore) Insert(_ context.Context, rec domain.FileRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memFileStore) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newTestService(objects *memObjectStore, records *memFileStore) *UploadService {
	return NewUploadService(objects, records, nil, nil, 5*time.Second)
}

func TestUpload_SupportedTypes(t *testing.T) {
	tests := []struct {
		declared string
		wantExt  string
	}{
		{"application/dicom", "dcm"},
		{"image/jpeg", "jpg"},
		{"image/png", "png"},
		{"application/pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			objects := newMemObjectStore()
			records := newMemFileStore()
			svc := newTestService(objects, records)

			payload := []byte("payload-for-" + tt.declared)
			rec, url, err := svc.Upload(context.Background(), "sample."+tt.wantExt, tt.declared, bytes.NewReader(payload))
			if err != nil {
				t.Fatalf("Upload failed: %v", err)
			}
			if rec.ID == "" {
				t.Fatal("expected a generated file id")
			}
			if rec.Size != int64(len(payload)) {
				t.Errorf("expected size %d, got %d", len(payload), rec.Size)
			}
			if !strings.HasSuffix(url, "."+tt.wantExt) {
				t.Errorf("expected url ending in .%s, got %s", tt.wantExt, url)
			}

			key := rec.ID + "." + tt.wantExt
			stored, ok := objects.objects[key]
			if !ok {
				t.Fatalf("object %s not written", key)
			}
			if !bytes.Equal(stored, payload) {
				t.Error("stored object does not match the uploaded payload")
			}
			if objects.contentTypes[key] != rec.ContentType {
				t.Errorf("object content type %q does not match record %q", objects.contentTypes[key], rec.ContentType)
			}
			if _, ok := records.records[rec.ID]; !ok {
				t.Errorf("record %s not persisted", rec.ID)
			}
		})
	}
}

func TestUpload_PNGScenario(t *testing.T) {
	objects := newMemObjectStore()
	records := newMemFileStore()
	svc := newTestService(objects, records)

	payload := []byte("0123456789")
	rec, url, err := svc.Upload(context.Background(), "x.png", "image/png", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if rec.Size != 10 {
		t.Errorf("expected size 10, got %d", rec.Size)
	}
	if rec.ContentType != "image/png" {
		t.Errorf("expected content type image/png, got %q", rec.ContentType)
	}
	if rec.Filename != "x.png" {
		t.Errorf("expected filename x.png, got %q", rec.Filename)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("expected url ending in .png, got %s", url)
	}
	if rec.UploadDate.IsZero() || rec.UploadDate.Location() != time.UTC {
		t.Errorf("expected a UTC upload date, got %v", rec.UploadDate)
	}
}

func TestUpload_UnsupportedTypeTouchesNoStore(t *testing.T) {
	objects := newMemObjectStore()
	records := newMemFileStore()
	svc := newTestService(objects, records)

	_, _, err := svc.Upload(context.Background(), "notes.txt", "text/plain", bytes.NewReader([]byte("hello")))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if objects.objectCount() != 0 {
		t.Error("object store must not be touched for a rejected type")
	}
	if records.recordCount() != 0 {
		t.Error("metadata store must not be touched for a rejected type")
	}
}

func TestUpload_StorageFailureWritesNoRecord(t *testing.T) {
	objects := newMemObjectStore()
	objects.putErr = errors.New("connection refused")
	records := newMemFileStore()
	svc := newTestService(objects, records)

	_, _, err := svc.Upload(context.Background(), "scan.dcm", "application/dicom", bytes.NewReader([]byte("dicom-bytes")))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if records.recordCount() != 0 {
		t.Error("no record may exist when the object write failed")
	}
}

func TestUpload_MetadataFailureLeavesOrphanObject(t *testing.T) {
	objects := newMemObjectStore()
	records := newMemFileStore()
	records.insertErr = errors.New("commit failed")
	svc := newTestService(objects, records)

	_, _, err := svc.Upload(context.Background(), "report.pdf", "application/pdf", bytes.NewReader([]byte("pdf-bytes")))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if objects.objectCount() != 1 {
		t.Errorf("expected the orphan object to remain, found %d objects", objects.objectCount())
	}
	if records.recordCount() != 0 {
		t.Error("no record may reference the orphan object")
	}
}

func TestUpload_EveryRecordHasItsObject(t *testing.T) {
	objects := newMemObjectStore()
	records := newMemFileStore()
	svc := newTestService(objects, records)

	for i := 0; i < 20; i++ {
		payload := bytes.Repeat([]byte{byte(i)}, i+1)
		if _, _, err := svc.Upload(context.Background(), fmt.Sprintf("f%d.pdf", i), "application/pdf", bytes.NewReader(payload)); err != nil {
			t.Fatalf("upload %d failed: %v", i, err)
		}
	}

	for id, rec := range records.records {
		data, ok := objects.objects[id+".pdf"]
		if !ok {
			t.Errorf("record %s has no object", id)
			continue
		}
		if int64(len(data)) != rec.Size {
			t.Errorf("record %s size %d does not match object size %d", id, rec.Size, len(data))
		}
	}
}

func TestUpload_ConcurrentUploadsUniqueIDs(t *testing.T) {
	objects := newMemObjectStore()
	records := newMemFileStore()
	svc := newTestService(objects, records)

	const uploads = 100
	ids := make(chan string, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("payload-%d", n))
			rec, _, err := svc.Upload(context.Background(), fmt.Sprintf("f%d.pdf", n), "application/pdf", bytes.NewReader(payload))
			if err != nil {
				t.Errorf("upload %d failed: %v", n, err)
				return
			}
			ids <- rec.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate file id %s", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != uploads {
		t.Fatalf("expected %d unique ids, got %d", uploads, len(seen))
	}
	if objects.objectCount() != uploads || records.recordCount() != uploads {
		t.Fatalf("expected %d objects and records, got %d/%d", uploads, objects.objectCount(), records.recordCount())
	}
}
