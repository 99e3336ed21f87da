package domain

import "time"

// FileRecord is the metadata row written after the payload is durable in the
// object store. A record existing implies the object exists under
// "{id}.{extension}"; the reverse is not guaranteed.
type FileRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"upload_date"`
}

type UploadedEvent struct {
	FileID      string    `json:"file_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
