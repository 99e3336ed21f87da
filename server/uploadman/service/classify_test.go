package service

import (
	"errors"
	"testing"
)

func TestClassifyMediaType_Allowed(t *testing.T) {
	tests := []struct {
		declared string
		wantType string
		wantExt  string
	}{
		{"application/dicom", "application/dicom", "dcm"},
		{"image/jpeg", "image/jpeg", "jpg"},
		{"image/png", "image/png", "png"},
		{"application/pdf", "application/pdf", "pdf"},
		{"IMAGE/PNG", "image/png", "png"},
		{"  image/jpeg  ", "image/jpeg", "jpg"},
		{"application/pdf; charset=binary", "application/pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			mediaType, ext, err := classifyMediaType(tt.declared)
			if err != nil {
				t.Fatalf("classifyMediaType(%q) failed: %v", tt.declared, err)
			}
			if mediaType != tt.wantType {
				t.Errorf("expected media type %q, got %q", tt.wantType, mediaType)
			}
			if ext != tt.wantExt {
				t.Errorf("expected extension %q, got %q", tt.wantExt, ext)
			}
		})
	}
}

func TestClassifyMediaType_Rejected(t *testing.T) {
	for _, declared := range []string{"text/plain", "application/octet-stream", "image/gif", "", "png"} {
		t.Run(declared, func(t *testing.T) {
			_, _, err := classifyMediaType(declared)
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("classifyMediaType(%q): expected ErrUnsupportedType, got %v", declared, err)
			}
		})
	}
}

func TestSupportedMediaTypes(t *testing.T) {
	types := SupportedMediaTypes()
	if len(types) != 4 {
		t.Fatalf("expected 4 supported types, got %d: %v", len(types), types)
	}
	for _, mediaType := range types {
		if _, ok := allowedMediaTypes[mediaType]; !ok {
			t.Errorf("SupportedMediaTypes returned %q which is not in the allow-list", mediaType)
		}
	}
}
