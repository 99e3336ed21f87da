package service

import (
	"fmt"
	"sort"
	"strings"
)

// Storage extension per accepted media type. The declared multipart
// Content-Type is trusted here; it drives the extension, the stored object's
// Content-Type and the recorded content_type, so the three always agree.
// Anything else is rejected before the request body is read.
var allowedMediaTypes = map[string]string{
	"application/dicom": "dcm",
	"image/jpeg":        "jpg",
	"image/png":         "png",
	"application/pdf":   "pdf",
}

// classifyMediaType resolves the declared type to its canonical form and
// storage extension. Parameters such as "; charset=..." are ignored.
func classifyMediaType(declared string) (mediaType, extension string, err error) {
	normalized := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(normalized, ';'); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	ext, ok := allowedMediaTypes[normalized]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}
	return normalized, ext, nil
}

// SupportedMediaTypes lists the accepted media types in stable order for
// client-facing error messages.
func SupportedMediaTypes() []string {
	types := make([]string, 0, len(allowedMediaTypes))
	for mediaType := range allowedMediaTypes {
		types = append(types, mediaType)
	}
	sort.Strings(types)
	return types
}
