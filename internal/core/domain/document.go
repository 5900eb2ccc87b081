package domain

import (
	"mime"
	"path/filepath"
	"strings"
)

type MediaKind string

const (
	MediaKindPDF         MediaKind = "pdf"
	MediaKindImage       MediaKind = "image"
	MediaKindUnsupported MediaKind = ""
)

const (
	MediaTypePDF         = "application/pdf"
	MediaTypeOctetStream = "application/octet-stream"
)

// UploadedDocument is owned by a single pipeline run and discarded when it completes.
type UploadedDocument struct {
	Filename  string
	MediaType string
	Body      []byte
}

// ResolveMediaType strips parameters from the declared type and falls back to the
// filename extension when the declaration carries no information.
func ResolveMediaType(declared, filename string) string {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType != "" && mediaType != MediaTypeOctetStream {
		return mediaType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return MediaTypePDF
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			return parsed
		}
	}
	return mediaType
}

func KindOf(mediaType string) MediaKind {
	switch {
	case mediaType == MediaTypePDF:
		return MediaKindPDF
	case strings.HasPrefix(mediaType, "image/"):
		return MediaKindImage
	default:
		return MediaKindUnsupported
	}
}

// ImageMetadata is the text record produced for images; no OCR is performed.
type ImageMetadata struct {
	DocumentType string `json:"document_type"`
	Format       string `json:"format"`
	Mode         string `json:"mode"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}
