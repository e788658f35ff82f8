package ocr

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// Supported MIME types.
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
	MimeGIF  = "image/gif"
	MimeBMP  = "image/bmp"
	MimeWEBP = "image/webp"
)

var supportedMimeTypes = map[string]bool{
	MimePDF:  true,
	MimePNG:  true,
	MimeJPEG: true,
	MimeTIFF: true,
	MimeGIF:  true,
	MimeBMP:  true,
	MimeWEBP: true,
}

var extensionMimeTypes = map[string]string{
	".pdf":  MimePDF,
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".tif":  MimeTIFF,
	".tiff": MimeTIFF,
	".gif":  MimeGIF,
	".bmp":  MimeBMP,
	".webp": MimeWEBP,
}

// MimeTypeFor returns the MIME type for a file name by extension, or "" when unknown.
func MimeTypeFor(path string) string {
	return extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
}

// DetectMimeType sniffs the content of a document.
func DetectMimeType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return MimePDF
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return MimeTIFF
	}
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}

// document is a fully read input with a validated MIME type.
type document struct {
	content  []byte
	mimeType string
}

func (d document) isImage() bool {
	return d.mimeType != MimePDF && d.mimeType != MimeTIFF
}

// readDocument reads r, enforces the size limit and resolves the MIME type.
func readDocument(op string, r io.Reader, mimeType string) (document, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return document{}, WrapOCRError(op, err, "failed to read document")
	}
	if len(content) == 0 {
		return document{}, WrapOCRError(op, ErrEmptyDocument, "document has no content")
	}
	if len(content) > MaxFileSizeBytes {
		return document{}, WrapOCRError(op, ErrDocumentTooLarge, fmt.Sprintf("file size exceeds %d bytes", MaxFileSizeBytes))
	}

	if mimeType == "" {
		mimeType = DetectMimeType(content)
	}
	if !supportedMimeTypes[mimeType] {
		return document{}, WrapOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("MIME type %q", mimeType))
	}
	if mimeType == MimePDF && !bytes.HasPrefix(content, []byte("%PDF")) {
		return document{}, WrapOCRError(op, ErrUnsupportedFormat, "missing PDF header")
	}

	return document{content: content, mimeType: mimeType}, nil
}

// clientOptions picks Google credentials from cfg. source is empty when none
// are configured and application default credentials should be tried.
func clientOptions(cfg Config) (opts []option.ClientOption, source string) {
	switch {
	case cfg.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}, "GOOGLE_CREDENTIALS"
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, "GOOGLE_APPLICATION_CREDENTIALS"
	default:
		return nil, ""
	}
}
