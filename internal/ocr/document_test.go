package ocr

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", []byte("%PDF-1.7\n..."), MimePDF},
		{"tiff little endian", []byte("II*\x00rest"), MimeTIFF},
		{"tiff big endian", []byte("MM\x00*rest"), MimeTIFF},
		{"png", pngHeader, MimePNG},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), MimeJPEG},
		{"text", []byte("plain text"), "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMimeType(tt.data))
		})
	}
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, MimePDF, MimeTypeFor("claims/form.PDF"))
	assert.Equal(t, MimeJPEG, MimeTypeFor("scan.jpeg"))
	assert.Equal(t, MimeTIFF, MimeTypeFor("scan.tif"))
	assert.Equal(t, "", MimeTypeFor("notes.txt"))
	assert.Equal(t, "", MimeTypeFor("noext"))
}

func TestReadDocument(t *testing.T) {
	t.Run("detects type", func(t *testing.T) {
		doc, err := readDocument("op", bytes.NewReader(pngHeader), "")
		require.NoError(t, err)
		assert.Equal(t, MimePNG, doc.mimeType)
		assert.True(t, doc.isImage())
	})

	t.Run("pdf is not an image", func(t *testing.T) {
		doc, err := readDocument("op", strings.NewReader("%PDF-1.4"), MimePDF)
		require.NoError(t, err)
		assert.False(t, doc.isImage())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := readDocument("op", strings.NewReader(""), "")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("too large", func(t *testing.T) {
		big := bytes.Repeat([]byte{'a'}, MaxFileSizeBytes+1)
		_, err := readDocument("op", bytes.NewReader(big), MimePNG)
		assert.ErrorIs(t, err, ErrDocumentTooLarge)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := readDocument("op", strings.NewReader("plain text"), "")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("declared pdf without header", func(t *testing.T) {
		_, err := readDocument("op", bytes.NewReader(pngHeader), MimePDF)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		var ocrErr *OCRError
		require.ErrorAs(t, err, &ocrErr)
		assert.Equal(t, "missing PDF header", ocrErr.Details)
	})
}

func TestClientOptions(t *testing.T) {
	_, source := clientOptions(Config{CredentialsJSON: "{}", CredentialsFile: "creds.json"})
	assert.Equal(t, "GOOGLE_CREDENTIALS", source)

	opts, source := clientOptions(Config{CredentialsFile: "creds.json"})
	assert.Equal(t, "GOOGLE_APPLICATION_CREDENTIALS", source)
	assert.Len(t, opts, 1)

	opts, source = clientOptions(Config{})
	assert.Empty(t, source)
	assert.Empty(t, opts)
}

func TestParseBackend(t *testing.T) {
	for input, want := range map[string]Backend{
		"":            BackendVision,
		"vision":      BackendVision,
		" DocumentAI": BackendDocumentAI,
		"tesseract":   BackendTesseract,
	} {
		got, err := ParseBackend(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseBackend("azure")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNew_UnknownBackend(t *testing.T) {
	svc, err := New(context.Background(), Config{Backend: "azure"})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestWrapOCRError(t *testing.T) {
	assert.Nil(t, WrapOCRError("op", nil, ""))

	wrapped := WrapOCRError("inner", ErrOCRFailed, "details")
	assert.EqualError(t, wrapped, "ocr: inner failed: details: OCR processing failed")
	assert.Same(t, wrapped, WrapOCRError("outer", wrapped, "ignored"))
	assert.True(t, errors.Is(wrapped, ErrOCRFailed))

	assert.EqualError(t, NewOCRError("op", ErrEmptyDocument, ""), "ocr: op failed: document contains no readable text")
}

func TestMapContextError(t *testing.T) {
	cause := errors.New("rpc failed")
	assert.Same(t, cause, mapContextError(context.Background(), cause))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mapContextError(ctx, cause), ErrContextCanceled)
}
