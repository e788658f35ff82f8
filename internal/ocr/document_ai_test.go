package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formextract/pkg/models"
)

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func pageLayout(start, end int64, conf float32, x0, y0, x1, y1 int32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: anchor(start, end),
		Confidence: conf,
		BoundingPoly: &documentaipb.BoundingPoly{
			Vertices: []*documentaipb.Vertex{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}},
		},
	}
}

func TestConvertDocument(t *testing.T) {
	// "כהן" is three code points but six bytes; offsets are code points.
	doc := &documentaipb.Document{
		Text: "כהן David\n12345678\nName\n",
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 800, Unit: "pixels"},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: pageLayout(0, 10, 0.9, 100, 50, 230, 70)},
				{Layout: pageLayout(10, 19, 0.8, 100, 100, 200, 120)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: pageLayout(0, 4, 0.9, 100, 50, 150, 70)},
				{Layout: pageLayout(4, 10, 0.7, 160, 50, 230, 70)},
			},
			Tables: []*documentaipb.Document_Page_Table{{
				HeaderRows: []*documentaipb.Document_Page_Table_TableRow{{
					Cells: []*documentaipb.Document_Page_Table_TableCell{
						{Layout: pageLayout(19, 24, 0.6, 0, 0, 10, 10), ColSpan: 2},
						{Layout: pageLayout(10, 18, 0.5, 10, 0, 20, 10)},
					},
				}},
				BodyRows: []*documentaipb.Document_Page_Table_TableRow{{
					Cells: []*documentaipb.Document_Page_Table_TableCell{
						{Layout: pageLayout(0, 3, 0.4, 0, 10, 10, 20)},
					},
				}},
			}},
		}},
	}

	result, err := ConvertDocument(doc)
	require.NoError(t, err)

	require.Len(t, result.Text, 2)
	assert.Equal(t, "כהן David", result.Text[0].Text)
	assert.Equal(t, "12345678", result.Text[1].Text)
	assert.Equal(t, &models.BoundingBox{X: 100, Y: 50, Width: 130, Height: 20}, result.Text[0].BoundingBox)

	require.Len(t, result.Layout, 1)
	assert.Equal(t, "pixels", result.Layout[0].Unit)
	assert.Equal(t, 1000.0, result.Layout[0].Width)
	require.Len(t, result.Layout[0].Spans, 2)
	assert.Equal(t, "כהן", result.Layout[0].Spans[0].Text)
	assert.Equal(t, "David", result.Layout[0].Spans[1].Text)
	assert.InDelta(t, 0.8, result.AverageConfidence, 1e-6)

	require.Len(t, result.Tables, 1)
	cells := result.Tables[0]
	require.Len(t, cells, 3)
	assert.Equal(t, "Name", cells[0].Text)
	assert.Equal(t, 0, cells[0].ColumnIndex)
	assert.Equal(t, "12345678", cells[1].Text)
	assert.Equal(t, 2, cells[1].ColumnIndex)
	assert.Equal(t, 1, cells[2].RowIndex)
	require.NotNil(t, cells[2].Confidence)
	assert.InDelta(t, 0.4, *cells[2].Confidence, 1e-6)
	assert.Equal(t, "documentai", result.Backend)
}

func TestConvertDocument_Empty(t *testing.T) {
	_, err := ConvertDocument(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ConvertDocument(&documentaipb.Document{Pages: []*documentaipb.Document_Page{{}}})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestAnchorText(t *testing.T) {
	text := []rune("hello world")

	assert.Equal(t, "", anchorText(nil, text))
	assert.Equal(t, "world", anchorText(anchor(6, 11), text))
	assert.Equal(t, "world", anchorText(anchor(6, 99), text))
	assert.Equal(t, "", anchorText(anchor(8, 3), text))
	assert.Equal(t, "inline", anchorText(&documentaipb.Document_TextAnchor{Content: "inline"}, text))

	multi := &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
			{StartIndex: 0, EndIndex: 5},
			{StartIndex: 5, EndIndex: 11},
		},
	}
	assert.Equal(t, "hello world", anchorText(multi, text))
}

func TestProcessorName(t *testing.T) {
	cfg := Config{ProjectID: "proj", Location: "eu", ProcessorID: "abc"}
	assert.Equal(t, "projects/proj/locations/eu/processors/abc", ProcessorName(cfg))

	cfg.ProcessorVersion = "pretrained-ocr-v2.0"
	assert.Equal(t, "projects/proj/locations/eu/processors/abc/processorVersions/pretrained-ocr-v2.0", ProcessorName(cfg))

	assert.Equal(t, "projects/p/locations/us/processors/x", ProcessorName(Config{ProjectID: "p", ProcessorID: "x"}))
}

func TestRegionalEndpoint(t *testing.T) {
	assert.Equal(t, "", regionalEndpoint("us"))
	assert.Equal(t, "", regionalEndpoint(""))
	assert.Equal(t, "eu-documentai.googleapis.com:443", regionalEndpoint("eu"))
}

func TestHandleProcessingError(t *testing.T) {
	svc := &DocumentAIService{config: Config{ProcessorID: "abc"}}

	tests := []struct {
		msg  string
		want error
	}{
		{"rpc error: code = PermissionDenied desc = PERMISSION_DENIED", ErrMissingCredentials},
		{"rpc error: code = ResourceExhausted desc = quota", ErrQuotaExceeded},
		{"rpc error: code = NotFound desc = processor", ErrProcessorNotFound},
		{"rpc error: code = InvalidArgument desc = bad pdf", ErrUnsupportedFormat},
		{"context deadline exceeded", context.DeadlineExceeded},
		{"context canceled", ErrContextCanceled},
		{"something else", ErrOCRFailed},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := svc.handleProcessingError("op", errors.New(tt.msg))
			assert.ErrorIs(t, err, tt.want)

			var ocrErr *OCRError
			require.ErrorAs(t, err, &ocrErr)
			assert.Equal(t, "op", ocrErr.Op)
		})
	}
}

func TestNewDocumentAIService_RequiresProject(t *testing.T) {
	_, err := NewDocumentAIService(context.Background(), Config{ProcessorID: "abc"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewDocumentAIService(context.Background(), Config{ProjectID: "proj"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
