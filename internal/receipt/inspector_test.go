package receipt

import (
	"testing"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// Minimal valid headers for content sniffing.
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func newTestInspector() *Inspector {
	return &Inspector{logger: zap.NewNop()}
}

func TestInspectAcceptsImages(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		wantMime string
	}{
		{name: "png", content: pngHeader, wantMime: entity.MimePNG},
		{name: "jpeg", content: jpegHeader, wantMime: entity.MimeJPEG},
	}

	ins := newTestInspector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := ins.Inspect("receipt."+tt.name, tt.content)
			if err != nil {
				t.Fatalf("Inspect: %v", err)
			}
			if mime != tt.wantMime {
				t.Errorf("mime = %q, want %q", mime, tt.wantMime)
			}
		})
	}
}

func TestInspectRejectsUnsupportedType(t *testing.T) {
	ins := newTestInspector()

	// Plain text sniffs as text/plain regardless of the filename.
	_, err := ins.Inspect("receipt.pdf", []byte("just some notes"))
	if !apperr.IsKind(err, apperr.KindUnsupportedFileType) {
		t.Fatalf("expected unsupported_file_type, got %v", err)
	}
}

func TestInspectRejectsEmptyFile(t *testing.T) {
	ins := newTestInspector()

	_, err := ins.Inspect("receipt.pdf", nil)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestInspectRejectsCorruptPDF(t *testing.T) {
	ins := newTestInspector()

	// Sniffs as application/pdf but is not a parseable document.
	_, err := ins.Inspect("receipt.pdf", []byte("%PDF-1.7 garbage"))
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
