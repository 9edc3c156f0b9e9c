package receipt

import (
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// Inspector validates receipt attachments before they are shipped to
// the file store. The MIME type is sniffed from the content, never
// taken from the filename or the client headers.
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates a new receipt inspector.
func NewInspector(logger *zap.Logger) port.ReceiptInspector {
	return &Inspector{logger: logger}
}

// Inspect checks the attachment against the allow list and, for PDFs,
// verifies the document actually opens. Returns the detected MIME type.
func (i *Inspector) Inspect(filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", apperr.Newf(apperr.KindValidation, "file %s is empty", filename)
	}

	detected := http.DetectContentType(content)
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}

	if !entity.AllowedMimeTypes[detected] {
		i.logger.Info("Rejected attachment",
			zap.String("filename", filename),
			zap.String("detected_type", detected))
		return "", apperr.Newf(apperr.KindUnsupportedFileType,
			"file %s has unsupported type %s, allowed types are PDF, JPEG and PNG", filename, detected)
	}

	if detected == entity.MimePDF {
		if err := i.checkPDF(filename, content); err != nil {
			return "", err
		}
	}

	return detected, nil
}

// checkPDF opens the document to catch truncated or corrupt uploads.
func (i *Inspector) checkPDF(filename string, content []byte) error {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		i.logger.Info("Rejected unreadable PDF",
			zap.String("filename", filename),
			zap.Error(err))
		return apperr.Newf(apperr.KindValidation, "file %s is not a readable PDF", filename)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return apperr.Newf(apperr.KindValidation, "file %s contains no pages", filename)
	}
	return nil
}

// Verify interface compliance
var _ port.ReceiptInspector = (*Inspector)(nil)
