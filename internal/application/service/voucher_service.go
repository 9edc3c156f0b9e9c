package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// VoucherRenderer renders a document as an Excel workbook.
type VoucherRenderer interface {
	Render(doc *entity.ReimbursementDocument) (*excelize.File, error)
}

// VoucherService exports payment vouchers for fully approved documents.
type VoucherService interface {
	Export(ctx context.Context, documentID string) (*excelize.File, string, error)
}

type voucherServiceImpl struct {
	docRepo  port.DocumentRepository
	itemRepo port.BillItemRepository
	renderer VoucherRenderer
	logger   Logger
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(
	docRepo port.DocumentRepository,
	itemRepo port.BillItemRepository,
	renderer VoucherRenderer,
	logger Logger,
) VoucherService {
	return &voucherServiceImpl{
		docRepo:  docRepo,
		itemRepo: itemRepo,
		renderer: renderer,
		logger:   logger,
	}
}

// Export renders the voucher workbook and suggests a filename. Refused
// unless the document has passed the full reviewer chain.
func (s *voucherServiceImpl) Export(ctx context.Context, documentID string) (*excelize.File, string, error) {
	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	if doc.StaffStatus != entity.StatusApproved {
		return nil, "", apperr.Newf(apperr.KindInvalidState,
			"document %s is not approved (status %s)", documentID, doc.StaffStatus)
	}

	items, err := s.itemRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	doc.Items = items

	wb, err := s.renderer.Render(doc)
	if err != nil {
		s.logger.Error("Failed to render voucher", "error", err, "document_id", documentID)
		return nil, "", apperr.Wrap(apperr.KindInternal, "voucher rendering failed", err)
	}

	filename := fmt.Sprintf("voucher_%s.xlsx", doc.DocumentID)
	s.logger.Info("Voucher exported", "document_id", documentID, "filename", filename)
	return wb, filename, nil
}
