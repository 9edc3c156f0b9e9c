package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
	"github.com/councilworks/finance-portal/internal/domain/workflow"
	"github.com/councilworks/finance-portal/pkg/utils"
)

const documentSequenceName = "reimbursement"

// DocumentService coordinates create/update/delete of reimbursement
// documents: count-parity validation, staged file uploads, total
// recomputation and the atomic commit of the parent record with its
// line items.
type DocumentService interface {
	Create(ctx context.Context, studentID string, in CreateInput, files []FileInput) (*entity.ReimbursementDocument, error)
	Get(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error)
	ListByStudent(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error)
	Update(ctx context.Context, documentID string, in UpdateInput) (*entity.ReimbursementDocument, error)
	RemoveItem(ctx context.Context, documentID, billID string, expectedVersion int64) (*entity.ReimbursementDocument, error)
	Delete(ctx context.Context, documentID string) error
}

type documentServiceImpl struct {
	docRepo   port.DocumentRepository
	itemRepo  port.BillItemRepository
	seqRepo   port.SequenceRepository
	histRepo  port.HistoryRepository
	txManager port.TransactionManager
	fileStore port.FileStore
	inspector port.ReceiptInspector
	logger    Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	docRepo port.DocumentRepository,
	itemRepo port.BillItemRepository,
	seqRepo port.SequenceRepository,
	histRepo port.HistoryRepository,
	txManager port.TransactionManager,
	fileStore port.FileStore,
	inspector port.ReceiptInspector,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		docRepo:   docRepo,
		itemRepo:  itemRepo,
		seqRepo:   seqRepo,
		histRepo:  histRepo,
		txManager: txManager,
		fileStore: fileStore,
		inspector: inspector,
		logger:    logger,
	}
}

// Create validates the submission, uploads all receipts, and persists
// the document atomically. Nothing is visible to readers unless every
// upload and every insert succeeded.
func (s *documentServiceImpl) Create(ctx context.Context, studentID string, in CreateInput, files []FileInput) (*entity.ReimbursementDocument, error) {
	if studentID == "" {
		return nil, apperr.Validation("student id is required", "student_id")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	event, err := in.Event.toEntity()
	if err != nil {
		return nil, err
	}

	// Staging: all uploads complete before anything is persisted.
	items, err := s.stageItems(ctx, in.Items, files)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &entity.ReimbursementDocument{
		StudentID:   studentID,
		Event:       event,
		Items:       items,
		TotalPaise:  entity.TotalPaise(items),
		Bank:        in.Bank.toEntity(),
		StaffType:   entity.RoleFaculty,
		StaffStatus: entity.StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		seq, err := s.seqRepo.Next(txCtx, documentSequenceName)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		doc.DocumentID = fmt.Sprintf("REIMB-%04d", seq)

		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.itemRepo.ReplaceForDocument(txCtx, doc.DocumentID, items); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		return s.histRepo.Append(txCtx, &entity.ApprovalHistoryEntry{
			DocumentID:     doc.DocumentID,
			ActorRole:      "student",
			PreviousStatus: "",
			NewStatus:      entity.StatusPending,
			PreviousRole:   "",
			NewRole:        entity.RoleFaculty,
			Remarks:        "document submitted",
			CreatedAt:      now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create reimbursement", "error", err, "student_id", studentID)
		return nil, err
	}

	s.logger.Info("Reimbursement created",
		"document_id", doc.DocumentID,
		"student_id", studentID,
		"items", len(items),
		"total", doc.TotalAmount())
	return doc, nil
}

// Get retrieves one document with its line items.
func (s *documentServiceImpl) Get(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

// ListByStudent retrieves all of a student's documents with items.
func (s *documentServiceImpl) ListByStudent(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error) {
	docs, err := s.docRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		items, err := s.itemRepo.GetByDocumentID(ctx, doc.DocumentID)
		if err != nil {
			return nil, err
		}
		doc.Items = items
	}
	return docs, nil
}

// Update applies a partial patch. Supplying items replaces the full
// list (never merged) and requires one file per item; the total is
// recomputed from the new list. Any content edit restarts the review
// chain at the first reviewer.
func (s *documentServiceImpl) Update(ctx context.Context, documentID string, in UpdateInput) (*entity.ReimbursementDocument, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Editing an approved document is not allowed; the machine has no
	// edit transition out of the terminal state.
	machine, err := workflow.NewMachine(workflow.State(doc.StaffStatus))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "corrupt document state", err)
	}
	if err := machine.Fire(workflow.TriggerEdit); err != nil {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"document %s cannot be edited in status %s", documentID, doc.StaffStatus)
	}

	if in.Event != nil {
		if err := utils.ValidateStruct(*in.Event); err != nil {
			return nil, err
		}
		event, err := in.Event.toEntity()
		if err != nil {
			return nil, err
		}
		doc.Event = event
	}
	if in.Bank != nil {
		if err := utils.ValidateStruct(*in.Bank); err != nil {
			return nil, err
		}
		doc.Bank = in.Bank.toEntity()
	}
	if in.RejectionRemarks != nil {
		doc.RejectionRemarks = *in.RejectionRemarks
	}

	itemsReplaced := in.Items != nil
	if itemsReplaced {
		items, err := s.stageItems(ctx, in.Items, in.Files)
		if err != nil {
			return nil, err
		}
		doc.Items = items
		doc.TotalPaise = entity.TotalPaise(items)
	}

	prevStatus, prevRole := doc.StaffStatus, doc.StaffType
	doc.StaffStatus = entity.StaffStatus(machine.State())
	doc.StaffType = entity.RoleFaculty
	doc.UpdatedAt = time.Now().UTC()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Update(txCtx, doc, in.ExpectedVersion); err != nil {
			return err
		}
		if itemsReplaced {
			if err := s.itemRepo.ReplaceForDocument(txCtx, documentID, doc.Items); err != nil {
				return fmt.Errorf("replace items: %w", err)
			}
		}
		if prevStatus != doc.StaffStatus || prevRole != doc.StaffType {
			return s.histRepo.Append(txCtx, &entity.ApprovalHistoryEntry{
				DocumentID:     documentID,
				ActorRole:      "student",
				PreviousStatus: prevStatus,
				NewStatus:      doc.StaffStatus,
				PreviousRole:   prevRole,
				NewRole:        doc.StaffType,
				Remarks:        "document edited, review restarted",
				CreatedAt:      doc.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update reimbursement", "error", err, "document_id", documentID)
		return nil, err
	}
	doc.Version = in.ExpectedVersion + 1

	s.logger.Info("Reimbursement updated",
		"document_id", documentID,
		"items_replaced", itemsReplaced,
		"total", doc.TotalAmount())
	return doc, nil
}

// RemoveItem deletes one line item and recomputes the total from the
// remaining items. The remote receipt file is left in place. Like any
// other edit, this restarts the review chain.
func (s *documentServiceImpl) RemoveItem(ctx context.Context, documentID, billID string, expectedVersion int64) (*entity.ReimbursementDocument, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	machine, err := workflow.NewMachine(workflow.State(doc.StaffStatus))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "corrupt document state", err)
	}
	if err := machine.Fire(workflow.TriggerEdit); err != nil {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"document %s cannot be edited in status %s", documentID, doc.StaffStatus)
	}

	remaining := make([]entity.BillLineItem, 0, len(doc.Items))
	found := false
	for _, it := range doc.Items {
		if it.BillID == billID {
			found = true
			continue
		}
		remaining = append(remaining, it)
	}
	if !found {
		return nil, apperr.Newf(apperr.KindNotFound, "bill %s not found in document %s", billID, documentID)
	}

	prevStatus, prevRole := doc.StaffStatus, doc.StaffType
	doc.Items = remaining
	doc.TotalPaise = entity.TotalPaise(remaining)
	doc.StaffStatus = entity.StaffStatus(machine.State())
	doc.StaffType = entity.RoleFaculty
	doc.UpdatedAt = time.Now().UTC()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Update(txCtx, doc, expectedVersion); err != nil {
			return err
		}
		if err := s.itemRepo.Remove(txCtx, documentID, billID); err != nil {
			return err
		}
		if prevStatus != doc.StaffStatus || prevRole != doc.StaffType {
			return s.histRepo.Append(txCtx, &entity.ApprovalHistoryEntry{
				DocumentID:     documentID,
				ActorRole:      "student",
				PreviousStatus: prevStatus,
				NewStatus:      doc.StaffStatus,
				PreviousRole:   prevRole,
				NewRole:        doc.StaffType,
				Remarks:        "bill removed, review restarted",
				CreatedAt:      doc.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to remove bill", "error", err, "document_id", documentID, "bill_id", billID)
		return nil, err
	}
	doc.Version = expectedVersion + 1

	s.logger.Info("Bill removed", "document_id", documentID, "bill_id", billID, "total", doc.TotalAmount())
	return doc, nil
}

// Delete removes a document. Only documents still pending review may be
// deleted; the restriction applies uniformly across document families.
func (s *documentServiceImpl) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.StaffStatus != entity.StatusPending {
		return apperr.Newf(apperr.KindInvalidState,
			"document %s cannot be deleted in status %s", documentID, doc.StaffStatus)
	}

	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		s.logger.Error("Failed to delete reimbursement", "error", err, "document_id", documentID)
		return err
	}
	s.logger.Info("Reimbursement deleted", "document_id", documentID)
	return nil
}

// stageItems validates count parity, parses and validates every item,
// inspects every file, then uploads all receipts concurrently and waits
// for the whole batch to settle. Validation failures are reported before
// any upload is attempted; an upload failure fails the batch.
func (s *documentServiceImpl) stageItems(ctx context.Context, inputs []ItemInput, files []FileInput) ([]entity.BillLineItem, error) {
	if len(inputs) != len(files) {
		return nil, apperr.Newf(apperr.KindCountMismatch,
			"%d bill items but %d files supplied", len(inputs), len(files))
	}
	if len(inputs) == 0 {
		return nil, apperr.Validation("at least one bill item is required", "reimbursement_items")
	}

	type staged struct {
		item entity.BillLineItem
		mime string
	}
	stagedItems := make([]staged, len(inputs))
	billIDs := make(map[string]bool, len(inputs))

	for i, in := range inputs {
		if err := utils.ValidateStruct(in); err != nil {
			return nil, err
		}
		date, err := parseDate(in.Date, fmt.Sprintf("reimbursement_items[%d].bill.date", i))
		if err != nil {
			return nil, err
		}
		amount, err := entity.ParseAmount(in.Amount)
		if err != nil {
			return nil, err
		}

		billID := in.BillID
		if billID == "" {
			billID = "BILL-" + uuid.NewString()
		}
		if billIDs[billID] {
			return nil, apperr.Validation("duplicate bill id "+billID, fmt.Sprintf("reimbursement_items[%d].bill_id", i))
		}
		billIDs[billID] = true

		mime, err := s.inspector.Inspect(files[i].Name, files[i].Content)
		if err != nil {
			return nil, err
		}

		stagedItems[i] = staged{
			item: entity.BillLineItem{
				BillID:   billID,
				Position: i,
				Bill: entity.Bill{
					Description: in.Description,
					Date:        date,
					AmountPaise: amount,
				},
			},
			mime: mime,
		}
	}

	// Fan out the uploads; the join barrier below guarantees the batch
	// has fully settled before anything is persisted.
	g, gctx := errgroup.WithContext(ctx)
	for i := range stagedItems {
		g.Go(func() error {
			url, err := s.fileStore.Upload(gctx, files[i].Name, files[i].Content, stagedItems[i].mime)
			if err != nil {
				return apperr.Wrap(apperr.KindFileUpload,
					fmt.Sprintf("upload failed for bill %s", stagedItems[i].item.BillID), err)
			}
			stagedItems[i].item.Bill.FileURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]entity.BillLineItem, len(stagedItems))
	for i, st := range stagedItems {
		items[i] = st.item
	}
	return items, nil
}
