package service

import (
	"context"
	"time"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
	"github.com/councilworks/finance-portal/internal/domain/workflow"
)

// ApprovalService advances documents through the reviewer chain.
// Decisions are applied as a single conditional update so two staff
// members racing on the same stage cannot both win.
type ApprovalService interface {
	// SubmitForReview moves a pending document into review at its
	// current reviewer stage.
	SubmitForReview(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error)

	// Decide records an approval or rejection by actingRole. Approval at
	// an intermediate stage advances the chain; approval by the final
	// reviewer approves the document. Rejection is terminal until the
	// student edits the document.
	Decide(ctx context.Context, documentID string, actingRole entity.StaffRole, decision entity.Decision, remarks string) (*entity.ReimbursementDocument, error)

	// History returns the audit trail of review transitions.
	History(ctx context.Context, documentID string) ([]*entity.ApprovalHistoryEntry, error)
}

type approvalServiceImpl struct {
	docRepo   port.DocumentRepository
	histRepo  port.HistoryRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	docRepo port.DocumentRepository,
	histRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		docRepo:   docRepo,
		histRepo:  histRepo,
		txManager: txManager,
		logger:    logger,
	}
}

func (s *approvalServiceImpl) SubmitForReview(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	machine, err := workflow.NewMachine(workflow.State(doc.StaffStatus))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "corrupt document state", err)
	}
	priorStatus := entity.StaffStatus(machine.State())
	if err := machine.Fire(workflow.TriggerSubmit); err != nil {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"document %s cannot be submitted in status %s", documentID, doc.StaffStatus)
	}

	expect := port.DecisionFilter{StaffType: doc.StaffType, StaffStatus: priorStatus}
	set := port.DecisionUpdate{
		StaffType:        doc.StaffType,
		StaffStatus:      entity.StaffStatus(machine.State()),
		RejectionRemarks: doc.RejectionRemarks,
	}

	if err := s.apply(ctx, documentID, string(doc.StaffType), expect, set, "submitted for review"); err != nil {
		return nil, err
	}

	s.logger.Info("Document submitted for review", "document_id", documentID, "stage", doc.StaffType)
	return s.docRepo.GetByDocumentID(ctx, documentID)
}

func (s *approvalServiceImpl) Decide(ctx context.Context, documentID string, actingRole entity.StaffRole, decision entity.Decision, remarks string) (*entity.ReimbursementDocument, error) {
	if !actingRole.IsValid() {
		return nil, apperr.Validation("unknown staff role "+string(actingRole), "acting_role")
	}
	if decision != entity.DecisionApprove && decision != entity.DecisionReject {
		return nil, apperr.Validation("decision must be approve or reject", "decision")
	}

	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.StaffStatus != entity.StatusUnderReview {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"document %s is not under review (status %s)", documentID, doc.StaffStatus)
	}
	if actingRole != doc.StaffType {
		return nil, apperr.Newf(apperr.KindUnauthorizedRole,
			"document %s awaits %s, not %s", documentID, doc.StaffType, actingRole)
	}

	machine, err := workflow.NewMachine(workflow.StateUnderReview)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "corrupt document state", err)
	}

	var set port.DecisionUpdate
	var action string
	switch decision {
	case entity.DecisionApprove:
		next, hasNext := entity.NextReviewer(actingRole)
		if hasNext {
			if err := machine.Fire(workflow.TriggerAdvance); err != nil {
				return nil, apperr.Wrap(apperr.KindInvalidState, "cannot advance review", err)
			}
			set = port.DecisionUpdate{
				StaffType:        next,
				StaffStatus:      entity.StatusUnderReview,
				RejectionRemarks: doc.RejectionRemarks,
			}
			action = "approved, advanced to " + string(next)
		} else {
			if err := machine.Fire(workflow.TriggerApprove); err != nil {
				return nil, apperr.Wrap(apperr.KindInvalidState, "cannot approve", err)
			}
			set = port.DecisionUpdate{
				StaffType:        actingRole,
				StaffStatus:      entity.StatusApproved,
				RejectionRemarks: doc.RejectionRemarks,
			}
			action = "approved"
		}
	case entity.DecisionReject:
		if err := machine.Fire(workflow.TriggerReject); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidState, "cannot reject", err)
		}
		set = port.DecisionUpdate{
			StaffType:        actingRole,
			StaffStatus:      entity.StatusRejected,
			RejectionRemarks: remarks,
		}
		action = "rejected"
	}

	expect := port.DecisionFilter{StaffType: actingRole, StaffStatus: entity.StatusUnderReview}
	if err := s.apply(ctx, documentID, string(actingRole), expect, set, action); err != nil {
		return nil, err
	}

	s.logger.Info("Decision recorded",
		"document_id", documentID,
		"role", actingRole,
		"decision", decision,
		"new_status", set.StaffStatus,
		"new_stage", set.StaffType)
	return s.docRepo.GetByDocumentID(ctx, documentID)
}

func (s *approvalServiceImpl) History(ctx context.Context, documentID string) ([]*entity.ApprovalHistoryEntry, error) {
	if _, err := s.docRepo.GetByDocumentID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.histRepo.ListByDocumentID(ctx, documentID)
}

// apply performs the conditional state update and the history append in
// one transaction. A lost race (zero rows updated) is re-read to report
// the accurate failure kind.
func (s *approvalServiceImpl) apply(ctx context.Context, documentID, actor string, expect port.DecisionFilter, set port.DecisionUpdate, action string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		changed, err := s.docRepo.ApplyDecision(txCtx, documentID, expect, set)
		if err != nil {
			return err
		}
		if !changed {
			return s.raceError(txCtx, documentID, expect)
		}
		return s.histRepo.Append(txCtx, &entity.ApprovalHistoryEntry{
			DocumentID:     documentID,
			ActorRole:      actor,
			PreviousStatus: expect.StaffStatus,
			NewStatus:      set.StaffStatus,
			PreviousRole:   expect.StaffType,
			NewRole:        set.StaffType,
			Remarks:        action,
			CreatedAt:      time.Now().UTC(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to apply review transition", "error", err, "document_id", documentID)
	}
	return err
}

func (s *approvalServiceImpl) raceError(ctx context.Context, documentID string, expect port.DecisionFilter) error {
	doc, err := s.docRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.StaffStatus != expect.StaffStatus {
		return apperr.Newf(apperr.KindInvalidState,
			"document %s changed status to %s", documentID, doc.StaffStatus)
	}
	return apperr.Newf(apperr.KindUnauthorizedRole,
		"document %s awaits %s", documentID, doc.StaffType)
}
