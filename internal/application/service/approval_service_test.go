package service

import (
	"context"
	"testing"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

func newApprovalService(docRepo *mockDocumentRepo, histRepo *mockHistoryRepo) ApprovalService {
	return NewApprovalService(docRepo, histRepo, &mockTxManager{}, &mockLogger{})
}

// stageTracker simulates the documents table for chain progression
// tests: ApplyDecision succeeds only when the stored stage matches.
type stageTracker struct {
	doc *entity.ReimbursementDocument
}

func (s *stageTracker) repo() *mockDocumentRepo {
	return &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			snapshot := *s.doc
			return &snapshot, nil
		},
		applyDecisionFunc: func(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error) {
			if s.doc.StaffType != expect.StaffType || s.doc.StaffStatus != expect.StaffStatus {
				return false, nil
			}
			s.doc.StaffType = set.StaffType
			s.doc.StaffStatus = set.StaffStatus
			s.doc.RejectionRemarks = set.RejectionRemarks
			return true, nil
		},
	}
}

func TestApprovalService_SubmitForReview(t *testing.T) {
	tracker := &stageTracker{doc: storedDocument(entity.StatusPending, entity.RoleFaculty)}
	svc := newApprovalService(tracker.repo(), &mockHistoryRepo{})

	doc, err := svc.SubmitForReview(context.Background(), "REIMB-0001")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if doc.StaffStatus != entity.StatusUnderReview || doc.StaffType != entity.RoleFaculty {
		t.Errorf("document at %s/%s, want faculty/under_review", doc.StaffType, doc.StaffStatus)
	}
}

func TestApprovalService_SubmitFiltersOnStoredState(t *testing.T) {
	var gotExpect port.DecisionFilter
	var gotSet port.DecisionUpdate
	docRepo := &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			return storedDocument(entity.StatusPending, entity.RoleVicePrincipal), nil
		},
		applyDecisionFunc: func(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error) {
			gotExpect = expect
			gotSet = set
			return true, nil
		},
	}
	svc := newApprovalService(docRepo, &mockHistoryRepo{})

	if _, err := svc.SubmitForReview(context.Background(), "REIMB-0001"); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if gotExpect.StaffType != entity.RoleVicePrincipal || gotExpect.StaffStatus != entity.StatusPending {
		t.Errorf("conditional filter = %s/%s, want vice_principal/pending", gotExpect.StaffType, gotExpect.StaffStatus)
	}
	if gotSet.StaffType != entity.RoleVicePrincipal || gotSet.StaffStatus != entity.StatusUnderReview {
		t.Errorf("update = %s/%s, want vice_principal/under_review", gotSet.StaffType, gotSet.StaffStatus)
	}
}

func TestApprovalService_SubmitNonPendingRefused(t *testing.T) {
	tracker := &stageTracker{doc: storedDocument(entity.StatusUnderReview, entity.RoleFaculty)}
	svc := newApprovalService(tracker.repo(), &mockHistoryRepo{})

	_, err := svc.SubmitForReview(context.Background(), "REIMB-0001")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestApprovalService_DecideWrongRole(t *testing.T) {
	docRepo := &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			return storedDocument(entity.StatusUnderReview, entity.RoleFaculty), nil
		},
	}
	svc := newApprovalService(docRepo, &mockHistoryRepo{})

	_, err := svc.Decide(context.Background(), "REIMB-0001", entity.RolePrincipal, entity.DecisionApprove, "")
	if !apperr.IsKind(err, apperr.KindUnauthorizedRole) {
		t.Fatalf("expected unauthorized_role, got %v", err)
	}
	if docRepo.applyCalls != 0 {
		t.Error("no state change may happen for the wrong role")
	}
}

func TestApprovalService_DecideUnknownRole(t *testing.T) {
	svc := newApprovalService(&mockDocumentRepo{}, &mockHistoryRepo{})

	_, err := svc.Decide(context.Background(), "REIMB-0001", entity.StaffRole("janitor"), entity.DecisionApprove, "")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestApprovalService_DecideNotUnderReview(t *testing.T) {
	docRepo := &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			return storedDocument(entity.StatusPending, entity.RoleFaculty), nil
		},
	}
	svc := newApprovalService(docRepo, &mockHistoryRepo{})

	_, err := svc.Decide(context.Background(), "REIMB-0001", entity.RoleFaculty, entity.DecisionApprove, "")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestApprovalService_ApproveAdvancesChain(t *testing.T) {
	tracker := &stageTracker{doc: storedDocument(entity.StatusUnderReview, entity.RoleFaculty)}
	svc := newApprovalService(tracker.repo(), &mockHistoryRepo{})

	doc, err := svc.Decide(context.Background(), "REIMB-0001", entity.RoleFaculty, entity.DecisionApprove, "")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if doc.StaffType != entity.RoleVicePrincipal || doc.StaffStatus != entity.StatusUnderReview {
		t.Errorf("document at %s/%s, want vice principal/under_review", doc.StaffType, doc.StaffStatus)
	}
}

func TestApprovalService_FullChainApproval(t *testing.T) {
	tracker := &stageTracker{doc: storedDocument(entity.StatusUnderReview, entity.RoleFaculty)}
	histRepo := &mockHistoryRepo{}
	svc := newApprovalService(tracker.repo(), histRepo)

	for _, role := range entity.ReviewerChain {
		doc, err := svc.Decide(context.Background(), "REIMB-0001", role, entity.DecisionApprove, "")
		if err != nil {
			t.Fatalf("Decide as %s: %v", role, err)
		}
		if role == entity.RoleAccountant {
			if doc.StaffStatus != entity.StatusApproved {
				t.Errorf("final decision left status %s, want approved", doc.StaffStatus)
			}
		} else if doc.StaffStatus != entity.StatusUnderReview {
			t.Errorf("decision by %s left status %s, want under_review", role, doc.StaffStatus)
		}
	}

	if len(histRepo.entries) != len(entity.ReviewerChain) {
		t.Errorf("history entries = %d, want %d", len(histRepo.entries), len(entity.ReviewerChain))
	}
}

func TestApprovalService_RejectStoresRemarks(t *testing.T) {
	tracker := &stageTracker{doc: storedDocument(entity.StatusUnderReview, entity.RolePrincipal)}
	svc := newApprovalService(tracker.repo(), &mockHistoryRepo{})

	doc, err := svc.Decide(context.Background(), "REIMB-0001", entity.RolePrincipal, entity.DecisionReject, "bills illegible")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if doc.StaffStatus != entity.StatusRejected {
		t.Errorf("status = %s, want rejected", doc.StaffStatus)
	}
	if doc.RejectionRemarks != "bills illegible" {
		t.Errorf("remarks = %q", doc.RejectionRemarks)
	}
	if doc.StaffType != entity.RolePrincipal {
		t.Errorf("rejecting stage = %s, want principal preserved", doc.StaffType)
	}
}

func TestApprovalService_LostRaceReported(t *testing.T) {
	// The stored row moved on between the read and the conditional
	// update; the second writer must get a classified error, not a
	// silent double transition.
	docRepo := &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			return storedDocument(entity.StatusUnderReview, entity.RoleFaculty), nil
		},
		applyDecisionFunc: func(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error) {
			return false, nil
		},
	}
	svc := newApprovalService(docRepo, &mockHistoryRepo{})

	_, err := svc.Decide(context.Background(), "REIMB-0001", entity.RoleFaculty, entity.DecisionApprove, "")
	if err == nil {
		t.Fatal("expected an error for the lost race")
	}
	kind := apperr.KindOf(err)
	if kind != apperr.KindUnauthorizedRole && kind != apperr.KindInvalidState {
		t.Fatalf("expected unauthorized_role or invalid_state, got %v", err)
	}
}

func TestApprovalService_History(t *testing.T) {
	histRepo := &mockHistoryRepo{
		entries: []*entity.ApprovalHistoryEntry{
			{DocumentID: "REIMB-0001", ActorRole: "student", NewStatus: entity.StatusPending},
			{DocumentID: "REIMB-0001", ActorRole: "faculty", NewStatus: entity.StatusUnderReview},
		},
	}
	docRepo := &mockDocumentRepo{
		getFunc: func(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
			return storedDocument(entity.StatusUnderReview, entity.RoleFaculty), nil
		},
	}
	svc := newApprovalService(docRepo, histRepo)

	entries, err := svc.History(context.Background(), "REIMB-0001")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestApprovalService_HistoryUnknownDocument(t *testing.T) {
	svc := newApprovalService(&mockDocumentRepo{}, &mockHistoryRepo{})

	_, err := svc.History(context.Background(), "REIMB-9999")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
