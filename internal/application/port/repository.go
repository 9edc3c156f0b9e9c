package port

import (
	"context"

	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// DocumentRepository defines persistence operations for
// ReimbursementDocument. Line items are loaded and stored through
// BillItemRepository; implementations return documents without items.
type DocumentRepository interface {
	// Create inserts a new document and sets its numeric ID.
	Create(ctx context.Context, doc *entity.ReimbursementDocument) error

	// GetByDocumentID retrieves a document by its display identifier.
	// Returns a not-found error when no such document exists.
	GetByDocumentID(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error)

	// ListByStudentID retrieves all documents submitted by a student,
	// newest first.
	ListByStudentID(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error)

	// Update persists the document if the stored version still equals
	// expectedVersion, bumping the version and updated_at. Returns a
	// stale-write error on version mismatch.
	Update(ctx context.Context, doc *entity.ReimbursementDocument, expectedVersion int64) error

	// ApplyDecision atomically advances the review state. The update only
	// takes effect when the stored staff type and status match the
	// expected values; the boolean reports whether a row changed.
	ApplyDecision(ctx context.Context, documentID string, expect DecisionFilter, set DecisionUpdate) (bool, error)

	// Delete removes the document. Line items are removed by cascade.
	Delete(ctx context.Context, documentID string) error
}

// DecisionFilter is the expected pre-state for a conditional review
// update.
type DecisionFilter struct {
	StaffType   entity.StaffRole
	StaffStatus entity.StaffStatus
}

// DecisionUpdate is the post-state written by a conditional review
// update.
type DecisionUpdate struct {
	StaffType        entity.StaffRole
	StaffStatus      entity.StaffStatus
	RejectionRemarks string
}

// BillItemRepository defines persistence operations for bill line items.
// Bill IDs are unique portal-wide, not just within one document.
type BillItemRepository interface {
	// ReplaceForDocument removes the document's current items and inserts
	// the given list. Used for both create (empty current list) and the
	// replacement semantics of updates.
	ReplaceForDocument(ctx context.Context, documentID string, items []entity.BillLineItem) error

	// GetByDocumentID retrieves the document's items in display order.
	GetByDocumentID(ctx context.Context, documentID string) ([]entity.BillLineItem, error)

	// Remove deletes one item by its bill ID. The remote file is not
	// touched; file lifecycle belongs to the file store.
	Remove(ctx context.Context, documentID, billID string) error
}

// SequenceRepository hands out monotonic display sequence numbers,
// unique under concurrent creates.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

// HistoryRepository defines persistence operations for the approval
// audit trail.
type HistoryRepository interface {
	Append(ctx context.Context, e *entity.ApprovalHistoryEntry) error
	ListByDocumentID(ctx context.Context, documentID string) ([]*entity.ApprovalHistoryEntry, error)
}

// TransactionManager runs a function within a database transaction.
// Nested calls reuse the ambient transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
