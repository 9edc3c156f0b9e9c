package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/sqlite"
)

const documentColumns = `
	id, document_id, student_id,
	event_name, event_date, event_description, council_name,
	total_paise,
	account_holder_name, account_number, ifsc_code, bank_name,
	staff_type, staff_status, rejection_remarks,
	version, created_at, updated_at`

// DocumentRepository implements port.DocumentRepository on SQLite.
type DocumentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlite.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new document and sets its numeric ID.
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.ReimbursementDocument) error {
	query := `
		INSERT INTO documents (
			document_id, student_id,
			event_name, event_date, event_description, council_name,
			total_paise,
			account_holder_name, account_number, ifsc_code, bank_name,
			staff_type, staff_status, rejection_remarks,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		doc.DocumentID,
		doc.StudentID,
		doc.Event.EventName,
		doc.Event.EventDate,
		doc.Event.EventDescription,
		doc.Event.CouncilName,
		doc.TotalPaise,
		doc.Bank.AccountHolderName,
		doc.Bank.AccountNumber,
		doc.Bank.IFSCCode,
		doc.Bank.BankName,
		string(doc.StaffType),
		string(doc.StaffStatus),
		doc.RejectionRemarks,
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document",
			zap.String("document_id", doc.DocumentID),
			zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id
	return nil
}

// GetByDocumentID retrieves a document (without line items).
func (r *DocumentRepository) GetByDocumentID(ctx context.Context, documentID string) (*entity.ReimbursementDocument, error) {
	query := `SELECT` + documentColumns + ` FROM documents WHERE document_id = ?`

	doc, err := scanDocument(r.db.Executor(ctx).QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.KindNotFound, "document %s not found", documentID)
	}
	if err != nil {
		r.logger.Error("Failed to get document",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListByStudentID retrieves a student's documents, newest first.
func (r *DocumentRepository) ListByStudentID(ctx context.Context, studentID string) ([]*entity.ReimbursementDocument, error) {
	query := `SELECT` + documentColumns + ` FROM documents WHERE student_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, studentID)
	if err != nil {
		r.logger.Error("Failed to list documents",
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.ReimbursementDocument
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update persists the document under optimistic concurrency control.
func (r *DocumentRepository) Update(ctx context.Context, doc *entity.ReimbursementDocument, expectedVersion int64) error {
	query := `
		UPDATE documents SET
			event_name = ?, event_date = ?, event_description = ?, council_name = ?,
			total_paise = ?,
			account_holder_name = ?, account_number = ?, ifsc_code = ?, bank_name = ?,
			staff_type = ?, staff_status = ?, rejection_remarks = ?,
			version = version + 1, updated_at = ?
		WHERE document_id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		doc.Event.EventName,
		doc.Event.EventDate,
		doc.Event.EventDescription,
		doc.Event.CouncilName,
		doc.TotalPaise,
		doc.Bank.AccountHolderName,
		doc.Bank.AccountNumber,
		doc.Bank.IFSCCode,
		doc.Bank.BankName,
		string(doc.StaffType),
		string(doc.StaffStatus),
		doc.RejectionRemarks,
		doc.UpdatedAt,
		doc.DocumentID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update document",
			zap.String("document_id", doc.DocumentID),
			zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		// Either the document vanished or someone wrote a newer version.
		if _, err := r.GetByDocumentID(ctx, doc.DocumentID); err != nil {
			return err
		}
		return apperr.Newf(apperr.KindStaleWrite,
			"document %s was modified concurrently (expected version %d)", doc.DocumentID, expectedVersion)
	}
	return nil
}

// ApplyDecision atomically advances the review state when the stored
// stage still matches the expectation.
func (r *DocumentRepository) ApplyDecision(ctx context.Context, documentID string, expect port.DecisionFilter, set port.DecisionUpdate) (bool, error) {
	query := `
		UPDATE documents SET
			staff_type = ?, staff_status = ?, rejection_remarks = ?,
			version = version + 1, updated_at = ?
		WHERE document_id = ? AND staff_type = ? AND staff_status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(set.StaffType),
		string(set.StaffStatus),
		set.RejectionRemarks,
		time.Now().UTC(),
		documentID,
		string(expect.StaffType),
		string(expect.StaffStatus),
	)
	if err != nil {
		r.logger.Error("Failed to apply decision",
			zap.String("document_id", documentID),
			zap.Error(err))
		return false, fmt.Errorf("failed to apply decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a document. Line items go with it via cascade.
func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM documents WHERE document_id = ?`, documentID)
	if err != nil {
		r.logger.Error("Failed to delete document",
			zap.String("document_id", documentID),
			zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "document %s not found", documentID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInto(s rowScanner) (*entity.ReimbursementDocument, error) {
	var doc entity.ReimbursementDocument
	var staffType, staffStatus string

	err := s.Scan(
		&doc.ID,
		&doc.DocumentID,
		&doc.StudentID,
		&doc.Event.EventName,
		&doc.Event.EventDate,
		&doc.Event.EventDescription,
		&doc.Event.CouncilName,
		&doc.TotalPaise,
		&doc.Bank.AccountHolderName,
		&doc.Bank.AccountNumber,
		&doc.Bank.IFSCCode,
		&doc.Bank.BankName,
		&staffType,
		&staffStatus,
		&doc.RejectionRemarks,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.StaffType = entity.StaffRole(staffType)
	doc.StaffStatus = entity.StaffStatus(staffStatus)
	return &doc, nil
}

func scanDocument(row *sql.Row) (*entity.ReimbursementDocument, error) {
	return scanInto(row)
}

func scanDocumentRows(rows *sql.Rows) (*entity.ReimbursementDocument, error) {
	return scanInto(rows)
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
