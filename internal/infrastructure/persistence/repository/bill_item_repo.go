package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/sqlite"
)

// BillItemRepository implements port.BillItemRepository on SQLite. The
// bill_items table carries a UNIQUE constraint on bill_id, making bill
// ids unique portal-wide.
type BillItemRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBillItemRepository creates a new bill item repository.
func NewBillItemRepository(db *sqlite.DB, logger *zap.Logger) port.BillItemRepository {
	return &BillItemRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForDocument swaps the document's item list wholesale.
// Callers run this inside a transaction together with the parent update.
func (r *BillItemRepository) ReplaceForDocument(ctx context.Context, documentID string, items []entity.BillLineItem) error {
	exec := r.db.Executor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM bill_items WHERE document_id = ?`, documentID); err != nil {
		r.logger.Error("Failed to clear bill items",
			zap.String("document_id", documentID),
			zap.Error(err))
		return fmt.Errorf("failed to clear bill items: %w", err)
	}

	query := `
		INSERT INTO bill_items (
			bill_id, document_id, position,
			description, bill_date, amount_paise, file_url
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, it := range items {
		_, err := exec.ExecContext(ctx, query,
			it.BillID,
			documentID,
			it.Position,
			it.Bill.Description,
			it.Bill.Date,
			it.Bill.AmountPaise,
			it.Bill.FileURL,
		)
		if err != nil {
			r.logger.Error("Failed to insert bill item",
				zap.String("document_id", documentID),
				zap.String("bill_id", it.BillID),
				zap.Error(err))
			return fmt.Errorf("failed to insert bill item %s: %w", it.BillID, err)
		}
	}
	return nil
}

// GetByDocumentID retrieves the document's items in display order.
func (r *BillItemRepository) GetByDocumentID(ctx context.Context, documentID string) ([]entity.BillLineItem, error) {
	query := `
		SELECT bill_id, position, description, bill_date, amount_paise, file_url
		FROM bill_items
		WHERE document_id = ?
		ORDER BY position
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to get bill items",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get bill items: %w", err)
	}
	defer rows.Close()

	items := []entity.BillLineItem{}
	for rows.Next() {
		var it entity.BillLineItem
		err := rows.Scan(
			&it.BillID,
			&it.Position,
			&it.Bill.Description,
			&it.Bill.Date,
			&it.Bill.AmountPaise,
			&it.Bill.FileURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Remove deletes one item. The remote receipt file is not touched.
func (r *BillItemRepository) Remove(ctx context.Context, documentID, billID string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM bill_items WHERE document_id = ? AND bill_id = ?`, documentID, billID)
	if err != nil {
		r.logger.Error("Failed to remove bill item",
			zap.String("document_id", documentID),
			zap.String("bill_id", billID),
			zap.Error(err))
		return fmt.Errorf("failed to remove bill item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "bill %s not found in document %s", billID, documentID)
	}
	return nil
}

// Verify interface compliance
var _ port.BillItemRepository = (*BillItemRepository)(nil)
