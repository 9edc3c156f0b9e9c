package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/domain/entity"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository on SQLite.
// History rows are append-only.
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one transition record.
func (r *HistoryRepository) Append(ctx context.Context, e *entity.ApprovalHistoryEntry) error {
	query := `
		INSERT INTO approval_history (
			document_id, actor_role,
			previous_status, new_status, previous_role, new_role,
			remarks, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		e.DocumentID,
		e.ActorRole,
		string(e.PreviousStatus),
		string(e.NewStatus),
		string(e.PreviousRole),
		string(e.NewRole),
		e.Remarks,
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append history",
			zap.String("document_id", e.DocumentID),
			zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// ListByDocumentID retrieves the audit trail, oldest first.
func (r *HistoryRepository) ListByDocumentID(ctx context.Context, documentID string) ([]*entity.ApprovalHistoryEntry, error) {
	query := `
		SELECT id, document_id, actor_role,
			previous_status, new_status, previous_role, new_role,
			remarks, created_at
		FROM approval_history
		WHERE document_id = ?
		ORDER BY id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to list history",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalHistoryEntry
	for rows.Next() {
		var e entity.ApprovalHistoryEntry
		var prevStatus, newStatus, prevRole, newRole string
		err := rows.Scan(
			&e.ID,
			&e.DocumentID,
			&e.ActorRole,
			&prevStatus,
			&newStatus,
			&prevRole,
			&newRole,
			&e.Remarks,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.PreviousStatus = entity.StaffStatus(prevStatus)
		e.NewStatus = entity.StaffStatus(newStatus)
		e.PreviousRole = entity.StaffRole(prevRole)
		e.NewRole = entity.StaffRole(newRole)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
