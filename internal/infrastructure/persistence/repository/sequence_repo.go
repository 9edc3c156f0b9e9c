package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/sqlite"
)

// SequenceRepository hands out display sequence numbers with a single
// atomic upsert, replacing the race-prone count-rows-plus-one scheme.
type SequenceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository.
func NewSequenceRepository(db *sqlite.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{
		db:     db,
		logger: logger,
	}
}

// Next returns the next value of the named sequence, starting at 1.
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var value int64
	if err := r.db.Executor(ctx).QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		r.logger.Error("Failed to advance sequence",
			zap.String("name", name),
			zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

// Verify interface compliance
var _ port.SequenceRepository = (*SequenceRepository)(nil)
