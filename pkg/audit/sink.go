package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sink persists reconciliation history and makes it searchable.
type Sink interface {
	RegisterReconciliation(ctx context.Context, input ReconciliationInput) (uuid.UUID, error)
	SearchChanges(ctx context.Context, filter SearchFilter) (*SearchResult, error)
}

// gormSink is the Postgres-backed Sink, grounded on the storage layer
// pattern every gorm-based repo in the retrieval pack follows: a thin
// struct wrapping *gorm.DB, one method per operation, WithContext on
// every query, a transaction for anything multi-row.
type gormSink struct {
	db *gorm.DB
}

// NewGormSink returns a Sink backed by db. Callers are expected to have
// already run AutoMigrate(&Reconciliation{}, &Change{}).
func NewGormSink(db *gorm.DB) Sink {
	return &gormSink{db: db}
}

// RegisterReconciliation inserts one reconciliation row and its change
// rows in a single transaction: either the whole pass is recorded, or
// none of it is.
func (s *gormSink) RegisterReconciliation(ctx context.Context, input ReconciliationInput) (uuid.UUID, error) {
	id := uuid.New()
	rows, err := buildChangeRows(id.String(), input)
	if err != nil {
		return uuid.Nil, fmt.Errorf("building change rows: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reconciliation := Reconciliation{
			ReconciliationID: id,
			Error:            aggregatedError(input),
			PRNumber:         input.PRNumber,
			PRCreatedBy:      input.PRCreatedBy,
			PRMergedBy:       input.PRMergedBy,
			PRMergedAt:       input.PRMergedAt,
			CreatedAt:        time.Now(),
		}
		if err := tx.Create(&reconciliation).Error; err != nil {
			return fmt.Errorf("inserting reconciliation: %w", err)
		}

		for _, row := range rows {
			change := Change{
				ReconciliationID: id,
				Service:          row.service,
				Kind:             row.kind,
				Extra:            row.extra,
				AppliedAt:        row.appliedAt,
				Error:            row.errText,
			}
			// Tsdoc is a tsvector column computed here as
			// to_tsvector over the row's space-joined keywords;
			// gorm can't populate it from a Go string, so insert
			// via raw SQL instead of tx.Create for this one row.
			result := tx.Exec(
				`INSERT INTO change (reconciliation_id, service, kind, extra, applied_at, error, tsdoc)
				 VALUES (?, ?, ?, ?, ?, ?, to_tsvector('english', ?))`,
				change.ReconciliationID, change.Service, change.Kind, change.Extra,
				change.AppliedAt, change.Error, strings.Join(row.keywords, " "),
			)
			if result.Error != nil {
				return fmt.Errorf("inserting change: %w", result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// SearchChanges runs filter against the change/reconciliation tables,
// returning a page of matching rows plus the total match count.
func (s *gormSink) SearchChanges(ctx context.Context, filter SearchFilter) (*SearchResult, error) {
	where, args := searchWhereClause(filter)

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT count(*) FROM change c
		JOIN reconciliation r ON r.reconciliation_id = c.reconciliation_id
		WHERE %s`, where)
	if err := s.db.WithContext(ctx).Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("counting changes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rowsQuery := fmt.Sprintf(`
		SELECT c.*, r.pr_number, r.pr_created_by, r.pr_merged_by, r.pr_merged_at
		FROM change c
		JOIN reconciliation r ON r.reconciliation_id = c.reconciliation_id
		WHERE %s
		ORDER BY c.applied_at DESC
		LIMIT ? OFFSET ?`, where)

	var rows []ChangeRow
	queryArgs := append(append([]any{}, args...), limit, filter.Offset)
	if err := s.db.WithContext(ctx).Raw(rowsQuery, queryArgs...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("searching changes: %w", err)
	}

	return &SearchResult{TotalCount: total, Rows: rows}, nil
}

func searchWhereClause(filter SearchFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if filter.Service != "" {
		clauses = append(clauses, "c.service = ?")
		args = append(args, filter.Service)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "c.kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.AppliedFrom != nil {
		clauses = append(clauses, "c.applied_at >= ?")
		args = append(args, *filter.AppliedFrom)
	}
	if filter.AppliedTo != nil {
		clauses = append(clauses, "c.applied_at <= ?")
		args = append(args, *filter.AppliedTo)
	}
	if filter.PRNumber != nil {
		clauses = append(clauses, "r.pr_number = ?")
		args = append(args, *filter.PRNumber)
	}
	if filter.MergedBy != "" {
		clauses = append(clauses, "r.pr_merged_by = ?")
		args = append(args, filter.MergedBy)
	}
	if filter.SuccessOnly {
		clauses = append(clauses, "c.error = ''")
	}
	if filter.Query != "" {
		clauses = append(clauses, "c.tsdoc @@ plainto_tsquery('english', ?)")
		args = append(args, filter.Query)
	}

	return strings.Join(clauses, " AND "), args
}
