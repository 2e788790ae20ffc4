// Package audit persists every reconciliation CLOWarden runs, along with
// the individual changes it applied, and exposes a searchable trail of
// that history.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Reconciliation is the parent row for one reconciliation pass. Error is
// the aggregated, across-service error text, empty when the pass applied
// cleanly. The PR fields are only set when the reconciliation was driven
// by a merged pull request rather than the periodic scheduler.
type Reconciliation struct {
	ReconciliationID uuid.UUID  `gorm:"column:reconciliation_id;type:uuid;primaryKey"`
	Error            string     `gorm:"column:error"`
	PRNumber         *int64     `gorm:"column:pr_number"`
	PRCreatedBy      string     `gorm:"column:pr_created_by"`
	PRMergedBy       string     `gorm:"column:pr_merged_by"`
	PRMergedAt       *time.Time `gorm:"column:pr_merged_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (Reconciliation) TableName() string { return "reconciliation" }

// Change is one applied (or attempted) directory/repository change,
// scoped to the service that applied it. Extra carries the change's
// kind-specific details as JSON (team name, repo, role, ...). Tsdoc holds
// the change's own keywords plus the owning reconciliation's PR metadata,
// space-joined and converted to a tsvector at insert time for free-text
// search; the keywords are not stored in a column of their own.
type Change struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ReconciliationID uuid.UUID `gorm:"column:reconciliation_id;type:uuid;index"`
	Service          string    `gorm:"column:service"`
	Kind             string    `gorm:"column:kind"`
	Extra            []byte    `gorm:"column:extra;type:jsonb"`
	AppliedAt        time.Time `gorm:"column:applied_at"`
	Error            string    `gorm:"column:error"`
	Tsdoc            string    `gorm:"column:tsdoc;type:tsvector;->"`
}

func (Change) TableName() string { return "change" }

// ReconciliationInput is what the worker that just finished a
// reconciliation hands to RegisterReconciliation.
type ReconciliationInput struct {
	PRNumber    *int64
	PRCreatedBy string
	PRMergedBy  string
	PRMergedAt  *time.Time

	// ChangesAppliedByService and ErrorsByService are keyed by service
	// name ("github" today, room for more later).
	ChangesAppliedByService map[string][]AppliedChange
	ErrorsByService         map[string]error
}

// AppliedChange mirrors pkg/service.AppliedChange without importing it,
// keeping pkg/audit free of a dependency on the reconciliation engine.
type AppliedChange struct {
	Kind      string
	Extra     map[string]any
	Keywords  []string
	Error     string
	AppliedAt time.Time
}

// SearchFilter narrows SearchChanges. Zero values are "no filter" for
// that field.
type SearchFilter struct {
	Service     string
	Kind        string
	AppliedFrom *time.Time
	AppliedTo   *time.Time
	PRNumber    *int64
	MergedBy    string
	SuccessOnly bool
	Query       string

	Limit  int
	Offset int
}

// ChangeRow is one row of a SearchChanges result, with the parent
// reconciliation's PR metadata denormalized in for display.
type ChangeRow struct {
	Change
	PRNumber    *int64
	PRCreatedBy string
	PRMergedBy  string
	PRMergedAt  *time.Time
}

// SearchResult is SearchChanges' return value: the page of matching rows
// plus the total count ignoring Limit/Offset, for pagination headers.
type SearchResult struct {
	TotalCount int64
	Rows       []ChangeRow
}
