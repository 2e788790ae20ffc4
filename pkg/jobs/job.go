// Package jobs implements the reconciliation engine's scheduling model
// (spec.md §4.7): one worker per organization, strict per-org FIFO,
// cooperative shutdown, and an hourly periodic reconcile scheduler.
package jobs

import (
	"time"

	"github.com/clowarden/clowarden/pkg/ghclient"
)

// Job is anything the engine can route and run. OrgName determines which
// per-organization worker processes it.
type Job interface {
	OrgName() string
}

// ValidateJob checks a pull request's configuration changes without
// applying them, per spec.md §4.7. CheckRunID identifies the in-progress
// check-run the webhook handler created before enqueueing this job; the
// worker transitions it to a terminal conclusion once validation
// finishes.
type ValidateJob struct {
	Org        string
	PRNumber   int
	PRHead     ghclient.Source
	CheckRunID int64
}

// OrgName implements Job.
func (j ValidateJob) OrgName() string { return j.Org }

// ReconcileJob applies an organization's current desired state. PRNumber
// and the PR metadata fields are set when the job was triggered by a
// merged pull request rather than the periodic scheduler.
type ReconcileJob struct {
	Org         string
	PRNumber    *int
	PRCreatedBy string
	PRMergedBy  string
	PRMergedAt  *time.Time
}

// OrgName implements Job.
func (j ReconcileJob) OrgName() string { return j.Org }
