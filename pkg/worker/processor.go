// Package worker implements jobs.Handler, wiring together the pieces a
// validate or reconcile job actually needs: pkg/service to build and
// apply changes, pkg/feedback to render a report, pkg/audit to persist a
// reconciliation's outcome, and the platform Notifier to post it back.
// pkg/jobs stays free of all four imports on purpose (it only knows how
// to route and serialize jobs), so this wiring lives one layer up.
package worker

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/audit"
	"github.com/clowarden/clowarden/pkg/feedback"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/service"
)

// checkRunName is the fixed check-run title spec.md §4.7 calls for.
const checkRunName = "CLOWarden"

// reconciler is the slice of *service.Handler a Processor actually calls,
// narrowed so tests can fake it without standing up a full ghclient.Gateway.
type reconciler interface {
	GetChangesSummary(ctx context.Context, org service.Org, headSource ghclient.Source) (*service.ChangesSummary, error)
	Reconcile(ctx context.Context, org service.Org) (*service.ChangesApplied, error)
}

// Processor implements jobs.Handler, per spec.md §4.7's Validate-job and
// Reconcile-job flows.
type Processor struct {
	Handler  reconciler
	Notifier ghclient.Notifier
	Orgs     map[string]service.Org
	Renderer feedback.Renderer
	Audit    audit.Sink
	Log      logrus.FieldLogger
}

// NewProcessor returns a Processor ready to be handed to jobs.NewEngine.
// notifier is typically the same ghclient.Gateway passed to handler, since
// Gateway embeds Notifier.
func NewProcessor(handler *service.Handler, notifier ghclient.Notifier, orgs map[string]service.Org, renderer feedback.Renderer, sink audit.Sink, log logrus.FieldLogger) *Processor {
	return &Processor{Handler: handler, Notifier: notifier, Orgs: orgs, Renderer: renderer, Audit: sink, Log: log}
}

func (p *Processor) logFor(org string) logrus.FieldLogger {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("org", org)
}

// HandleValidate implements jobs.Handler. It builds the change summary
// between the pull request's head and the organization's base ref, posts
// a comment describing it, and transitions the check-run the webhook
// handler already created to a terminal conclusion.
func (p *Processor) HandleValidate(ctx context.Context, job jobs.ValidateJob) {
	log := p.logFor(job.Org)

	org, ok := p.Orgs[job.Org]
	if !ok {
		log.Error("validate job for unconfigured organization")
		return
	}
	ec := ghclient.ExecutionContext{InstallationID: org.InstallationID, Org: org.Name}

	summary, err := p.Handler.GetChangesSummary(ctx, org, job.PRHead)

	conclusion := "success"
	var body string
	switch {
	case err != nil:
		log.WithError(err).Error("building changes summary")
		body = p.Renderer.RenderValidationFailed(err)
		conclusion = "failure"
	case summary.ValidationErrors != nil:
		body = p.Renderer.RenderValidationFailed(summary.ValidationErrors)
		conclusion = "failure"
	default:
		body = p.Renderer.RenderValidationSucceeded(summary)
	}

	if err := p.Notifier.PostComment(ctx, ec, org.RepositoryName, job.PRNumber, body); err != nil {
		log.WithError(err).Error("posting validation comment")
	}

	title := "Validation succeeded"
	if conclusion == "failure" {
		title = "Validation failed"
	}
	run := ghclient.CheckRun{Name: checkRunName, HeadSHA: job.PRHead.Ref, Status: "completed", Conclusion: conclusion, Title: title, Summary: body}
	if err := p.Notifier.UpdateCheckRun(ctx, ec, org.RepositoryName, job.CheckRunID, run); err != nil {
		log.WithError(err).Error("updating check run")
	}
}

// HandleReconcile implements jobs.Handler. It applies the organization's
// pending changes, records the outcome through the audit sink, and, when
// the job was triggered by a merged pull request, posts a comment
// summarizing what was applied.
func (p *Processor) HandleReconcile(ctx context.Context, job jobs.ReconcileJob) {
	log := p.logFor(job.Org)

	org, ok := p.Orgs[job.Org]
	if !ok {
		log.Error("reconcile job for unconfigured organization")
		return
	}
	ec := ghclient.ExecutionContext{InstallationID: org.InstallationID, Org: org.Name}

	applied, runErr := p.Handler.Reconcile(ctx, org)
	if runErr != nil {
		log.WithError(runErr).Error("reconciling organization")
	}

	input := audit.ReconciliationInput{
		PRNumber:                toInt64Ptr(job.PRNumber),
		PRCreatedBy:             job.PRCreatedBy,
		PRMergedBy:              job.PRMergedBy,
		PRMergedAt:              job.PRMergedAt,
		ChangesAppliedByService: map[string][]audit.AppliedChange{},
		ErrorsByService:         map[string]error{},
	}
	if applied != nil {
		input.ChangesAppliedByService["github"] = toAuditChanges(applied)
	}
	if runErr != nil {
		input.ErrorsByService["github"] = runErr
	}

	if _, err := p.Audit.RegisterReconciliation(ctx, input); err != nil {
		log.WithError(err).Error("registering reconciliation")
	}

	if job.PRNumber == nil {
		return
	}
	body := p.Renderer.RenderReconciliationCompleted(applied, runErr)
	if err := p.Notifier.PostComment(ctx, ec, org.RepositoryName, *job.PRNumber, body); err != nil {
		log.WithError(err).Error("posting reconciliation comment")
	}
}

func toAuditChanges(applied *service.ChangesApplied) []audit.AppliedChange {
	out := make([]audit.AppliedChange, 0, len(applied.Directory)+len(applied.Repositories))
	for _, c := range applied.Directory {
		out = append(out, toAuditChange(c))
	}
	for _, c := range applied.Repositories {
		out = append(out, toAuditChange(c))
	}
	return out
}

func toAuditChange(c service.AppliedChange) audit.AppliedChange {
	return audit.AppliedChange{Kind: c.Kind, Extra: c.Extra, Keywords: c.Keywords, Error: c.Error, AppliedAt: c.AppliedAt}
}

func toInt64Ptr(n *int) *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}
