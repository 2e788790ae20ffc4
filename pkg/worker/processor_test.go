package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clowarden/clowarden/pkg/audit"
	"github.com/clowarden/clowarden/pkg/feedback"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/service"
	"github.com/clowarden/clowarden/pkg/worker"
)

type fakeReconciler struct {
	summary    *service.ChangesSummary
	summaryErr error
	applied    *service.ChangesApplied
	applyErr   error
}

func (f *fakeReconciler) GetChangesSummary(ctx context.Context, org service.Org, head ghclient.Source) (*service.ChangesSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeReconciler) Reconcile(ctx context.Context, org service.Org) (*service.ChangesApplied, error) {
	return f.applied, f.applyErr
}

type postedComment struct {
	repo   string
	number int
	body   string
}

type checkRunUpdate struct {
	repo string
	id   int64
	run  ghclient.CheckRun
}

type fakeNotifier struct {
	comments    []postedComment
	checkRuns   []checkRunUpdate
	postErr     error
	checkRunErr error
}

func (f *fakeNotifier) PostComment(ctx context.Context, ec ghclient.ExecutionContext, repo string, number int, body string) error {
	f.comments = append(f.comments, postedComment{repo: repo, number: number, body: body})
	return f.postErr
}

func (f *fakeNotifier) CreateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, run ghclient.CheckRun) (int64, error) {
	return 1, nil
}

func (f *fakeNotifier) UpdateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, checkRunID int64, run ghclient.CheckRun) error {
	f.checkRuns = append(f.checkRuns, checkRunUpdate{repo: repo, id: checkRunID, run: run})
	return f.checkRunErr
}

type fakeSink struct {
	registered []audit.ReconciliationInput
	err        error
}

func (f *fakeSink) RegisterReconciliation(ctx context.Context, input audit.ReconciliationInput) (uuid.UUID, error) {
	f.registered = append(f.registered, input)
	return uuid.New(), f.err
}

func (f *fakeSink) SearchChanges(ctx context.Context, filter audit.SearchFilter) (*audit.SearchResult, error) {
	return &audit.SearchResult{}, nil
}

func newRenderer(t *testing.T) feedback.Renderer {
	t.Helper()
	r, err := feedback.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func testOrg() service.Org {
	return service.Org{Name: "acme", InstallationID: 1, RepositoryOwner: "acme", RepositoryName: "config", Branch: "main"}
}

func TestHandleValidatePostsSuccessCommentAndGreenCheckRun(t *testing.T) {
	recon := &fakeReconciler{summary: &service.ChangesSummary{BaseRefConfigStatus: service.BaseRefConfigValid}}
	notifier := &fakeNotifier{}
	p := &worker.Processor{
		Handler:  recon,
		Notifier: notifier,
		Orgs:     map[string]service.Org{"acme": testOrg()},
		Renderer: newRenderer(t),
		Audit:    &fakeSink{},
	}

	p.HandleValidate(context.Background(), jobs.ValidateJob{
		Org: "acme", PRNumber: 42, PRHead: ghclient.Source{Ref: "deadbeef"}, CheckRunID: 7,
	})

	if len(notifier.comments) != 1 || notifier.comments[0].number != 42 {
		t.Fatalf("expected one comment on PR 42, got %+v", notifier.comments)
	}
	if len(notifier.checkRuns) != 1 || notifier.checkRuns[0].run.Conclusion != "success" {
		t.Fatalf("expected a successful check run, got %+v", notifier.checkRuns)
	}
	if notifier.checkRuns[0].id != 7 {
		t.Fatalf("expected the pre-created check run to be updated, got id %d", notifier.checkRuns[0].id)
	}
}

func TestHandleValidatePostsFailureOnSummaryError(t *testing.T) {
	recon := &fakeReconciler{summaryErr: errors.New("boom")}
	notifier := &fakeNotifier{}
	p := &worker.Processor{
		Handler:  recon,
		Notifier: notifier,
		Orgs:     map[string]service.Org{"acme": testOrg()},
		Renderer: newRenderer(t),
		Audit:    &fakeSink{},
	}

	p.HandleValidate(context.Background(), jobs.ValidateJob{Org: "acme", PRNumber: 1, PRHead: ghclient.Source{Ref: "abc"}})

	if len(notifier.checkRuns) != 1 || notifier.checkRuns[0].run.Conclusion != "failure" {
		t.Fatalf("expected a failed check run, got %+v", notifier.checkRuns)
	}
}

func TestHandleValidateUnconfiguredOrgSkipsNotifications(t *testing.T) {
	notifier := &fakeNotifier{}
	p := &worker.Processor{
		Handler:  &fakeReconciler{},
		Notifier: notifier,
		Orgs:     map[string]service.Org{},
		Renderer: newRenderer(t),
		Audit:    &fakeSink{},
	}

	p.HandleValidate(context.Background(), jobs.ValidateJob{Org: "missing"})

	if len(notifier.comments) != 0 || len(notifier.checkRuns) != 0 {
		t.Fatalf("expected no notifications for an unconfigured org, got comments=%v checkRuns=%v", notifier.comments, notifier.checkRuns)
	}
}

func TestHandleReconcileRegistersAndCommentsWhenPRSet(t *testing.T) {
	applied := &service.ChangesApplied{
		Directory: []service.AppliedChange{{Kind: "team_added", Description: "team **eng** added"}},
	}
	recon := &fakeReconciler{applied: applied}
	notifier := &fakeNotifier{}
	sink := &fakeSink{}
	pr := 9
	p := &worker.Processor{
		Handler:  recon,
		Notifier: notifier,
		Orgs:     map[string]service.Org{"acme": testOrg()},
		Renderer: newRenderer(t),
		Audit:    sink,
	}

	p.HandleReconcile(context.Background(), jobs.ReconcileJob{Org: "acme", PRNumber: &pr, PRCreatedBy: "alice", PRMergedBy: "bob"})

	if len(sink.registered) != 1 {
		t.Fatalf("expected one registered reconciliation, got %d", len(sink.registered))
	}
	got := sink.registered[0]
	if got.PRCreatedBy != "alice" || got.PRMergedBy != "bob" || got.PRNumber == nil || *got.PRNumber != 9 {
		t.Fatalf("expected PR metadata to be carried through, got %+v", got)
	}
	if len(got.ChangesAppliedByService["github"]) != 1 {
		t.Fatalf("expected one applied change recorded under github, got %+v", got.ChangesAppliedByService)
	}
	if len(notifier.comments) != 1 || notifier.comments[0].number != 9 {
		t.Fatalf("expected a comment on PR 9, got %+v", notifier.comments)
	}
}

func TestHandleReconcileSkipsCommentWithoutPR(t *testing.T) {
	recon := &fakeReconciler{applied: &service.ChangesApplied{}}
	notifier := &fakeNotifier{}
	p := &worker.Processor{
		Handler:  recon,
		Notifier: notifier,
		Orgs:     map[string]service.Org{"acme": testOrg()},
		Renderer: newRenderer(t),
		Audit:    &fakeSink{},
	}

	p.HandleReconcile(context.Background(), jobs.ReconcileJob{Org: "acme"})

	if len(notifier.comments) != 0 {
		t.Fatalf("expected no comment for a scheduler-triggered reconcile, got %+v", notifier.comments)
	}
}

func TestHandleReconcileRecordsRunErrorAcrossService(t *testing.T) {
	recon := &fakeReconciler{applyErr: errors.New("building actual state failed")}
	sink := &fakeSink{}
	p := &worker.Processor{
		Handler:  recon,
		Notifier: &fakeNotifier{},
		Orgs:     map[string]service.Org{"acme": testOrg()},
		Renderer: newRenderer(t),
		Audit:    sink,
	}

	p.HandleReconcile(context.Background(), jobs.ReconcileJob{Org: "acme"})

	if len(sink.registered) != 1 {
		t.Fatalf("expected a reconciliation row even on run error, got %d", len(sink.registered))
	}
	if sink.registered[0].ErrorsByService["github"] == nil {
		t.Fatalf("expected the run error to be recorded under github")
	}
}
