package feedback_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/feedback"
	"github.com/clowarden/clowarden/pkg/multierror"
	"github.com/clowarden/clowarden/pkg/service"
	"github.com/clowarden/clowarden/pkg/state"
)

func newRenderer(t *testing.T) feedback.Renderer {
	t.Helper()
	r, err := feedback.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderValidationFailedIncludesAggregateErrorTree(t *testing.T) {
	r := newRenderer(t)
	merr := multierror.New("configuration validation failed")
	merr.Push(errors.New("missing required field: teams"))
	merr.Push(errors.New("invalid repository name: contains spaces"))

	out := r.RenderValidationFailed(merr)

	if !strings.Contains(out, "Validation failed") {
		t.Fatalf("expected a failure heading, got:\n%s", out)
	}
	if !strings.Contains(out, "configuration validation failed") ||
		!strings.Contains(out, "missing required field: teams") ||
		!strings.Contains(out, "invalid repository name: contains spaces") {
		t.Fatalf("expected the aggregate error tree in the report, got:\n%s", out)
	}
}

func TestRenderValidationSucceededNoChanges(t *testing.T) {
	r := newRenderer(t)
	out := r.RenderValidationSucceeded(&service.ChangesSummary{BaseRefConfigStatus: service.BaseRefConfigValid})

	if !strings.Contains(out, "No changes detected") {
		t.Fatalf("expected a no-changes message, got:\n%s", out)
	}
	if strings.Contains(out, "warning") {
		t.Fatalf("did not expect a base-ref warning, got:\n%s", out)
	}
}

func TestRenderValidationSucceededListsDirectoryAndRepositoryChanges(t *testing.T) {
	r := newRenderer(t)
	summary := &service.ChangesSummary{
		BaseRefConfigStatus: service.BaseRefConfigValid,
		Changes: state.ChangeSet{
			Directory: []directory.Change{
				{Kind: directory.TeamAdded, Team: &directory.Team{Name: "engineering"}},
			},
			Repositories: []state.RepositoryChange{
				{Kind: state.RepositoryAdded, Repository: &state.Repository{Name: "new-repo"}},
			},
		},
	}

	out := r.RenderValidationSucceeded(summary)

	if !strings.Contains(out, "engineering") {
		t.Fatalf("expected the directory change to be listed, got:\n%s", out)
	}
	if !strings.Contains(out, "new-repo") {
		t.Fatalf("expected the repository change to be listed, got:\n%s", out)
	}
}

func TestRenderValidationSucceededFlagsInvalidBaseRef(t *testing.T) {
	r := newRenderer(t)
	out := r.RenderValidationSucceeded(&service.ChangesSummary{BaseRefConfigStatus: service.BaseRefConfigInvalid})

	if !strings.Contains(out, "could not be loaded") {
		t.Fatalf("expected an invalid-base-ref warning, got:\n%s", out)
	}
}

func TestRenderReconciliationCompletedNoChanges(t *testing.T) {
	r := newRenderer(t)
	out := r.RenderReconciliationCompleted(&service.ChangesApplied{}, nil)

	if !strings.Contains(out, "No changes were applied") {
		t.Fatalf("expected a no-changes message, got:\n%s", out)
	}
}

func TestRenderReconciliationCompletedMarksPerChangeOutcome(t *testing.T) {
	r := newRenderer(t)
	applied := &service.ChangesApplied{
		Directory: []service.AppliedChange{
			{Kind: "team_added", Description: "team **engineering** added", AppliedAt: time.Unix(0, 0)},
		},
		Repositories: []service.AppliedChange{
			{Kind: "repository_team_added", Description: "team given access to repository **r1**", Error: "permission denied", AppliedAt: time.Unix(0, 0)},
		},
	}

	out := r.RenderReconciliationCompleted(applied, nil)

	if !strings.Contains(out, "engineering") || !strings.Contains(out, "permission denied") {
		t.Fatalf("expected both the success and the failure to be reported, got:\n%s", out)
	}
}

func TestRenderReconciliationCompletedReportsRunError(t *testing.T) {
	r := newRenderer(t)
	out := r.RenderReconciliationCompleted(nil, errors.New("failed to build actual state"))

	if !strings.Contains(out, "failed to build actual state") {
		t.Fatalf("expected the run error in the report, got:\n%s", out)
	}
}
