package service

import (
	"context"
	"fmt"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/multierror"
	"github.com/clowarden/clowarden/pkg/state"
)

// GetChangesSummary builds the organization's desired state at headSource
// (typically a pull request's head ref) and diffs it against the
// desired state at org's configured base ref, per spec.md §4.6. A head
// build failure propagates as an error; a base build failure is reported
// as BaseRefConfigInvalid with an empty change set, since the base ref's
// problems are not the pull request's to fix.
func (h *Handler) GetChangesSummary(ctx context.Context, org Org, headSource ghclient.Source) (*ChangesSummary, error) {
	ec := org.executionContext()

	head, err := state.BuildDesired(ctx, h.Gateway, ec, headSource, org.PermissionsPath, org.PeoplePath)
	if err != nil {
		return nil, fmt.Errorf("error building desired state: %w", err)
	}

	base, err := state.BuildDesired(ctx, h.Gateway, ec, org.baseSource(), org.PermissionsPath, org.PeoplePath)
	if err != nil {
		return &ChangesSummary{BaseRefConfigStatus: BaseRefConfigInvalid}, nil
	}

	changes := state.Diff(base, head)

	return &ChangesSummary{
		BaseRefConfigStatus: BaseRefConfigValid,
		Changes:             changes,
		ValidationErrors:    h.validateUsers(ctx, ec, changes),
	}, nil
}

// validateUsers confirms that every login introduced by a TeamMemberAdded
// or CollaboratorAdded change resolves, via the platform, to itself —
// catching config typos that happen to collide with a different user's
// login casing. Violations are aggregated so every mismatch is reported.
func (h *Handler) validateUsers(ctx context.Context, ec ghclient.ExecutionContext, changes state.ChangeSet) error {
	agg := multierror.New("user validation")

	for _, c := range changes.Directory {
		if c.Kind != directory.TeamMemberAdded {
			continue
		}
		h.validateLogin(ctx, ec, c.Login, agg)
	}
	for _, c := range changes.Repositories {
		if c.Kind != state.CollaboratorAdded {
			continue
		}
		h.validateLogin(ctx, ec, c.Login, agg)
	}

	return agg.ErrorOrNil()
}

func (h *Handler) validateLogin(ctx context.Context, ec ghclient.ExecutionContext, login string, agg *multierror.Error) {
	canonical, err := h.Gateway.GetUserLogin(ctx, ec, login)
	if err != nil {
		agg.Push(fmt.Errorf("%s: error looking up user: %w", login, err))
		return
	}
	if canonical != login {
		agg.Push(fmt.Errorf("%s: configured login does not match platform login %s", login, canonical))
	}
}
