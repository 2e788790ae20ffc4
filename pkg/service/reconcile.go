package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/state"
)

// Reconcile builds the organization's actual and desired state, diffs
// them, and applies every resulting change on the platform in the order
// diff produced it: directory changes first, then repository changes,
// per spec.md §4.6. A change's failure is recorded but does not abort
// the reconciliation — later changes are still attempted.
func (h *Handler) Reconcile(ctx context.Context, org Org) (*ChangesApplied, error) {
	ec := org.executionContext()

	actual, err := state.BuildActual(ctx, h.Gateway, ec, 0)
	if err != nil {
		return nil, fmt.Errorf("error building actual state: %w", err)
	}
	desired, err := state.BuildDesired(ctx, h.Gateway, ec, org.baseSource(), org.PermissionsPath, org.PeoplePath)
	if err != nil {
		return nil, fmt.Errorf("error building desired state: %w", err)
	}

	changes := state.Diff(actual, desired)
	result := &ChangesApplied{}

	removedTeams := make(map[string]bool)
	for _, c := range changes.Directory {
		applied := h.applyDirectoryChange(ctx, ec, c)
		result.Directory = append(result.Directory, applied)
		if c.Kind == directory.TeamRemoved && applied.Error == "" {
			removedTeams[c.TeamName] = true
		}
	}

	for _, c := range changes.Repositories {
		if c.Kind == state.RepositoryTeamRemoved && removedTeams[c.TeamName] {
			// The platform already dropped the team-repo link when the
			// team itself was deleted above.
			continue
		}
		applied := h.applyRepositoryChange(ctx, ec, c)
		result.Repositories = append(result.Repositories, applied)
	}

	return result, nil
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) applyDirectoryChange(ctx context.Context, ec ghclient.ExecutionContext, c directory.Change) AppliedChange {
	kind, extra := c.Details()
	applied := AppliedChange{Kind: kind, Description: c.Describe(), Extra: extra, Keywords: c.Keywords(), AppliedAt: h.now()}

	var err error
	switch c.Kind {
	case directory.TeamAdded:
		err = h.Gateway.AddTeam(ctx, ec, *c.Team)
	case directory.TeamRemoved:
		err = h.Gateway.RemoveTeam(ctx, ec, c.TeamName)
	case directory.TeamMaintainerAdded:
		err = h.Gateway.AddTeamMaintainer(ctx, ec, c.TeamName, c.Login)
	case directory.TeamMaintainerRemoved:
		err = h.Gateway.RemoveTeamMaintainer(ctx, ec, c.TeamName, c.Login)
	case directory.TeamMemberAdded:
		err = h.Gateway.AddTeamMember(ctx, ec, c.TeamName, c.Login)
	case directory.TeamMemberRemoved:
		err = h.Gateway.RemoveTeamMember(ctx, ec, c.TeamName, c.Login)
	}
	if err != nil {
		applied.Error = err.Error()
	}
	return applied
}

func (h *Handler) applyRepositoryChange(ctx context.Context, ec ghclient.ExecutionContext, c state.RepositoryChange) AppliedChange {
	kind, extra := c.Details()
	applied := AppliedChange{Kind: kind, Description: c.Describe(), Extra: extra, Keywords: c.Keywords(), AppliedAt: h.now()}

	var err error
	switch c.Kind {
	case state.RepositoryAdded:
		err = h.Gateway.AddRepository(ctx, ec, ghclient.NewRepository{
			Name:          c.Repository.Name,
			Visibility:    c.Repository.Visibility,
			Teams:         c.Repository.Teams,
			Collaborators: c.Repository.Collaborators,
		})
	case state.RepositoryTeamAdded:
		err = h.Gateway.AddRepositoryTeam(ctx, ec, c.RepoName, c.TeamName, c.Role)
	case state.RepositoryTeamRemoved:
		err = h.Gateway.RemoveRepositoryTeam(ctx, ec, c.RepoName, c.TeamName)
	case state.RepositoryTeamRoleUpdated:
		err = h.Gateway.UpdateRepositoryTeamRole(ctx, ec, c.RepoName, c.TeamName, c.Role)
	case state.CollaboratorRemoved:
		err = h.removeOrUninviteCollaborator(ctx, ec, c.RepoName, c.Login)
	case state.CollaboratorAdded:
		err = h.Gateway.AddRepositoryCollaborator(ctx, ec, c.RepoName, c.Login, c.Role)
	case state.CollaboratorRoleUpdated:
		err = h.updateCollaboratorOrInvitation(ctx, ec, c.RepoName, c.Login, c.Role)
	case state.VisibilityUpdated:
		err = h.Gateway.UpdateRepositoryVisibility(ctx, ec, c.RepoName, c.Visibility)
	}
	if err != nil {
		applied.Error = err.Error()
	}
	return applied
}

// pendingInvitation returns the invitation for login on repo, if GitHub
// still has it as a pending invitation rather than a collaborator.
func (h *Handler) pendingInvitation(ctx context.Context, ec ghclient.ExecutionContext, repo, login string) (ghclient.RepoInvitation, bool, error) {
	invitations, err := h.Gateway.ListRepositoryInvitations(ctx, ec, repo)
	if err != nil {
		return ghclient.RepoInvitation{}, false, err
	}
	for _, inv := range invitations {
		if inv.Login == login {
			return inv, true, nil
		}
	}
	return ghclient.RepoInvitation{}, false, nil
}

// removeOrUninviteCollaborator implements spec.md §4.6's redirection:
// a user who never accepted their invitation has no collaborator record
// to remove, only the invitation itself.
func (h *Handler) removeOrUninviteCollaborator(ctx context.Context, ec ghclient.ExecutionContext, repo, login string) error {
	inv, pending, err := h.pendingInvitation(ctx, ec, repo, login)
	if err != nil {
		return err
	}
	if pending {
		return h.Gateway.RemoveRepositoryInvitation(ctx, ec, repo, inv.ID)
	}
	return h.Gateway.RemoveRepositoryCollaborator(ctx, ec, repo, login)
}

func (h *Handler) updateCollaboratorOrInvitation(ctx context.Context, ec ghclient.ExecutionContext, repo, login string, role directory.Role) error {
	inv, pending, err := h.pendingInvitation(ctx, ec, repo, login)
	if err != nil {
		return err
	}
	if pending {
		return h.Gateway.UpdateRepositoryInvitation(ctx, ec, repo, inv.ID, role)
	}
	return h.Gateway.AddRepositoryCollaborator(ctx, ec, repo, login, role)
}
