package state

import (
	"fmt"

	"github.com/clowarden/clowarden/pkg/directory"
)

// RepositoryChangeKind tags the variant carried by a RepositoryChange.
type RepositoryChangeKind string

const (
	RepositoryAdded         RepositoryChangeKind = "repository_added"
	RepositoryTeamAdded     RepositoryChangeKind = "repository_team_added"
	RepositoryTeamRemoved   RepositoryChangeKind = "repository_team_removed"
	RepositoryTeamRoleUpdated RepositoryChangeKind = "repository_team_role_updated"
	CollaboratorAdded       RepositoryChangeKind = "collaborator_added"
	CollaboratorRemoved     RepositoryChangeKind = "collaborator_removed"
	CollaboratorRoleUpdated RepositoryChangeKind = "collaborator_role_updated"
	VisibilityUpdated       RepositoryChangeKind = "visibility_updated"
)

// RepositoryChange is a single tagged-union entry in the repository
// change set. Repository deletion is intentionally not a variant here,
// per spec.md §3: deletions require out-of-band human action.
type RepositoryChange struct {
	Kind RepositoryChangeKind

	Repository *Repository // RepositoryAdded
	RepoName   string      // all other kinds
	TeamName   string      // *Team* kinds
	Login      string      // Collaborator* kinds
	Role       directory.Role
	Visibility string // VisibilityUpdated
}

// Details returns the (kind, extra) pair used by the audit sink.
func (c RepositoryChange) Details() (string, map[string]any) {
	extra := map[string]any{}
	switch c.Kind {
	case RepositoryAdded:
		extra["repository"] = c.Repository.Name
	case RepositoryTeamAdded, RepositoryTeamRemoved, RepositoryTeamRoleUpdated:
		extra["repository"] = c.RepoName
		extra["team"] = c.TeamName
		if c.Kind != RepositoryTeamRemoved {
			extra["role"] = string(c.Role)
		}
	case CollaboratorAdded, CollaboratorRemoved, CollaboratorRoleUpdated:
		extra["repository"] = c.RepoName
		extra["user"] = c.Login
		if c.Kind != CollaboratorRemoved {
			extra["role"] = string(c.Role)
		}
	case VisibilityUpdated:
		extra["repository"] = c.RepoName
		extra["visibility"] = c.Visibility
	}
	return string(c.Kind), extra
}

// Keywords returns the search keywords the audit sink indexes this change
// under, per spec.md §4.8.
func (c RepositoryChange) Keywords() []string {
	var kw []string
	if c.Repository != nil {
		kw = append(kw, c.Repository.Name)
	}
	if c.RepoName != "" {
		kw = append(kw, c.RepoName)
	}
	if c.TeamName != "" {
		kw = append(kw, c.TeamName)
	}
	if c.Login != "" {
		kw = append(kw, c.Login)
	}
	return kw
}

// Describe renders c as a short human-readable sentence, for the
// validation/reconciliation reports pkg/feedback builds.
func (c RepositoryChange) Describe() string {
	repo := c.RepoName
	if c.Repository != nil {
		repo = c.Repository.Name
	}
	switch c.Kind {
	case RepositoryAdded:
		return fmt.Sprintf("repository **%s** added", repo)
	case RepositoryTeamAdded:
		return fmt.Sprintf("team **%s** given **%s** access to repository **%s**", c.TeamName, c.Role, repo)
	case RepositoryTeamRemoved:
		return fmt.Sprintf("team **%s** removed from repository **%s**", c.TeamName, repo)
	case RepositoryTeamRoleUpdated:
		return fmt.Sprintf("team **%s**'s access to repository **%s** updated to **%s**", c.TeamName, repo, c.Role)
	case CollaboratorAdded:
		return fmt.Sprintf("**%s** given **%s** access to repository **%s**", c.Login, c.Role, repo)
	case CollaboratorRemoved:
		return fmt.Sprintf("**%s** removed from repository **%s**", c.Login, repo)
	case CollaboratorRoleUpdated:
		return fmt.Sprintf("**%s**'s access to repository **%s** updated to **%s**", c.Login, repo, c.Role)
	case VisibilityUpdated:
		return fmt.Sprintf("repository **%s** visibility updated to **%s**", repo, c.Visibility)
	default:
		return string(c.Kind)
	}
}

// ChangeSet is the typed diff between two State instances, per spec.md §3.
type ChangeSet struct {
	Directory    []directory.Change
	Repositories []RepositoryChange
}
