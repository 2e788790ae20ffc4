package state

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/clowarden/clowarden/pkg/directory"
)

// Diff computes the ChangeSet turning old into new, per spec.md §4.5.
// Directory changes filter out UserAdded/Removed/Updated, which are
// informational only at the service-state level. Repository changes
// follow the fixed per-repository ordering: teams removed, teams added,
// team roles updated, collaborators removed, collaborators added,
// collaborator roles updated, visibility updated.
func Diff(old, new *State) ChangeSet {
	var dirChanges []directory.Change
	for _, c := range directory.Diff(old.Directory, new.Directory) {
		switch c.Kind {
		case directory.UserAdded, directory.UserRemoved, directory.UserUpdated:
			continue
		}
		dirChanges = append(dirChanges, c)
	}

	return ChangeSet{
		Directory:    dirChanges,
		Repositories: diffRepositories(old.Repositories, new.Repositories),
	}
}

func diffRepositories(old, new []Repository) []RepositoryChange {
	var changes []RepositoryChange

	oldByName := make(map[string]Repository, len(old))
	for _, r := range old {
		oldByName[r.Name] = r
	}
	newByName := make(map[string]Repository, len(new))
	for _, r := range new {
		newByName[r.Name] = r
	}

	oldNames := sets.New[string]()
	for name := range oldByName {
		oldNames.Insert(name)
	}
	newNames := sets.New[string]()
	for name := range newByName {
		newNames.Insert(name)
	}

	for _, name := range sets.List(newNames.Difference(oldNames)) {
		r := newByName[name]
		changes = append(changes, RepositoryChange{Kind: RepositoryAdded, Repository: &r})
	}

	for _, name := range sets.List(oldNames.Intersection(newNames)) {
		changes = append(changes, diffRepository(oldByName[name], newByName[name])...)
	}

	return changes
}

func diffRepository(old, new Repository) []RepositoryChange {
	var changes []RepositoryChange
	repo := new.Name

	oldTeams := sets.New[string]()
	for t := range old.Teams {
		oldTeams.Insert(t)
	}
	newTeams := sets.New[string]()
	for t := range new.Teams {
		newTeams.Insert(t)
	}

	for _, t := range sets.List(oldTeams.Difference(newTeams)) {
		changes = append(changes, RepositoryChange{Kind: RepositoryTeamRemoved, RepoName: repo, TeamName: t})
	}
	for _, t := range sets.List(newTeams.Difference(oldTeams)) {
		changes = append(changes, RepositoryChange{Kind: RepositoryTeamAdded, RepoName: repo, TeamName: t, Role: new.Teams[t]})
	}
	for _, t := range sets.List(oldTeams.Intersection(newTeams)) {
		if old.Teams[t] != new.Teams[t] {
			changes = append(changes, RepositoryChange{Kind: RepositoryTeamRoleUpdated, RepoName: repo, TeamName: t, Role: new.Teams[t]})
		}
	}

	oldCollabs := sets.New[string]()
	for u := range old.Collaborators {
		oldCollabs.Insert(u)
	}
	newCollabs := sets.New[string]()
	for u := range new.Collaborators {
		newCollabs.Insert(u)
	}

	for _, u := range sets.List(oldCollabs.Difference(newCollabs)) {
		changes = append(changes, RepositoryChange{Kind: CollaboratorRemoved, RepoName: repo, Login: u})
	}
	for _, u := range sets.List(newCollabs.Difference(oldCollabs)) {
		changes = append(changes, RepositoryChange{Kind: CollaboratorAdded, RepoName: repo, Login: u, Role: new.Collaborators[u]})
	}
	for _, u := range sets.List(oldCollabs.Intersection(newCollabs)) {
		if old.Collaborators[u] != new.Collaborators[u] {
			changes = append(changes, RepositoryChange{Kind: CollaboratorRoleUpdated, RepoName: repo, Login: u, Role: new.Collaborators[u]})
		}
	}

	oldVisibility := old.Visibility
	if oldVisibility == "" {
		oldVisibility = DefaultVisibility
	}
	newVisibility := new.Visibility
	if newVisibility == "" {
		newVisibility = DefaultVisibility
	}
	if oldVisibility != newVisibility {
		changes = append(changes, RepositoryChange{Kind: VisibilityUpdated, RepoName: repo, Visibility: newVisibility})
	}

	return changes
}
