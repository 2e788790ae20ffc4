package state

import (
	"context"
	"fmt"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/multierror"
)

// Validate checks desired-state-only rules, per spec.md §4.5: every team
// maintainer must be an organization member; every team referenced by a
// repository must exist; no explicit collaborator may hold a role lower
// than one they already inherit from a team. Violations are aggregated
// so the caller sees every problem in one report.
func Validate(ctx context.Context, gw ghclient.DirectoryReader, ec ghclient.ExecutionContext, s *State) error {
	agg := multierror.New("invalid configuration")

	orgMembers, err := gw.ListOrgMembers(ctx, ec)
	if err != nil {
		return fmt.Errorf("error getting organization info: %w", err)
	}
	members := make(map[string]bool, len(orgMembers))
	for _, m := range orgMembers {
		members[m] = true
	}

	for _, t := range s.Directory.Teams() {
		for _, maintainer := range t.Maintainers {
			if !members[maintainer] {
				agg.Push(fmt.Errorf("team[%s]: %s must be an organization member to be a maintainer", t.Name, maintainer))
			}
		}
	}

	for _, r := range s.Repositories {
		id := r.Name
		for teamName := range r.Teams {
			if _, ok := s.Directory.GetTeam(teamName); !ok {
				agg.Push(fmt.Errorf("repo[%s]: team %s does not exist in directory", id, teamName))
			}
		}

		for login, role := range r.Collaborators {
			teamName, highest, ok := highestTeamRole(s.Directory, r, login)
			if ok && highest.Compare(role) > 0 {
				agg.Push(fmt.Errorf("repo[%s]: collaborator %s already has %s access from team %s", id, login, highest, teamName))
			}
		}
	}

	return agg.ErrorOrNil()
}

// highestTeamRole returns the most privileged role r's teams grant login
// through team membership, per spec.md §4.5/§8 property 6.
func highestTeamRole(dir *directory.Directory, r Repository, login string) (string, directory.Role, bool) {
	var bestTeam string
	var best directory.Role
	found := false
	for teamName, role := range r.Teams {
		team, ok := dir.GetTeam(teamName)
		if !ok {
			continue
		}
		if !team.HasMaintainer(login) && !team.HasMember(login) {
			continue
		}
		if !found || role.Compare(best) > 0 {
			best = role
			bestTeam = teamName
			found = true
		}
	}
	return bestTeam, best, found
}
