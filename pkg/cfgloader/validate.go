package cfgloader

import (
	"fmt"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/multierror"
)

// validate runs pass 3 of spec.md §4.3: every rule violation is collected
// into one aggregate error instead of failing on the first.
func validate(teams []teamDoc, repos []repoDoc) error {
	agg := multierror.New("invalid configuration")

	seenTeams := make(map[string]bool, len(teams))
	for _, t := range teams {
		if t.Name == "" {
			agg.Push(fmt.Errorf("team has no name"))
			continue
		}
		if !directory.SlugRE.MatchString(t.Name) {
			agg.Push(fmt.Errorf("team %q: name is not a valid slug", t.Name))
		}
		if seenTeams[t.Name] {
			agg.Push(fmt.Errorf("team %q: duplicate team name", t.Name))
		}
		seenTeams[t.Name] = true

		if len(t.Maintainers) == 0 {
			agg.Push(fmt.Errorf("team %q: must have at least one maintainer", t.Name))
		}

		members := make(map[string]bool, len(t.Members))
		for _, m := range t.Members {
			members[m] = true
		}
		for _, m := range t.Maintainers {
			if members[m] {
				agg.Push(fmt.Errorf("team %q: user %q is listed as both maintainer and member", t.Name, m))
			}
		}
	}

	seenRepos := make(map[string]bool, len(repos))
	for _, r := range repos {
		if r.Name == "" {
			agg.Push(fmt.Errorf("repository has no name"))
			continue
		}
		if seenRepos[r.Name] {
			agg.Push(fmt.Errorf("repository %q: duplicate repository name", r.Name))
		}
		seenRepos[r.Name] = true

		for team := range r.Teams {
			if !directory.SlugRE.MatchString(team) {
				agg.Push(fmt.Errorf("repository %q: team key %q is not a valid slug", r.Name, team))
				continue
			}
			if !seenTeams[team] {
				agg.Push(fmt.Errorf("repository %q: references undefined team %q", r.Name, team))
			}
		}
	}

	return agg.ErrorOrNil()
}
