package state

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/clowarden/clowarden/pkg/cfgloader"
	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
)

// ghsaTempForkRE matches temporary private forks GitHub creates for
// security advisories, per spec.md §3. These are excluded from actual
// state so no mutation is ever attempted against them.
var ghsaTempForkRE = regexp.MustCompile(`^.*-ghsa(-[23456789cfghjmpqrvwx]{4}){3}$`)

// DefaultOuterConcurrency is the default bound on outer fan-out (one
// entity's full detail fetch at a time) during a state build, per
// spec.md §4.5/§5.
const DefaultOuterConcurrency = 1

// BuildDesired loads the permissions/people documents at cfgSrc through
// gw, applies org-admin folding and repository defaulting, and validates
// the result, per spec.md §4.5.
func BuildDesired(ctx context.Context, gw ghclient.Gateway, ec ghclient.ExecutionContext, cfgSrc ghclient.Source, permissionsPath, peoplePath string, opts ...cfgloader.Option) (*State, error) {
	var orgAdmins []string
	var platformRepos []ghclient.PlatformRepository

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orgAdmins, err = gw.ListOrgAdmins(gctx, ec)
		return err
	})
	g.Go(func() error {
		var err error
		platformRepos, err = gw.ListRepositories(gctx, ec)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error getting organization info: %w", err)
	}

	dir, repoConfigs, err := cfgloader.Load(ctx, gw, cfgSrc, permissionsPath, peoplePath, opts...)
	if err != nil {
		return nil, err
	}

	archived := make(map[string]bool, len(platformRepos))
	for _, r := range platformRepos {
		archived[r.Name] = r.Archived
	}

	dir = foldOrgAdmins(dir, orgAdmins)

	repos := make([]Repository, 0, len(repoConfigs))
	for _, rc := range repoConfigs {
		if archived[rc.Name] {
			continue
		}
		r := Repository{
			Name:       rc.Name,
			Teams:      rc.Teams,
			Visibility: rc.Visibility,
		}
		if r.Visibility == "" {
			r.Visibility = DefaultVisibility
		}
		if len(rc.Collaborators) > 0 {
			r.Collaborators = make(map[string]directory.Role, len(rc.Collaborators))
			for login, role := range rc.Collaborators {
				if containsLogin(orgAdmins, login) {
					continue
				}
				r.Collaborators[login] = role
			}
		}
		repos = append(repos, r)
	}

	desired := &State{Directory: dir, Repositories: repos}
	if err := Validate(ctx, gw, ec, desired); err != nil {
		return nil, err
	}
	return desired, nil
}

// foldOrgAdmins implements org-admin folding, per spec.md §3: any team
// member who is also an org admin is moved from members to maintainers.
func foldOrgAdmins(dir *directory.Directory, orgAdmins []string) *directory.Directory {
	teams := dir.Teams()
	folded := make([]directory.Team, 0, len(teams))
	for _, t := range teams {
		nt := t.Clone()
		var remainingMembers []string
		for _, login := range nt.Members {
			if containsLogin(orgAdmins, login) {
				nt.Maintainers = append(nt.Maintainers, login)
			} else {
				remainingMembers = append(remainingMembers, login)
			}
		}
		nt.Members = remainingMembers
		nt.SortAndDedupe()
		folded = append(folded, nt)
	}
	return directory.New(folded, dir.Users())
}

func containsLogin(logins []string, login string) bool {
	for _, l := range logins {
		if l == login {
			return true
		}
	}
	return false
}

// BuildActual builds state from the platform's current state, per
// spec.md §4.5. Outer fan-out (one team or repository's detail fetch at
// a time) is bounded by concurrency; inner per-entity detail fetches run
// unbounded via errgroup. A single failed fetch fails the whole build.
func BuildActual(ctx context.Context, gw ghclient.Gateway, ec ghclient.ExecutionContext, concurrency int) (*State, error) {
	if concurrency <= 0 {
		concurrency = DefaultOuterConcurrency
	}

	platformTeams, err := gw.ListTeams(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("error getting team info: %w", err)
	}

	teams := make([]directory.Team, len(platformTeams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, t := range platformTeams {
		i, t := i, t
		g.Go(func() error {
			built, err := buildActualTeam(gctx, gw, ec, t)
			if err != nil {
				return fmt.Errorf("error getting team info: %w", err)
			}
			teams[i] = built
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orgAdmins, err := gw.ListOrgAdmins(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("error getting organization info: %w", err)
	}

	platformRepos, err := gw.ListRepositories(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("error getting repository info: %w", err)
	}

	var candidates []ghclient.PlatformRepository
	for _, r := range platformRepos {
		if r.Archived || ghsaTempForkRE.MatchString(r.Name) {
			continue
		}
		candidates = append(candidates, r)
	}

	repos := make([]Repository, len(candidates))
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.SetLimit(concurrency)
	for i, r := range candidates {
		i, r := i, r
		g2.Go(func() error {
			built, err := buildActualRepository(gctx2, gw, ec, r, orgAdmins)
			if err != nil {
				return fmt.Errorf("error getting repository info: %w", err)
			}
			repos[i] = built
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	return &State{Directory: directory.New(teams, nil), Repositories: repos}, nil
}

func buildActualTeam(ctx context.Context, gw ghclient.Gateway, ec ghclient.ExecutionContext, t directory.Team) (directory.Team, error) {
	var maintainers, members []string
	var invitations []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maintainers, err = gw.ListTeamMaintainers(gctx, ec, t.Name)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = gw.ListTeamMembers(gctx, ec, t.Name)
		return err
	})
	g.Go(func() error {
		var err error
		invitations, err = gw.ListTeamInvitations(gctx, ec, t.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return directory.Team{}, err
	}

	for _, login := range invitations {
		role, pending, err := gw.GetTeamMembership(ctx, ec, t.Name, login)
		if err != nil {
			return directory.Team{}, err
		}
		if !pending {
			continue
		}
		switch role {
		case "maintainer":
			maintainers = append(maintainers, login)
		case "member":
			members = append(members, login)
		}
	}

	out := directory.Team{Name: t.Name, DisplayName: t.DisplayName, Maintainers: maintainers, Members: members}
	out.SortAndDedupe()
	return out, nil
}

func buildActualRepository(ctx context.Context, gw ghclient.Gateway, ec ghclient.ExecutionContext, r ghclient.PlatformRepository, orgAdmins []string) (Repository, error) {
	var collaborators []ghclient.RepoCollaborator
	var teams map[string]directory.Role
	var invitations []ghclient.RepoInvitation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		collaborators, err = gw.ListRepositoryCollaborators(gctx, ec, r.Name)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = gw.ListRepositoryTeams(gctx, ec, r.Name)
		return err
	})
	g.Go(func() error {
		var err error
		invitations, err = gw.ListRepositoryInvitations(gctx, ec, r.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return Repository{}, err
	}

	collabMap := make(map[string]directory.Role, len(collaborators)+len(invitations))
	for _, c := range collaborators {
		if containsLogin(orgAdmins, c.Login) {
			continue
		}
		collabMap[c.Login] = c.Role
	}
	for _, inv := range invitations {
		if containsLogin(orgAdmins, inv.Login) {
			continue
		}
		collabMap[inv.Login] = inv.Role
	}

	out := Repository{
		Name:       r.Name,
		Teams:      teams,
		Visibility: r.Visibility,
	}
	if out.Visibility == "" {
		out.Visibility = DefaultVisibility
	}
	if len(collabMap) > 0 {
		out.Collaborators = collabMap
	}
	return out, nil
}
