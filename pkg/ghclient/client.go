package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v55/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/clowarden/clowarden/pkg/directory"
)

// AppConfig carries the credentials for GitHub App authentication, per
// spec.md §4.2. Each ExecutionContext.InstallationID selects which
// installation the request acts as; the transport mints and caches one
// installation token per ID the way ghinstallation.Transport does
// internally.
type AppConfig struct {
	AppID      int64
	PrivateKey []byte
	BaseURL    string // optional, for GitHub Enterprise
}

// maxRetries bounds the gateway's retry loop at ≤3 attempts for classified
// RateLimited/Transient errors, per spec.md §4.2.
const maxRetries = 3

// client is the concrete Gateway implementation backed by go-github,
// grounded on prow/github/client.go's request/retry shape but built on
// google/go-github instead of prow's hand-rolled HTTP layer, since the
// retrieval pack's only other GitHub-org tool (kuhlman-labs-GitHub-migrator)
// uses go-github + ghinstallation for exactly this kind of client.
type client struct {
	gh    *github.Client
	appID int64
	key   []byte
	base  string

	clock Clock
	log   logrus.FieldLogger

	cache *ttlCache
}

// NewAppClient builds a Gateway authenticating as a GitHub App, switching
// installation on a per-call basis via ExecutionContext.InstallationID.
func NewAppClient(cfg AppConfig, log logrus.FieldLogger) (Gateway, error) {
	tr, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.AppID, cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("build app transport: %w", err)
	}
	if cfg.BaseURL != "" {
		tr.BaseURL = cfg.BaseURL
	}

	gh := github.NewClient(&http.Client{Transport: tr})
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure enterprise urls: %w", err)
		}
	}

	return &client{
		gh:    gh,
		appID: cfg.AppID,
		key:   cfg.PrivateKey,
		base:  cfg.BaseURL,
		clock: realClock{},
		log:   log,
		cache: newTTLCache(60 * time.Second),
	}, nil
}

// NewTokenClient builds a Gateway authenticating with a static personal
// access token, for the clowarden-cli tool (spec.md §6).
func NewTokenClient(token string, log logrus.FieldLogger) Gateway {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &client{
		gh:    github.NewClient(httpClient),
		clock: realClock{},
		log:   log,
		cache: newTTLCache(60 * time.Second),
	}
}

// installationClient returns a *github.Client scoped to ec's installation.
// For a token client (appID == 0) the base client already carries the
// right credentials and is returned unchanged.
func (c *client) installationClient(ec ExecutionContext) (*github.Client, error) {
	if c.appID == 0 {
		return c.gh, nil
	}
	tr := ghinstallation.NewFromAppsTransport(c.gh.Client().Transport.(*ghinstallation.AppsTransport), ec.InstallationID)
	if c.base != "" {
		tr.BaseURL = c.base
	}
	gh := github.NewClient(&http.Client{Transport: tr})
	if c.base != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(c.base, c.base)
		if err != nil {
			return nil, fmt.Errorf("configure enterprise urls: %w", err)
		}
	}
	return gh, nil
}

// call executes op, retrying with exponential backoff when the classified
// error is RateLimited or Transient, up to maxRetries attempts, per
// spec.md §4.2/§7. Grounded on prow/github/client.go's requestRetry loop.
func (c *client) call(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = classify(op())
		if err == nil {
			return nil
		}
		if !retriable(err) {
			return err
		}
		backoff := time.Duration(1<<attempt) * time.Second
		if c.log != nil {
			c.log.WithError(err).WithField("attempt", attempt+1).Debug("retrying gateway call")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

// settle sleeps briefly after a creation call, mirroring the ~1s pause
// peribolos.main takes after add_team/add_repository so the platform's
// read-your-writes consistency catches up before the next call.
func (c *client) settle() {
	c.clock.Sleep(time.Second)
}

// --- FileGetter ---

func (c *client) GetFileContent(ctx context.Context, src Source, path string) (string, error) {
	ec := ExecutionContext{InstallationID: src.InstallationID}
	gh, err := c.installationClient(ec)
	if err != nil {
		return "", err
	}
	var content string
	err = c.call(ctx, func() error {
		fc, _, _, err := gh.Repositories.GetContents(ctx, src.Owner, src.Repo, path, &github.RepositoryContentGetOptions{Ref: src.Ref})
		if err != nil {
			return err
		}
		content, err = fc.GetContent()
		return err
	})
	return content, err
}

// --- DirectoryReader ---

func (c *client) ListTeams(ctx context.Context, ec ExecutionContext) ([]directory.Team, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []directory.Team
	opt := &github.ListOptions{PerPage: 100}
	for {
		var page []*github.Team
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Teams.ListTeams(ctx, ec.Org, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			out = append(out, directory.Team{Name: t.GetSlug(), DisplayName: t.GetName()})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) ListTeamMaintainers(ctx context.Context, ec ExecutionContext, team string) ([]string, error) {
	return c.listTeamMembers(ctx, ec, team, "maintainer")
}

func (c *client) ListTeamMembers(ctx context.Context, ec ExecutionContext, team string) ([]string, error) {
	return c.listTeamMembers(ctx, ec, team, "member")
}

func (c *client) listTeamMembers(ctx context.Context, ec ExecutionContext, team, role string) ([]string, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []string
	opt := &github.TeamListTeamMembersOptions{Role: role, ListOptions: github.ListOptions{PerPage: 100}}
	for {
		var page []*github.User
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Teams.ListTeamMembersBySlug(ctx, ec.Org, team, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			out = append(out, u.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.ListOptions.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) ListTeamInvitations(ctx context.Context, ec ExecutionContext, team string) ([]string, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []string
	opt := &github.ListOptions{PerPage: 100}
	for {
		var page []*github.Invitation
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Teams.ListPendingTeamInvitationsBySlug(ctx, ec.Org, team, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, inv := range page {
			out = append(out, inv.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) GetTeamMembership(ctx context.Context, ec ExecutionContext, team, login string) (string, bool, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return "", false, err
	}
	var membership *github.Membership
	callErr := c.call(ctx, func() error {
		var err error
		membership, _, err = gh.Teams.GetTeamMembershipBySlug(ctx, ec.Org, team, login)
		return err
	})
	if callErr != nil {
		return "", false, callErr
	}
	return membership.GetRole(), membership.GetState() == "pending", nil
}

func (c *client) ListOrgAdmins(ctx context.Context, ec ExecutionContext) ([]string, error) {
	return c.cachedLogins(ctx, "admins:"+ec.Org, func() ([]string, error) {
		return c.listOrgMembersByRole(ctx, ec, "admin")
	})
}

func (c *client) ListOrgMembers(ctx context.Context, ec ExecutionContext) ([]string, error) {
	return c.cachedLogins(ctx, "members:"+ec.Org, func() ([]string, error) {
		return c.listOrgMembersByRole(ctx, ec, "member")
	})
}

func (c *client) listOrgMembersByRole(ctx context.Context, ec ExecutionContext, role string) ([]string, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []string
	opt := &github.ListMembersOptions{Role: role, ListOptions: github.ListOptions{PerPage: 100}}
	for {
		var page []*github.User
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Organizations.ListMembers(ctx, ec.Org, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			out = append(out, u.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.ListOptions.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) GetUserLogin(ctx context.Context, ec ExecutionContext, login string) (string, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return "", err
	}
	var user *github.User
	err = c.call(ctx, func() error {
		var err error
		user, _, err = gh.Users.Get(ctx, login)
		return err
	})
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// --- RepositoryReader ---

func (c *client) ListRepositories(ctx context.Context, ec ExecutionContext) ([]PlatformRepository, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []PlatformRepository
	opt := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		var page []*github.Repository
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Repositories.ListByOrg(ctx, ec.Org, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			out = append(out, PlatformRepository{
				Name:       r.GetName(),
				Archived:   r.GetArchived(),
				Visibility: r.GetVisibility(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.ListOptions.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) ListRepositoryCollaborators(ctx context.Context, ec ExecutionContext, repo string) ([]RepoCollaborator, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	var out []RepoCollaborator
	opt := &github.ListCollaboratorsOptions{Affiliation: "direct", ListOptions: github.ListOptions{PerPage: 100}}
	for {
		var page []*github.User
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Repositories.ListCollaborators(ctx, ec.Org, repo, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			out = append(out, RepoCollaborator{
				Login: u.GetLogin(),
				Role:  highestRole(u.GetPermissions()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.ListOptions.Page = resp.NextPage
	}

	invitations, err := c.ListRepositoryInvitations(ctx, ec, repo)
	if err != nil {
		return nil, err
	}
	for _, inv := range invitations {
		out = append(out, RepoCollaborator{Login: inv.Login, Role: inv.Role, Pending: true})
	}
	return out, nil
}

// githubPermissionNames maps go-github's permission-map keys (pull, triage,
// push, maintain, admin) to CLOWarden's Role vocabulary (read, triage,
// write, maintain, admin).
var githubPermissionNames = map[string]directory.Role{
	"pull":     directory.RoleRead,
	"triage":   directory.RoleTriage,
	"push":     directory.RoleWrite,
	"maintain": directory.RoleMaintain,
	"admin":    directory.RoleAdmin,
}

// highestRole picks the most privileged true permission from go-github's
// GetPermissions map, which reports every role at-or-below the actual one.
func highestRole(perms map[string]bool) directory.Role {
	best := directory.RoleRead
	for name, granted := range perms {
		if !granted {
			continue
		}
		if r, ok := githubPermissionNames[name]; ok && r.Compare(best) > 0 {
			best = r
		}
	}
	return best
}

// toGitHubPermission converts a Role into the single-permission string
// GitHub's team/collaborator/invitation write endpoints expect.
func toGitHubPermission(r directory.Role) string {
	switch r {
	case directory.RoleRead:
		return "pull"
	case directory.RoleTriage:
		return "triage"
	case directory.RoleWrite:
		return "push"
	case directory.RoleMaintain:
		return "maintain"
	case directory.RoleAdmin:
		return "admin"
	default:
		return string(r)
	}
}

// fromGitHubPermission is the inverse of toGitHubPermission, used when
// reading a single-permission string back off the API.
func fromGitHubPermission(perm string) directory.Role {
	if r, ok := githubPermissionNames[perm]; ok {
		return r
	}
	return directory.Role(perm)
}

func (c *client) ListRepositoryTeams(ctx context.Context, ec ExecutionContext, repo string) (map[string]directory.Role, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return nil, err
	}
	out := map[string]directory.Role{}
	opt := &github.ListOptions{PerPage: 100}
	for {
		var page []*github.Team
		var resp *github.Response
		err := c.call(ctx, func() error {
			var err error
			page, resp, err = gh.Repositories.ListTeams(ctx, ec.Org, repo, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			out[t.GetSlug()] = fromGitHubPermission(t.GetPermission())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

func (c *client) ListRepositoryInvitations(ctx context.Context, ec ExecutionContext, repo string) ([]RepoInvitation, error) {
	return c.cachedInvitations(ctx, "invitations:"+ec.Org+"/"+repo, func() ([]RepoInvitation, error) {
		gh, err := c.installationClient(ec)
		if err != nil {
			return nil, err
		}
		var out []RepoInvitation
		opt := &github.ListOptions{PerPage: 100}
		for {
			var page []*github.RepositoryInvitation
			var resp *github.Response
			err := c.call(ctx, func() error {
				var err error
				page, resp, err = gh.Repositories.ListInvitations(ctx, ec.Org, repo, opt)
				return err
			})
			if err != nil {
				return nil, err
			}
			for _, inv := range page {
				out = append(out, RepoInvitation{
					ID:    inv.GetID(),
					Login: inv.GetInvitee().GetLogin(),
					Role:  fromGitHubPermission(inv.GetPermissions()),
				})
			}
			if resp.NextPage == 0 {
				break
			}
			opt.Page = resp.NextPage
		}
		return out, nil
	})
}

// --- TeamWriter ---

func (c *client) AddTeam(ctx context.Context, ec ExecutionContext, team directory.Team) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	privacy := "closed"
	err = c.call(ctx, func() error {
		_, _, err := gh.Teams.CreateTeam(ctx, ec.Org, github.NewTeam{
			Name:    team.DisplayName,
			Privacy: &privacy,
		})
		return err
	})
	if err != nil {
		return err
	}
	c.settle()
	for _, login := range team.Maintainers {
		if err := c.AddTeamMaintainer(ctx, ec, team.Name, login); err != nil {
			return err
		}
	}
	for _, login := range team.Members {
		if err := c.AddTeamMember(ctx, ec, team.Name, login); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) RemoveTeam(ctx context.Context, ec ExecutionContext, team string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Teams.DeleteTeamBySlug(ctx, ec.Org, team)
		return err
	})
}

func (c *client) AddTeamMaintainer(ctx context.Context, ec ExecutionContext, team, login string) error {
	return c.addTeamMembership(ctx, ec, team, login, "maintainer")
}

func (c *client) AddTeamMember(ctx context.Context, ec ExecutionContext, team, login string) error {
	return c.addTeamMembership(ctx, ec, team, login, "member")
}

func (c *client) addTeamMembership(ctx context.Context, ec ExecutionContext, team, login, role string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Teams.AddTeamMembershipBySlug(ctx, ec.Org, team, login, &github.TeamAddTeamMembershipOptions{Role: role})
		return err
	})
}

func (c *client) RemoveTeamMaintainer(ctx context.Context, ec ExecutionContext, team, login string) error {
	return c.removeTeamMembership(ctx, ec, team, login)
}

func (c *client) RemoveTeamMember(ctx context.Context, ec ExecutionContext, team, login string) error {
	return c.removeTeamMembership(ctx, ec, team, login)
}

func (c *client) removeTeamMembership(ctx context.Context, ec ExecutionContext, team, login string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Teams.RemoveTeamMembershipBySlug(ctx, ec.Org, team, login)
		return err
	})
}

// --- RepositoryWriter ---

func (c *client) AddRepository(ctx context.Context, ec ExecutionContext, repo NewRepository) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	private := repo.Visibility != "public"
	err = c.call(ctx, func() error {
		_, _, err := gh.Repositories.Create(ctx, ec.Org, &github.Repository{
			Name:    &repo.Name,
			Private: &private,
		})
		return err
	})
	if err != nil {
		return err
	}
	c.settle()
	for team, role := range repo.Teams {
		if err := c.AddRepositoryTeam(ctx, ec, repo.Name, team, role); err != nil {
			return err
		}
	}
	for login, role := range repo.Collaborators {
		if err := c.AddRepositoryCollaborator(ctx, ec, repo.Name, login, role); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) AddRepositoryTeam(ctx context.Context, ec ExecutionContext, repo, team string, role directory.Role) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Teams.AddTeamRepoBySlug(ctx, ec.Org, team, ec.Org, repo, &github.TeamAddTeamRepoOptions{Permission: toGitHubPermission(role)})
		return err
	})
}

func (c *client) RemoveRepositoryTeam(ctx context.Context, ec ExecutionContext, repo, team string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Teams.RemoveTeamRepoBySlug(ctx, ec.Org, team, ec.Org, repo)
		return err
	})
}

func (c *client) UpdateRepositoryTeamRole(ctx context.Context, ec ExecutionContext, repo, team string, role directory.Role) error {
	return c.AddRepositoryTeam(ctx, ec, repo, team, role)
}

func (c *client) AddRepositoryCollaborator(ctx context.Context, ec ExecutionContext, repo, login string, role directory.Role) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Repositories.AddCollaborator(ctx, ec.Org, repo, login, &github.RepositoryAddCollaboratorOptions{Permission: toGitHubPermission(role)})
		return err
	})
}

func (c *client) RemoveRepositoryCollaborator(ctx context.Context, ec ExecutionContext, repo, login string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Repositories.RemoveCollaborator(ctx, ec.Org, repo, login)
		return err
	})
}

func (c *client) UpdateRepositoryVisibility(ctx context.Context, ec ExecutionContext, repo, visibility string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Repositories.Edit(ctx, ec.Org, repo, &github.Repository{Visibility: &visibility})
		return err
	})
}

// --- InvitationManager ---

func (c *client) RemoveRepositoryInvitation(ctx context.Context, ec ExecutionContext, repo string, invitationID int64) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, err := gh.Repositories.DeleteInvitation(ctx, ec.Org, repo, invitationID)
		return err
	})
}

func (c *client) UpdateRepositoryInvitation(ctx context.Context, ec ExecutionContext, repo string, invitationID int64, role directory.Role) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Repositories.UpdateInvitation(ctx, ec.Org, repo, invitationID, toGitHubPermission(role))
		return err
	})
}

// --- Notifier ---

func (c *client) PostComment(ctx context.Context, ec ExecutionContext, repo string, number int, body string) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Issues.CreateComment(ctx, ec.Org, repo, number, &github.IssueComment{Body: &body})
		return err
	})
}

func (c *client) CreateCheckRun(ctx context.Context, ec ExecutionContext, repo string, run CheckRun) (int64, error) {
	gh, err := c.installationClient(ec)
	if err != nil {
		return 0, err
	}
	var id int64
	err = c.call(ctx, func() error {
		created, _, err := gh.Checks.CreateCheckRun(ctx, ec.Org, repo, checkRunRequest(run))
		if err != nil {
			return err
		}
		id = created.GetID()
		return nil
	})
	return id, err
}

func (c *client) UpdateCheckRun(ctx context.Context, ec ExecutionContext, repo string, checkRunID int64, run CheckRun) error {
	gh, err := c.installationClient(ec)
	if err != nil {
		return err
	}
	opts := github.UpdateCheckRunOptions{
		Name:   run.Name,
		Status: &run.Status,
		Output: &github.CheckRunOutput{
			Title:   &run.Title,
			Summary: &run.Summary,
		},
	}
	if run.Conclusion != "" {
		opts.Conclusion = &run.Conclusion
	}
	return c.call(ctx, func() error {
		_, _, err := gh.Checks.UpdateCheckRun(ctx, ec.Org, repo, checkRunID, opts)
		return err
	})
}

func checkRunRequest(run CheckRun) github.CreateCheckRunOptions {
	opts := github.CreateCheckRunOptions{
		Name:    run.Name,
		HeadSHA: run.HeadSHA,
		Status:  &run.Status,
		Output: &github.CheckRunOutput{
			Title:   &run.Title,
			Summary: &run.Summary,
		},
	}
	if run.Conclusion != "" {
		opts.Conclusion = &run.Conclusion
	}
	return opts
}
