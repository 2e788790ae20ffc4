package state_test

import (
	"context"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
)

// fakeGateway is an in-memory ghclient.Gateway used to exercise
// pkg/state's builders and validator without a real platform. Only the
// read operations are test-relevant; writers are no-ops recording a call
// trace for the tests that care about ordering.
type fakeGateway struct {
	teams         []directory.Team
	teamMaintainers map[string][]string
	teamMembers     map[string][]string
	teamInvitations map[string][]string
	teamMembership  map[string]membership

	orgAdmins  []string
	orgMembers []string

	repos               []ghclient.PlatformRepository
	repoCollaborators    map[string][]ghclient.RepoCollaborator
	repoTeams            map[string]map[string]directory.Role
	repoInvitations      map[string][]ghclient.RepoInvitation

	files map[string]string

	trace []string
}

type membership struct {
	role    string
	pending bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		teamMaintainers: map[string][]string{},
		teamMembers:     map[string][]string{},
		teamInvitations: map[string][]string{},
		teamMembership:  map[string]membership{},
		repoCollaborators: map[string][]ghclient.RepoCollaborator{},
		repoTeams:         map[string]map[string]directory.Role{},
		repoInvitations:   map[string][]ghclient.RepoInvitation{},
	}
}

func (f *fakeGateway) GetFileContent(ctx context.Context, src ghclient.Source, path string) (string, error) {
	if content, ok := f.files[path]; ok {
		return content, nil
	}
	return "", ghclient.ErrNotFound
}

func (f *fakeGateway) ListTeams(ctx context.Context, ec ghclient.ExecutionContext) ([]directory.Team, error) {
	return f.teams, nil
}

func (f *fakeGateway) ListTeamMaintainers(ctx context.Context, ec ghclient.ExecutionContext, team string) ([]string, error) {
	return f.teamMaintainers[team], nil
}

func (f *fakeGateway) ListTeamMembers(ctx context.Context, ec ghclient.ExecutionContext, team string) ([]string, error) {
	return f.teamMembers[team], nil
}

func (f *fakeGateway) ListTeamInvitations(ctx context.Context, ec ghclient.ExecutionContext, team string) ([]string, error) {
	return f.teamInvitations[team], nil
}

func (f *fakeGateway) GetTeamMembership(ctx context.Context, ec ghclient.ExecutionContext, team, login string) (string, bool, error) {
	m := f.teamMembership[team+"/"+login]
	return m.role, m.pending, nil
}

func (f *fakeGateway) ListOrgAdmins(ctx context.Context, ec ghclient.ExecutionContext) ([]string, error) {
	return f.orgAdmins, nil
}

func (f *fakeGateway) ListOrgMembers(ctx context.Context, ec ghclient.ExecutionContext) ([]string, error) {
	return f.orgMembers, nil
}

func (f *fakeGateway) GetUserLogin(ctx context.Context, ec ghclient.ExecutionContext, login string) (string, error) {
	return login, nil
}

func (f *fakeGateway) ListRepositories(ctx context.Context, ec ghclient.ExecutionContext) ([]ghclient.PlatformRepository, error) {
	return f.repos, nil
}

func (f *fakeGateway) ListRepositoryCollaborators(ctx context.Context, ec ghclient.ExecutionContext, repo string) ([]ghclient.RepoCollaborator, error) {
	return f.repoCollaborators[repo], nil
}

func (f *fakeGateway) ListRepositoryTeams(ctx context.Context, ec ghclient.ExecutionContext, repo string) (map[string]directory.Role, error) {
	return f.repoTeams[repo], nil
}

func (f *fakeGateway) ListRepositoryInvitations(ctx context.Context, ec ghclient.ExecutionContext, repo string) ([]ghclient.RepoInvitation, error) {
	return f.repoInvitations[repo], nil
}

func (f *fakeGateway) AddTeam(ctx context.Context, ec ghclient.ExecutionContext, team directory.Team) error {
	f.trace = append(f.trace, "add_team:"+team.Name)
	return nil
}
func (f *fakeGateway) RemoveTeam(ctx context.Context, ec ghclient.ExecutionContext, team string) error {
	f.trace = append(f.trace, "remove_team:"+team)
	return nil
}
func (f *fakeGateway) AddTeamMaintainer(ctx context.Context, ec ghclient.ExecutionContext, team, login string) error {
	f.trace = append(f.trace, "add_team_maintainer:"+team+"/"+login)
	return nil
}
func (f *fakeGateway) RemoveTeamMaintainer(ctx context.Context, ec ghclient.ExecutionContext, team, login string) error {
	f.trace = append(f.trace, "remove_team_maintainer:"+team+"/"+login)
	return nil
}
func (f *fakeGateway) AddTeamMember(ctx context.Context, ec ghclient.ExecutionContext, team, login string) error {
	f.trace = append(f.trace, "add_team_member:"+team+"/"+login)
	return nil
}
func (f *fakeGateway) RemoveTeamMember(ctx context.Context, ec ghclient.ExecutionContext, team, login string) error {
	f.trace = append(f.trace, "remove_team_member:"+team+"/"+login)
	return nil
}
func (f *fakeGateway) AddRepository(ctx context.Context, ec ghclient.ExecutionContext, repo ghclient.NewRepository) error {
	f.trace = append(f.trace, "add_repository:"+repo.Name)
	return nil
}
func (f *fakeGateway) AddRepositoryTeam(ctx context.Context, ec ghclient.ExecutionContext, repo, team string, role directory.Role) error {
	f.trace = append(f.trace, "add_repository_team:"+repo+"/"+team)
	return nil
}
func (f *fakeGateway) RemoveRepositoryTeam(ctx context.Context, ec ghclient.ExecutionContext, repo, team string) error {
	f.trace = append(f.trace, "remove_repository_team:"+repo+"/"+team)
	return nil
}
func (f *fakeGateway) UpdateRepositoryTeamRole(ctx context.Context, ec ghclient.ExecutionContext, repo, team string, role directory.Role) error {
	f.trace = append(f.trace, "update_repository_team_role:"+repo+"/"+team)
	return nil
}
func (f *fakeGateway) AddRepositoryCollaborator(ctx context.Context, ec ghclient.ExecutionContext, repo, login string, role directory.Role) error {
	f.trace = append(f.trace, "add_repository_collaborator:"+repo+"/"+login)
	return nil
}
func (f *fakeGateway) RemoveRepositoryCollaborator(ctx context.Context, ec ghclient.ExecutionContext, repo, login string) error {
	f.trace = append(f.trace, "remove_repository_collaborator:"+repo+"/"+login)
	return nil
}
func (f *fakeGateway) UpdateRepositoryVisibility(ctx context.Context, ec ghclient.ExecutionContext, repo, visibility string) error {
	f.trace = append(f.trace, "update_repository_visibility:"+repo)
	return nil
}
func (f *fakeGateway) RemoveRepositoryInvitation(ctx context.Context, ec ghclient.ExecutionContext, repo string, invitationID int64) error {
	f.trace = append(f.trace, "remove_repository_invitation")
	return nil
}
func (f *fakeGateway) UpdateRepositoryInvitation(ctx context.Context, ec ghclient.ExecutionContext, repo string, invitationID int64, role directory.Role) error {
	f.trace = append(f.trace, "update_repository_invitation")
	return nil
}

func (f *fakeGateway) PostComment(ctx context.Context, ec ghclient.ExecutionContext, repo string, number int, body string) error {
	f.trace = append(f.trace, "post_comment")
	return nil
}
func (f *fakeGateway) CreateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, run ghclient.CheckRun) (int64, error) {
	f.trace = append(f.trace, "create_check_run")
	return 1, nil
}
func (f *fakeGateway) UpdateCheckRun(ctx context.Context, ec ghclient.ExecutionContext, repo string, checkRunID int64, run ghclient.CheckRun) error {
	f.trace = append(f.trace, "update_check_run")
	return nil
}

var _ ghclient.Gateway = (*fakeGateway)(nil)
