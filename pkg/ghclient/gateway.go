// Package ghclient is the platform gateway (spec.md §4.2): the capability
// set the reconciliation engine requires from GitHub, grouped into small
// interfaces the way prow/github/client.go groups OrganizationClient,
// HookClient, CommentClient, IssueClient and friends.
package ghclient

import (
	"context"
	"time"

	"github.com/clowarden/clowarden/pkg/directory"
)

// ExecutionContext carries the installation to act as and the org being
// reconciled, per spec.md §4.2.
type ExecutionContext struct {
	InstallationID int64
	Org            string
}

// Source identifies a file at a ref in a repository, possibly through a
// specific app installation.
type Source struct {
	InstallationID int64
	Owner          string
	Repo           string
	Ref            string
}

// FileGetter fetches raw file content from a repository at a ref.
type FileGetter interface {
	GetFileContent(ctx context.Context, src Source, path string) (string, error)
}

// TeamMember pairs a login with whether their membership is still pending
// (an open invitation) rather than accepted.
type TeamMember struct {
	Login   string
	Pending bool
}

// DirectoryReader lists the platform's view of teams and their rosters.
type DirectoryReader interface {
	ListTeams(ctx context.Context, ec ExecutionContext) ([]directory.Team, error)
	ListTeamMaintainers(ctx context.Context, ec ExecutionContext, team string) ([]string, error)
	ListTeamMembers(ctx context.Context, ec ExecutionContext, team string) ([]string, error)
	ListTeamInvitations(ctx context.Context, ec ExecutionContext, team string) ([]string, error)
	GetTeamMembership(ctx context.Context, ec ExecutionContext, team, login string) (role string, pending bool, err error)
	ListOrgAdmins(ctx context.Context, ec ExecutionContext) ([]string, error)
	ListOrgMembers(ctx context.Context, ec ExecutionContext) ([]string, error)
	GetUserLogin(ctx context.Context, ec ExecutionContext, login string) (string, error)
}

// RepoCollaborator is a collaborator entry with its resolved role,
// including pending invitations surfaced with the invitation's role and
// Pending=true.
type RepoCollaborator struct {
	Login   string
	Role    directory.Role
	Pending bool
}

// RepositoryReader lists the platform's view of repositories.
type RepositoryReader interface {
	ListRepositories(ctx context.Context, ec ExecutionContext) ([]PlatformRepository, error)
	ListRepositoryCollaborators(ctx context.Context, ec ExecutionContext, repo string) ([]RepoCollaborator, error)
	ListRepositoryTeams(ctx context.Context, ec ExecutionContext, repo string) (map[string]directory.Role, error)
	ListRepositoryInvitations(ctx context.Context, ec ExecutionContext, repo string) ([]RepoInvitation, error)
}

// RepoInvitation is a pending repository collaborator invitation.
type RepoInvitation struct {
	ID    int64
	Login string
	Role  directory.Role
}

// PlatformRepository is the platform's raw view of a repository, prior to
// desired/actual-state post-processing (archived/GHSA-fork filtering).
type PlatformRepository struct {
	Name       string
	Archived   bool
	Visibility string
}

// TeamWriter mutates team membership.
type TeamWriter interface {
	AddTeam(ctx context.Context, ec ExecutionContext, team directory.Team) error
	RemoveTeam(ctx context.Context, ec ExecutionContext, team string) error
	AddTeamMaintainer(ctx context.Context, ec ExecutionContext, team, login string) error
	RemoveTeamMaintainer(ctx context.Context, ec ExecutionContext, team, login string) error
	AddTeamMember(ctx context.Context, ec ExecutionContext, team, login string) error
	RemoveTeamMember(ctx context.Context, ec ExecutionContext, team, login string) error
}

// NewRepository is what AddRepository needs to seed a repo's teams and
// collaborators in the same call, per spec.md §4.2.
type NewRepository struct {
	Name          string
	Visibility    string
	Teams         map[string]directory.Role
	Collaborators map[string]directory.Role
}

// RepositoryWriter mutates repository membership and metadata.
type RepositoryWriter interface {
	AddRepository(ctx context.Context, ec ExecutionContext, repo NewRepository) error
	AddRepositoryTeam(ctx context.Context, ec ExecutionContext, repo, team string, role directory.Role) error
	RemoveRepositoryTeam(ctx context.Context, ec ExecutionContext, repo, team string) error
	UpdateRepositoryTeamRole(ctx context.Context, ec ExecutionContext, repo, team string, role directory.Role) error
	AddRepositoryCollaborator(ctx context.Context, ec ExecutionContext, repo, login string, role directory.Role) error
	RemoveRepositoryCollaborator(ctx context.Context, ec ExecutionContext, repo, login string) error
	UpdateRepositoryVisibility(ctx context.Context, ec ExecutionContext, repo, visibility string) error
}

// InvitationManager updates or removes pending repository invitations,
// used when a collaborator change targets a still-pending invite.
type InvitationManager interface {
	RemoveRepositoryInvitation(ctx context.Context, ec ExecutionContext, repo string, invitationID int64) error
	UpdateRepositoryInvitation(ctx context.Context, ec ExecutionContext, repo string, invitationID int64, role directory.Role) error
}

// CheckRun is a minimal check-run record, modeled on prow/github/client.go's
// CommitClient.CreateCheckRun.
type CheckRun struct {
	Name       string
	HeadSHA    string
	Status     string // "in_progress" | "completed"
	Conclusion string // "success" | "failure"; only set when Status == "completed"
	Title      string
	Summary    string
}

// Notifier posts human-visible feedback about a job's outcome, grounded
// on prow/github/client.go's CommentClient and CommitClient interfaces
// (CreateComment, CreateCheckRun).
type Notifier interface {
	PostComment(ctx context.Context, ec ExecutionContext, repo string, number int, body string) error
	CreateCheckRun(ctx context.Context, ec ExecutionContext, repo string, run CheckRun) (int64, error)
	UpdateCheckRun(ctx context.Context, ec ExecutionContext, repo string, checkRunID int64, run CheckRun) error
}

// Gateway is the full capability set the reconciliation engine requires.
type Gateway interface {
	FileGetter
	DirectoryReader
	RepositoryReader
	TeamWriter
	RepositoryWriter
	InvitationManager
	Notifier
}

// Clock is the time seam used for the post-create settle delay, grounded
// on the timeClient/standardTime seam in prow/github/client.go.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
