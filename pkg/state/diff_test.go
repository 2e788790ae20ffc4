package state_test

import (
	"reflect"
	"testing"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/state"
)

func TestDiffVisibilityUpdated(t *testing.T) {
	old := &state.State{
		Directory:    directory.New(nil, nil),
		Repositories: []state.Repository{{Name: "r1", Visibility: "private"}},
	}
	new := &state.State{
		Directory:    directory.New(nil, nil),
		Repositories: []state.Repository{{Name: "r1", Visibility: "public"}},
	}

	got := state.Diff(old, new)
	want := []state.RepositoryChange{{Kind: state.VisibilityUpdated, RepoName: "r1", Visibility: "public"}}
	if !reflect.DeepEqual(got.Repositories, want) {
		t.Fatalf("got %+v, want %+v", got.Repositories, want)
	}
}

func TestDiffFixedOrderingWithinRepository(t *testing.T) {
	old := &state.State{
		Directory: directory.New(nil, nil),
		Repositories: []state.Repository{{
			Name:          "r1",
			Teams:         map[string]directory.Role{"old-team": directory.RoleWrite, "shared": directory.RoleRead},
			Collaborators: map[string]directory.Role{"old-user": directory.RoleWrite, "shared-user": directory.RoleRead},
			Visibility:    "private",
		}},
	}
	new := &state.State{
		Directory: directory.New(nil, nil),
		Repositories: []state.Repository{{
			Name:          "r1",
			Teams:         map[string]directory.Role{"new-team": directory.RoleWrite, "shared": directory.RoleMaintain},
			Collaborators: map[string]directory.Role{"new-user": directory.RoleWrite, "shared-user": directory.RoleAdmin},
			Visibility:    "public",
		}},
	}

	got := state.Diff(old, new).Repositories
	wantKinds := []state.RepositoryChangeKind{
		state.RepositoryTeamRemoved,
		state.RepositoryTeamAdded,
		state.RepositoryTeamRoleUpdated,
		state.CollaboratorRemoved,
		state.CollaboratorAdded,
		state.CollaboratorRoleUpdated,
		state.VisibilityUpdated,
	}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d changes, want %d: %+v", len(got), len(wantKinds), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Fatalf("change %d: got kind %s, want %s", i, got[i].Kind, k)
		}
	}
}

func TestDiffRepositoryAddedCarriesFullRecord(t *testing.T) {
	old := &state.State{Directory: directory.New(nil, nil)}
	repo := state.Repository{Name: "r1", Visibility: "public"}
	new := &state.State{Directory: directory.New(nil, nil), Repositories: []state.Repository{repo}}

	got := state.Diff(old, new).Repositories
	if len(got) != 1 || got[0].Kind != state.RepositoryAdded || got[0].Repository.Name != "r1" {
		t.Fatalf("got %+v", got)
	}
}

func TestDiffFiltersUserChangesFromDirectory(t *testing.T) {
	old := &state.State{Directory: directory.New(nil, []directory.User{{FullName: "Alice"}})}
	new := &state.State{Directory: directory.New(nil, nil)}

	got := state.Diff(old, new)
	if len(got.Directory) != 0 {
		t.Fatalf("expected user removal to be filtered out, got %+v", got.Directory)
	}
}

func TestDiffSelfIdentity(t *testing.T) {
	s := &state.State{
		Directory: directory.New([]directory.Team{{Name: "t1", Maintainers: []string{"u1"}}}, nil),
		Repositories: []state.Repository{{
			Name:          "r1",
			Teams:         map[string]directory.Role{"t1": directory.RoleWrite},
			Collaborators: map[string]directory.Role{"u2": directory.RoleRead},
			Visibility:    "public",
		}},
	}
	got := state.Diff(s, s)
	if len(got.Directory) != 0 || len(got.Repositories) != 0 {
		t.Fatalf("expected empty diff against self, got %+v", got)
	}
}
