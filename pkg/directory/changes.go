package directory

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ChangeKind tags the variant carried by a DirectoryChange.
type ChangeKind string

const (
	TeamAdded             ChangeKind = "team_added"
	TeamRemoved           ChangeKind = "team_removed"
	TeamMaintainerAdded   ChangeKind = "team_maintainer_added"
	TeamMaintainerRemoved ChangeKind = "team_maintainer_removed"
	TeamMemberAdded       ChangeKind = "team_member_added"
	TeamMemberRemoved     ChangeKind = "team_member_removed"
	UserAdded             ChangeKind = "user_added"
	UserRemoved           ChangeKind = "user_removed"
	UserUpdated           ChangeKind = "user_updated"
)

// Change is a single tagged-union entry in the directory change set. Only
// the fields relevant to Kind are populated; this mirrors the §9 design
// note's "single tagged variant with a switch" option.
type Change struct {
	Kind ChangeKind

	Team     *Team  // TeamAdded
	TeamName string // TeamRemoved, Team*Maintainer*/Team*Member* changes
	Login    string // Team*Maintainer*/Team*Member*/User* changes
	FullName string // User* changes (full name, not login)
}

// Details returns the (kind, extra) pair used by the audit sink.
func (c Change) Details() (string, map[string]any) {
	extra := map[string]any{}
	switch c.Kind {
	case TeamAdded:
		extra["team"] = c.Team.Name
	case TeamRemoved:
		extra["team"] = c.TeamName
	case TeamMaintainerAdded, TeamMaintainerRemoved, TeamMemberAdded, TeamMemberRemoved:
		extra["team"] = c.TeamName
		extra["user"] = c.Login
	case UserAdded, UserRemoved, UserUpdated:
		extra["user"] = c.FullName
	}
	return string(c.Kind), extra
}

// Keywords returns the search keywords the audit sink indexes this change
// under, per spec.md §4.8.
func (c Change) Keywords() []string {
	var kw []string
	if c.TeamName != "" {
		kw = append(kw, c.TeamName)
	}
	if c.Team != nil {
		kw = append(kw, c.Team.Name)
	}
	if c.Login != "" {
		kw = append(kw, c.Login)
	}
	if c.FullName != "" {
		kw = append(kw, c.FullName)
	}
	return kw
}

// Describe renders c as a short human-readable sentence, for the
// validation/reconciliation reports pkg/feedback builds.
func (c Change) Describe() string {
	switch c.Kind {
	case TeamAdded:
		return fmt.Sprintf("team **%s** added", c.Team.Name)
	case TeamRemoved:
		return fmt.Sprintf("team **%s** removed", c.TeamName)
	case TeamMaintainerAdded:
		return fmt.Sprintf("**%s** added as a maintainer of team **%s**", c.Login, c.TeamName)
	case TeamMaintainerRemoved:
		return fmt.Sprintf("**%s** removed as a maintainer of team **%s**", c.Login, c.TeamName)
	case TeamMemberAdded:
		return fmt.Sprintf("**%s** added as a member of team **%s**", c.Login, c.TeamName)
	case TeamMemberRemoved:
		return fmt.Sprintf("**%s** removed as a member of team **%s**", c.Login, c.TeamName)
	case UserAdded:
		return fmt.Sprintf("user **%s** added", c.FullName)
	case UserRemoved:
		return fmt.Sprintf("user **%s** removed", c.FullName)
	case UserUpdated:
		return fmt.Sprintf("user **%s** updated", c.FullName)
	default:
		return string(c.Kind)
	}
}

// Diff computes the deterministic, ordered set of changes turning old into
// new, per spec.md §4.4. Iteration is lexicographic by team name, then
// user name, so the result is reproducible.
func Diff(old, new *Directory) []Change {
	var changes []Change

	oldTeams := sets.New[string](old.TeamNames()...)
	newTeams := sets.New[string](new.TeamNames()...)

	for _, name := range sets.List(oldTeams.Union(newTeams)) {
		inOld, inNew := oldTeams.Has(name), newTeams.Has(name)
		switch {
		case inNew && !inOld:
			t, _ := new.GetTeam(name)
			changes = append(changes, Change{Kind: TeamAdded, Team: &t})
		case inOld && !inNew:
			changes = append(changes, Change{Kind: TeamRemoved, TeamName: name})
		default:
			oldTeam, _ := old.GetTeam(name)
			newTeam, _ := new.GetTeam(name)
			changes = append(changes, diffTeamMembership(name, oldTeam, newTeam)...)
		}
	}

	oldUsers := sets.New[string](userNames(old)...)
	newUsers := sets.New[string](userNames(new)...)

	for _, name := range sets.List(oldUsers.Union(newUsers)) {
		inOld, inNew := oldUsers.Has(name), newUsers.Has(name)
		switch {
		case inNew && !inOld:
			changes = append(changes, Change{Kind: UserAdded, FullName: name})
		case inOld && !inNew:
			changes = append(changes, Change{Kind: UserRemoved, FullName: name})
		default:
			oldUser, _ := old.GetUser(name)
			newUser, _ := new.GetUser(name)
			if !usersEqual(oldUser, newUser) {
				changes = append(changes, Change{Kind: UserUpdated, FullName: name})
			}
		}
	}

	return changes
}

// diffTeamMembership emits maintainer/member adds and removes for a team
// present on both sides. Per spec.md S2, removal is emitted before the
// corresponding addition so a promotion reads as "remove member, add
// maintainer" rather than the reverse.
func diffTeamMembership(name string, old, new Team) []Change {
	var changes []Change

	oldMaint := sets.New[string](old.Maintainers...)
	newMaint := sets.New[string](new.Maintainers...)
	oldMember := sets.New[string](old.Members...)
	newMember := sets.New[string](new.Members...)

	for _, login := range sets.List(oldMaint.Difference(newMaint)) {
		changes = append(changes, Change{Kind: TeamMaintainerRemoved, TeamName: name, Login: login})
	}
	for _, login := range sets.List(oldMember.Difference(newMember)) {
		changes = append(changes, Change{Kind: TeamMemberRemoved, TeamName: name, Login: login})
	}
	for _, login := range sets.List(newMaint.Difference(oldMaint)) {
		changes = append(changes, Change{Kind: TeamMaintainerAdded, TeamName: name, Login: login})
	}
	for _, login := range sets.List(newMember.Difference(oldMember)) {
		changes = append(changes, Change{Kind: TeamMemberAdded, TeamName: name, Login: login})
	}
	return changes
}

func usersEqual(a, b User) bool {
	if len(a.Languages) != len(b.Languages) || len(a.Projects) != len(b.Projects) || len(a.Category) != len(b.Category) {
		return false
	}
	for i := range a.Languages {
		if a.Languages[i] != b.Languages[i] {
			return false
		}
	}
	for i := range a.Projects {
		if a.Projects[i] != b.Projects[i] {
			return false
		}
	}
	for i := range a.Category {
		if a.Category[i] != b.Category[i] {
			return false
		}
	}
	return a.FullName == b.FullName &&
		a.UserName == b.UserName &&
		a.Email == b.Email &&
		a.Bio == b.Bio &&
		a.Company == b.Company &&
		a.Location == b.Location &&
		a.ImageURL == b.ImageURL &&
		a.Linkedin == b.Linkedin &&
		a.Twitter == b.Twitter &&
		a.Wechat == b.Wechat &&
		a.Website == b.Website &&
		a.Youtube == b.Youtube &&
		a.SlackID == b.SlackID
}

func userNames(d *Directory) []string {
	out := make([]string, 0)
	for _, u := range d.Users() {
		out = append(out, u.FullName)
	}
	return out
}
