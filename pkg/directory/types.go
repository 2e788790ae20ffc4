// Package directory implements CLOWarden's team/user model: construction
// from configuration or from the platform, validation, and deterministic
// diffing into a typed change set.
package directory

import (
	"regexp"
	"sort"
)

// SlugRE matches a valid, lowercase kebab team name.
var SlugRE = regexp.MustCompile(`^[a-z0-9-]+$`)

// Team is a named group of maintainers and members.
type Team struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name,omitempty"`
	Maintainers []string          `json:"maintainers,omitempty"`
	Members     []string          `json:"members,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Clone returns a deep copy of t.
func (t Team) Clone() Team {
	out := t
	out.Maintainers = append([]string(nil), t.Maintainers...)
	out.Members = append([]string(nil), t.Members...)
	if t.Annotations != nil {
		out.Annotations = make(map[string]string, len(t.Annotations))
		for k, v := range t.Annotations {
			out.Annotations[k] = v
		}
	}
	return out
}

// HasMaintainer reports whether login is listed as a maintainer.
func (t Team) HasMaintainer(login string) bool {
	return contains(t.Maintainers, login)
}

// HasMember reports whether login is listed as a member.
func (t Team) HasMember(login string) bool {
	return contains(t.Members, login)
}

// Roster returns maintainers and members combined, deduplicated.
func (t Team) Roster() []string {
	seen := make(map[string]bool, len(t.Maintainers)+len(t.Members))
	var out []string
	for _, l := range append(append([]string{}, t.Maintainers...), t.Members...) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// SortAndDedupe sorts Maintainers and Members and removes adjacent
// duplicates in place, matching the second config-loader pass of spec.md §4.3.
func (t *Team) SortAndDedupe() {
	t.Maintainers = sortDedupe(t.Maintainers)
	t.Members = sortDedupe(t.Members)
}

func sortDedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	sorted := append([]string(nil), in...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// User is a profile record keyed by FullName.
type User struct {
	FullName string `json:"full_name"`
	UserName string `json:"user_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	ImageURL string `json:"image_url,omitempty"`

	Linkedin string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Wechat   string `json:"wechat,omitempty"`
	Website  string `json:"website,omitempty"`
	Youtube  string `json:"youtube,omitempty"`

	// SlackID, Projects and Category are carried on the people record per
	// original_source directory/legacy.rs, which the distilled spec's
	// §6 people-file prose omitted even though its shape implies them.
	SlackID  string   `json:"slack_id,omitempty"`
	Projects []string `json:"projects,omitempty"`
	Category []string `json:"category,omitempty"`

	Languages []string `json:"languages,omitempty"`
}

// Directory is an immutable, validated set of teams and users.
type Directory struct {
	teams map[string]Team
	users map[string]User
}

// New builds a Directory from teams and users. Names/full names must
// already be unique and valid; New does not check them, and a later entry
// with the same name replaces an earlier one.
func New(teams []Team, users []User) *Directory {
	d := &Directory{
		teams: make(map[string]Team, len(teams)),
		users: make(map[string]User, len(users)),
	}
	for _, t := range teams {
		d.teams[t.Name] = t
	}
	for _, u := range users {
		d.users[u.FullName] = u
	}
	return d
}

// Teams returns all teams, unordered.
func (d *Directory) Teams() []Team {
	out := make([]Team, 0, len(d.teams))
	for _, t := range d.teams {
		out = append(out, t)
	}
	return out
}

// Users returns all users, unordered.
func (d *Directory) Users() []User {
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out
}

// GetTeam looks a team up by name in the directory's name-keyed map.
func (d *Directory) GetTeam(name string) (Team, bool) {
	t, ok := d.teams[name]
	return t, ok
}

// GetUser looks a user up by full name in the directory's map, like GetTeam.
func (d *Directory) GetUser(fullName string) (User, bool) {
	u, ok := d.users[fullName]
	return u, ok
}

// TeamNames returns the sorted list of team names in the directory.
func (d *Directory) TeamNames() []string {
	out := make([]string, 0, len(d.teams))
	for n := range d.teams {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
