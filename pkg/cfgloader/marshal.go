package cfgloader

import (
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/clowarden/clowarden/pkg/directory"
)

// Marshal renders dir and repos back into the permissions-file YAML shape
// Load parses, for the `generate` CLI command (spec.md §6): dumping an
// organization's actual state into a config-repository-ready document.
func Marshal(dir *directory.Directory, repos []RepoConfig) ([]byte, error) {
	teams := dir.Teams()
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	doc := permissionsDoc{Teams: make([]teamDoc, 0, len(teams)), Repositories: make([]repoDoc, 0, len(repos))}
	for _, t := range teams {
		doc.Teams = append(doc.Teams, teamDoc{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Maintainers: t.Maintainers,
			Members:     t.Members,
		})
	}

	sorted := append([]RepoConfig(nil), repos...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, r := range sorted {
		rd := repoDoc{Name: r.Name, Visibility: r.Visibility}
		if len(r.Teams) > 0 {
			rd.Teams = make(map[string]string, len(r.Teams))
			for name, role := range r.Teams {
				rd.Teams[name] = string(role)
			}
		}
		if len(r.Collaborators) > 0 {
			rd.Collaborators = make(map[string]string, len(r.Collaborators))
			for login, role := range r.Collaborators {
				rd.Collaborators[login] = string(role)
			}
		}
		doc.Repositories = append(doc.Repositories, rd)
	}

	return yaml.Marshal(doc)
}
