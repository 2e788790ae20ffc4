// Package cfgloader fetches and parses the declarative permissions and
// people documents that describe an organization's desired state, per
// spec.md §4.3. Grounded on cmd/peribolos/main.go's own YAML-backed
// org.FullConfig loading, generalized from a local-file read to a
// C2-mediated fetch at an arbitrary ref.
package cfgloader

import "github.com/clowarden/clowarden/pkg/directory"

// permissionsDoc is the on-disk shape of the permissions file (YAML),
// default path config.yaml, per spec.md §6.
type permissionsDoc struct {
	Teams        []teamDoc `json:"teams,omitempty"`
	Repositories []repoDoc `json:"repositories,omitempty"`
}

type teamDoc struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Maintainers []string `json:"maintainers,omitempty"`
	Members     []string `json:"members,omitempty"`
	Formation   []string `json:"formation,omitempty"`
}

type repoDoc struct {
	Name          string            `json:"name"`
	Teams         map[string]string `json:"teams,omitempty"`
	Collaborators map[string]string `json:"collaborators,omitempty"`
	// ExternalCollaborators is an accepted alias for Collaborators, per
	// spec.md §6.
	ExternalCollaborators map[string]string `json:"external_collaborators,omitempty"`
	Visibility            string            `json:"visibility,omitempty"`
}

// personDoc is one entry of the optional people file (JSON array), per
// spec.md §6.
type personDoc struct {
	Name      string   `json:"name"`
	Github    string   `json:"github,omitempty"`
	Image     string   `json:"image,omitempty"`
	Email     string   `json:"email,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Company   string   `json:"company,omitempty"`
	Pronouns  string   `json:"pronouns,omitempty"`
	Location  string   `json:"location,omitempty"`
	Linkedin  string   `json:"linkedin,omitempty"`
	Twitter   string   `json:"twitter,omitempty"`
	Wechat    string   `json:"wechat,omitempty"`
	Website   string   `json:"website,omitempty"`
	Youtube   string   `json:"youtube,omitempty"`
	Languages []string `json:"languages,omitempty"`
	SlackID   string   `json:"slack_id,omitempty"`
	Projects  []string `json:"projects,omitempty"`
	Category  []string `json:"category,omitempty"`
}

// RepoConfig is a repository as declared in the permissions file, prior to
// org-admin folding and archived/visibility defaulting (pkg/state owns
// that, since it needs the platform's admin list).
type RepoConfig struct {
	Name          string
	Teams         map[string]directory.Role
	Collaborators map[string]directory.Role
	Visibility    string
}
