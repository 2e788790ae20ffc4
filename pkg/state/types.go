// Package state implements the service state model (spec.md §4.5): a
// directory plus its repositories, built either from configuration
// (desired) or from the platform (actual), validated, and diffed into a
// typed, ordered ChangeSet.
package state

import "github.com/clowarden/clowarden/pkg/directory"

// Repository is a repository's membership record: which teams and
// collaborators have which role, and its visibility.
type Repository struct {
	Name          string
	Teams         map[string]directory.Role
	Collaborators map[string]directory.Role
	Visibility    string
}

// Clone returns a deep copy of r.
func (r Repository) Clone() Repository {
	out := r
	if r.Teams != nil {
		out.Teams = make(map[string]directory.Role, len(r.Teams))
		for k, v := range r.Teams {
			out.Teams[k] = v
		}
	}
	if r.Collaborators != nil {
		out.Collaborators = make(map[string]directory.Role, len(r.Collaborators))
		for k, v := range r.Collaborators {
			out.Collaborators[k] = v
		}
	}
	return out
}

// DefaultVisibility is applied when a repository's configuration omits
// visibility, per spec.md §3.
const DefaultVisibility = "public"

// State is a directory plus its repositories, from either a config
// reference (desired) or the platform (actual).
type State struct {
	Directory    *directory.Directory
	Repositories []Repository
}
