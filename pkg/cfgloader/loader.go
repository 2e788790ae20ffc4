package cfgloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/clowarden/clowarden/pkg/directory"
	"github.com/clowarden/clowarden/pkg/ghclient"
)

// DefaultPermissionsPath and DefaultPeoplePath are the conventional file
// paths used when an organization's configuration doesn't override them,
// per spec.md §6.
const (
	DefaultPermissionsPath = "config.yaml"
	DefaultPeoplePath      = ""
)

// Load fetches the permissions document (required) and the people
// document (optional) through fg at src, and runs the four
// post-processing passes of spec.md §4.3: expand composite teams, sort
// and dedupe each team's rosters, validate, and return.
func Load(ctx context.Context, fg ghclient.FileGetter, src ghclient.Source, permissionsPath, peoplePath string, opts ...Option) (*directory.Directory, []RepoConfig, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if permissionsPath == "" {
		permissionsPath = DefaultPermissionsPath
	}

	raw, err := fg.GetFileContent(ctx, src, permissionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch permissions file %q: %w", permissionsPath, err)
	}

	var doc permissionsDoc
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, nil, fmt.Errorf("parse permissions file %q: %w", permissionsPath, err)
	}

	teams, err := expandFormations(doc.Teams)
	if err != nil {
		return nil, nil, fmt.Errorf("expand composite teams: %w", err)
	}

	directoryTeams := make([]directory.Team, 0, len(teams))
	for _, t := range teams {
		dt := directory.Team{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Maintainers: t.Maintainers,
			Members:     t.Members,
		}
		dt.SortAndDedupe()
		directoryTeams = append(directoryTeams, dt)
	}

	if err := validate(teams, doc.Repositories); err != nil {
		return nil, nil, err
	}

	repoConfigs := make([]RepoConfig, 0, len(doc.Repositories))
	for _, r := range doc.Repositories {
		rc := RepoConfig{Name: r.Name, Visibility: r.Visibility}
		if len(r.Teams) > 0 {
			rc.Teams = make(map[string]directory.Role, len(r.Teams))
			for name, role := range r.Teams {
				rc.Teams[name] = directory.Role(role)
			}
		}
		collaborators := r.Collaborators
		if len(collaborators) == 0 {
			collaborators = r.ExternalCollaborators
		}
		if len(collaborators) > 0 {
			rc.Collaborators = make(map[string]directory.Role, len(collaborators))
			for login, role := range collaborators {
				rc.Collaborators[login] = directory.Role(role)
			}
		}
		repoConfigs = append(repoConfigs, rc)
	}

	people, err := loadPeople(ctx, fg, src, peoplePath, o)
	if err != nil {
		return nil, nil, err
	}

	return directory.New(directoryTeams, people), repoConfigs, nil
}

// loadPeople fetches and parses the optional people document. A missing
// document is permitted and yields an empty user list, per spec.md §4.3.
func loadPeople(ctx context.Context, fg ghclient.FileGetter, src ghclient.Source, peoplePath string, o options) ([]directory.User, error) {
	if peoplePath == "" {
		return nil, nil
	}

	raw, err := fg.GetFileContent(ctx, src, peoplePath)
	if err != nil {
		if errors.Is(err, ghclient.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch people file %q: %w", peoplePath, err)
	}

	var docs []personDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("parse people file %q: %w", peoplePath, err)
	}
	return convertPeople(docs, o), nil
}
