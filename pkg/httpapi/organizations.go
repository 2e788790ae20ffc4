package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/clowarden/clowarden/pkg/service"
)

// organizationView is one entry of GET /api/organizations.
type organizationView struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
}

// OrganizationsHandler serves GET /api/organizations: the list of
// organizations this deployment reconciles, per spec.md §6.
func OrganizationsHandler(orgs map[string]service.Org) http.HandlerFunc {
	views := make([]organizationView, 0, len(orgs))
	for name, org := range orgs {
		views = append(views, organizationView{Name: name, Repository: org.RepositoryOwner + "/" + org.RepositoryName, Branch: org.Branch})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views); err != nil {
			http.Error(w, "error encoding response", http.StatusInternalServerError)
		}
	}
}
