package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/audit"
	"github.com/clowarden/clowarden/pkg/cfgserver"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/service"
)

// Router builds CLOWarden's full HTTP surface (spec.md §6): the webhook
// endpoint, a health check, the read-only organizations/changes-search
// API, and static/audit asset serving, wired with gorilla/mux the way
// the teacher's own go.mod already names it as a direct dependency.
type Router struct {
	Webhook      *WebhookServer
	Orgs         map[string]service.Org
	Audit        audit.Sink
	BasicAuth    cfgserver.BasicAuth
	StaticAssets string
	Log          logrus.FieldLogger
}

// Handler returns the assembled http.Handler.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.Handle("/webhook/github", rt.Webhook).Methods(http.MethodPost)
	r.HandleFunc("/health-check", healthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/organizations", OrganizationsHandler(rt.Orgs)).Methods(http.MethodGet)
	api.HandleFunc("/changes/search", SearchChangesHandler(rt.Audit, rt.Log)).Methods(http.MethodGet)
	if rt.BasicAuth.Enabled {
		api.Use(basicAuthMiddleware(rt.BasicAuth))
	}

	if rt.StaticAssets != "" {
		static := http.FileServer(http.Dir(rt.StaticAssets))
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", static))
		r.PathPrefix("/audit/").Handler(http.StripPrefix("/audit/", static))
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// basicAuthMiddleware guards a subrouter with HTTP basic auth, per
// spec.md §6's optional BasicAuth config, using constant-time comparisons
// to avoid leaking the configured credentials through response timing.
func basicAuthMiddleware(auth cfgserver.BasicAuth) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(auth.Username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(auth.Password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="clowarden"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
