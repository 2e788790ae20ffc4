package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/audit"
)

const defaultSearchLimit = 20

// SearchChangesHandler serves GET /api/changes/search, per spec.md §6:
// filterable, paginated access to the audit trail, with the result's
// total count (ignoring Limit/Offset) returned via a
// pagination-total-count header so the caller can page without a second
// count query.
func SearchChangesHandler(sink audit.Sink, log logrus.FieldLogger) http.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseSearchFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := sink.SearchChanges(r.Context(), filter)
		if err != nil {
			log.WithError(err).Error("searching changes")
			http.Error(w, "error searching changes", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("pagination-total-count", strconv.FormatInt(result.TotalCount, 10))
		if err := json.NewEncoder(w).Encode(result.Rows); err != nil {
			log.WithError(err).Error("encoding search response")
		}
	}
}

func parseSearchFilter(r *http.Request) (audit.SearchFilter, error) {
	q := r.URL.Query()
	filter := audit.SearchFilter{
		Service:     q.Get("service"),
		Kind:        q.Get("kind"),
		MergedBy:    q.Get("merged_by"),
		Query:       q.Get("q"),
		SuccessOnly: q.Get("success_only") == "true",
		Limit:       defaultSearchLimit,
	}

	if v := q.Get("pr_number"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return audit.SearchFilter{}, errInvalidParam("pr_number")
		}
		filter.PRNumber = &n
	}
	if v := q.Get("applied_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.SearchFilter{}, errInvalidParam("applied_from")
		}
		filter.AppliedFrom = &t
	}
	if v := q.Get("applied_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.SearchFilter{}, errInvalidParam("applied_to")
		}
		filter.AppliedTo = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return audit.SearchFilter{}, errInvalidParam("limit")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return audit.SearchFilter{}, errInvalidParam("offset")
		}
		filter.Offset = n
	}

	return filter, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid query parameter: " + string(e) }
