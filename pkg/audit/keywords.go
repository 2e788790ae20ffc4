package audit

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// buildChangeRows flattens a ReconciliationInput's per-service applied
// changes into Change rows ready to insert, each carrying its own
// denormalized keyword document. Kept as a pure function, separate from
// any gorm.DB, so the row-building and keyword logic can be tested
// without a database.
func buildChangeRows(reconciliationID string, input ReconciliationInput) ([]changeRow, error) {
	prKeywords := prMetadataKeywords(input)

	var rows []changeRow
	for service, changes := range input.ChangesAppliedByService {
		for _, c := range changes {
			extra, err := json.Marshal(c.Extra)
			if err != nil {
				return nil, err
			}
			keywords := append(append([]string{}, c.Keywords...), prKeywords...)
			rows = append(rows, changeRow{
				reconciliationID: reconciliationID,
				service:          service,
				kind:             c.Kind,
				extra:            extra,
				appliedAt:        c.AppliedAt,
				errText:          c.Error,
				keywords:         keywords,
			})
		}
	}
	return rows, nil
}

// changeRow is the gorm-agnostic shape buildChangeRows produces; the gorm
// sink turns it into a Change plus the tsvector expression for its insert.
type changeRow struct {
	reconciliationID string
	service          string
	kind             string
	extra            []byte
	appliedAt        time.Time
	errText          string
	keywords         []string
}

func prMetadataKeywords(input ReconciliationInput) []string {
	var keywords []string
	if input.PRNumber != nil {
		keywords = append(keywords, strconv.FormatInt(*input.PRNumber, 10))
	}
	if input.PRCreatedBy != "" {
		keywords = append(keywords, input.PRCreatedBy)
	}
	if input.PRMergedBy != "" {
		keywords = append(keywords, input.PRMergedBy)
	}
	return keywords
}

// aggregatedError joins every per-service error in input into a single
// deterministic string (services sorted by name), or "" if none errored.
func aggregatedError(input ReconciliationInput) string {
	var services []string
	for service, err := range input.ErrorsByService {
		if err != nil {
			services = append(services, service)
		}
	}
	if len(services) == 0 {
		return ""
	}
	sort.Strings(services)
	var b strings.Builder
	for i, service := range services {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(service)
		b.WriteString(": ")
		b.WriteString(input.ErrorsByService[service].Error())
	}
	return b.String()
}
