package scenario

import "strings"

// #region expectation-table

// expectedTags maps query keywords to the widget category tags the dashboard
// is expected to render for them. Matching is case-insensitive substring on
// the query; a query can hit several keywords and receives the tag union.
var expectedTags = map[string][]string{
	"alert":       {"alert-feed", "alert-summary"},
	"alarm":       {"alert-feed", "alert-summary"},
	"warning":     {"alert-feed"},
	"critical":    {"alert-feed", "alert-summary"},
	"trend":       {"trend-chart", "timeseries"},
	"history":     {"trend-chart", "timeseries"},
	"over time":   {"trend-chart", "timeseries"},
	"compare":     {"comparison-chart", "bar-chart"},
	"versus":      {"comparison-chart"},
	"difference":  {"comparison-chart"},
	"status":      {"status-grid", "kpi-card"},
	"overview":    {"status-grid", "kpi-card", "summary"},
	"summary":     {"summary", "kpi-card"},
	"energy":      {"kpi-card", "gauge"},
	"consumption": {"kpi-card", "gauge", "trend-chart"},
	"temperature": {"gauge", "timeseries"},
	"humidity":    {"gauge", "timeseries"},
	"where":       {"map"},
	"location":    {"map"},
	"device":      {"device-list", "status-grid"},
	"sensor":      {"device-list", "gauge"},
}

// #endregion expectation-table

// #region lookup

// ExpectedTagsFor returns the union of expected widget tags for every keyword
// present in the query, preserving table-independent dedup. matched is false
// when no keyword applies, which scorers treat as an unclassified query.
func ExpectedTagsFor(query string) (tags []string, matched bool) {
	lower := strings.ToLower(query)
	seen := make(map[string]struct{})
	for keyword, expected := range expectedTags {
		if !strings.Contains(lower, keyword) {
			continue
		}
		matched = true
		for _, tag := range expected {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags, matched
}

// #endregion lookup
