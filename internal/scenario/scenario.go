package scenario

// #region types

// Scenario is one predefined query fixture used to exercise the backend
// end-to-end. Hints are not used for scoring, only for reporting.
type Scenario struct {
	Name  string
	Query string
	Hints []string // tags a maintainer expects; informational
}

// #endregion types

// #region suite

// DefaultSuite returns the standard scenario batch the training cycle runs.
// Ordering is significant: baseline and post-training runs use the same
// sequence so the before/after comparison stays causally ordered.
func DefaultSuite() []Scenario {
	return []Scenario{
		{
			Name:  "critical-alerts",
			Query: "Are there any critical alerts right now?",
			Hints: []string{"alert-feed", "alert-summary"},
		},
		{
			Name:  "energy-overview",
			Query: "Give me an overview of today's energy consumption",
			Hints: []string{"kpi-card", "gauge", "summary"},
		},
		{
			Name:  "temperature-trend",
			Query: "Show the temperature trend for the server room this week",
			Hints: []string{"trend-chart", "timeseries"},
		},
		{
			Name:  "floor-comparison",
			Query: "Compare power usage between floor two and floor three",
			Hints: []string{"comparison-chart", "bar-chart"},
		},
		{
			Name:  "device-status",
			Query: "What is the status of all connected devices?",
			Hints: []string{"device-list", "status-grid"},
		},
		{
			Name:  "sensor-location",
			Query: "Where is the humidity sensor that went offline?",
			Hints: []string{"map", "device-list"},
		},
	}
}

// #endregion suite
