package evaluator

import (
	"strings"

	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region interactions

// synthesizeInteractions seeds feedback telemetry in place of real UI
// capture. Engagement is assumed proportional to measured quality: the
// duration multiplier doubles above 0.6 overall and halves below. The shape
// (count, bounds, multiplier) is deterministic; only durations vary.
func (e *Evaluator) synthesizeInteractions(widgetCount int, overall float64) []gateway.Interaction {
	if widgetCount == 0 {
		return nil
	}
	mult := 0.5
	if overall > 0.6 {
		mult = 2.0
	}
	interactions := make([]gateway.Interaction, 0, widgetCount+1)
	for i := 0; i < widgetCount; i++ {
		viewMs := (3000 + e.rng.Float64()*5000) * mult
		interactions = append(interactions, gateway.Interaction{
			WidgetIndex: i,
			Action:      "view",
			DurationMs:  int(viewMs),
		})
		if i == 0 && overall > 0.5 {
			interactions = append(interactions, gateway.Interaction{
				WidgetIndex: 0,
				Action:      "expand",
				DurationMs:  int(5000 * mult),
			})
		}
	}
	return interactions
}

// #endregion interactions

// #region correction

// correctionRule flags a missing widget kind the query asked for.
type correctionRule struct {
	keywords []string // any keyword present in the query triggers the check
	tagPart  string   // substring expected in at least one widget tag
	message  string
}

var correctionRules = []correctionRule{
	{
		keywords: []string{"alert", "alarm", "warning"},
		tagPart:  "alert",
		message:  "Expected an alert widget for this query",
	},
	{
		keywords: []string{"compare"},
		tagPart:  "comparison",
		message:  "Expected a comparison widget for this query",
	},
	{
		keywords: []string{"trend"},
		tagPart:  "trend",
		message:  "Expected a trend chart for this query",
	},
}

// suggestCorrection runs the rule list in order and joins triggered messages.
// An empty widget list short-circuits with a single fixed message. Returns
// "" when no rule fires.
func suggestCorrection(query string, widgets []gateway.WidgetSpec) string {
	if len(widgets) == 0 {
		return "No widgets returned for this query"
	}

	lower := strings.ToLower(query)
	var parts []string
	for _, rule := range correctionRules {
		triggered := false
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				triggered = true
				break
			}
		}
		if !triggered {
			continue
		}
		if !anyTagContains(widgets, rule.tagPart) {
			parts = append(parts, rule.message)
		}
	}
	return strings.Join(parts, "; ")
}

func anyTagContains(widgets []gateway.WidgetSpec, part string) bool {
	for _, w := range widgets {
		if strings.Contains(strings.ToLower(w.Scenario), part) {
			return true
		}
	}
	return false
}

// #endregion correction

// #region generate-feedback

// GenerateFeedback projects an evaluation onto the feedback wire format.
// Pure: the payload always carries the query id the evaluation scored, so
// feedback can never be submitted for an unscored response.
func GenerateFeedback(ev Evaluation) gateway.FeedbackPayload {
	return gateway.FeedbackPayload{
		QueryID:      ev.QueryID,
		Rating:       ev.Rating,
		Interactions: ev.Interactions,
		Correction:   ev.Correction,
	}
}

// #endregion generate-feedback
