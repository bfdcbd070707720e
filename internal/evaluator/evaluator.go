package evaluator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
	"github.com/parkerwhite/voicedash/go-harness/internal/scenario"
)

// #region evaluator-struct

// Evaluator turns one (query, response, rendered-tags) triple into one
// Evaluation. Deterministic except for the synthesized-interaction step,
// whose random source is injectable for tests.
type Evaluator struct {
	threshold float64
	budgetMs  float64
	weights   config.Weights
	rng       *rand.Rand
}

// NewEvaluator builds an evaluator from harness configuration.
func NewEvaluator(cfg config.Config) *Evaluator {
	return NewEvaluatorWithRand(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEvaluatorWithRand creates an Evaluator with an injected random source so
// tests can pin the interaction distribution.
func NewEvaluatorWithRand(cfg config.Config, rng *rand.Rand) *Evaluator {
	return &Evaluator{
		threshold: cfg.EvalThreshold,
		budgetMs:  float64(cfg.LatencyBudget.Milliseconds()),
		weights:   cfg.Weights,
		rng:       rng,
	}
}

// #endregion evaluator-struct

// #region evaluate

// Evaluate scores one response against the widgets actually rendered.
// A nil response is a programmer error and returns an error; malformed but
// present data degrades to neutral scores instead.
func (e *Evaluator) Evaluate(query string, resp *gateway.OrchestrationResponse, observedTags []string) (Evaluation, error) {
	if resp == nil {
		return Evaluation{}, fmt.Errorf("evaluate: nil response")
	}

	widgets := resp.Layout.Widgets
	scores := Scores{
		WidgetCountMatch:  checkWidgetCount(len(widgets), len(observedTags)),
		ScenarioRelevance: scenarioRelevance(query, widgets),
		DataAccuracy:      dataAccuracy(widgets, observedTags),
		ResponseQuality:   responseQuality(query, resp.VoiceResponse),
		Latency:           latencyScore(resp.ProcessingTimeMs, e.budgetMs),
	}

	overall := e.overallScore(scores)
	rating := RatingDown
	if overall >= e.threshold {
		rating = RatingUp
	}

	ev := Evaluation{
		ID:               uuid.New().String(),
		QueryID:          resp.QueryID,
		Query:            query,
		Scores:           scores,
		Overall:          overall,
		Rating:           rating,
		Interactions:     e.synthesizeInteractions(len(widgets), overall),
		Rationale:        rationale(query, scores, overall, rating, len(widgets), len(observedTags)),
		ProcessingTimeMs: resp.ProcessingTimeMs,
		CreatedAt:        time.Now().UTC(),
	}
	if rating == RatingDown {
		ev.Correction = suggestCorrection(query, widgets)
	}
	return ev, nil
}

// overallScore is the fixed weighted linear combination of the sub-scores.
// With weights summing to 1.0 and sub-scores in [0,1] the result stays in
// [0,1]; the final clamp only guards float drift.
func (e *Evaluator) overallScore(s Scores) float64 {
	widgetCount := 0.0
	if s.WidgetCountMatch {
		widgetCount = 1.0
	}
	overall := widgetCount*e.weights.WidgetCount +
		s.ScenarioRelevance*e.weights.Relevance +
		s.DataAccuracy*e.weights.Accuracy +
		s.ResponseQuality*e.weights.Quality +
		s.Latency*e.weights.Latency
	return clamp(overall)
}

// #endregion evaluate

// #region widget-count

// checkWidgetCount tolerates a difference of one: a hero widget may merge or
// split visually without the layout being wrong.
func checkWidgetCount(expected, observed int) bool {
	diff := expected - observed
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// #endregion widget-count

// #region scenario-relevance

// scenarioRelevance scores the widget tags against the expectation table.
// Unclassified queries get 0.7 (benefit of the doubt); a classified query
// with no widgets at all is neutral 0.5.
func scenarioRelevance(query string, widgets []gateway.WidgetSpec) float64 {
	expected, matched := scenario.ExpectedTagsFor(query)
	if !matched {
		return 0.7
	}
	if len(widgets) == 0 {
		return 0.5
	}
	hits := 0
	for _, w := range widgets {
		if tagInSet(w.Scenario, expected) {
			hits++
		}
	}
	return float64(hits) / float64(len(widgets))
}

// tagInSet reports whether tag matches any expected tag by case-insensitive
// equality or substring containment in either direction.
func tagInSet(tag string, expected []string) bool {
	lower := strings.ToLower(tag)
	for _, exp := range expected {
		expLower := strings.ToLower(exp)
		if lower == expLower || strings.Contains(lower, expLower) || strings.Contains(expLower, lower) {
			return true
		}
	}
	return false
}

// #endregion scenario-relevance

// #region data-accuracy

// dataAccuracy compares tags pairwise by position over the shorter list.
// Either side empty means there is nothing to verify: neutral 0.5.
func dataAccuracy(widgets []gateway.WidgetSpec, observedTags []string) float64 {
	n := len(widgets)
	if len(observedTags) < n {
		n = len(observedTags)
	}
	if n == 0 {
		return 0.5
	}
	matched := 0
	for i := 0; i < n; i++ {
		a := strings.ToLower(widgets[i].Scenario)
		b := strings.ToLower(observedTags[i])
		if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
			matched++
		}
	}
	return float64(matched) / float64(n)
}

// #endregion data-accuracy

// #region response-quality

// responseQuality scores the natural-language answer: presence, useful
// length, and coverage of the query's content words.
func responseQuality(query, text string) float64 {
	score := 0.3
	if text != "" {
		score = 0.5
	}

	length := len(text)
	if length > 20 && length < 2000 {
		score += 0.2
	} else if length >= 2000 {
		score += 0.1
	}

	lowerText := strings.ToLower(text)
	var content, present int
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:'\"")
		if len(w) <= 3 {
			continue
		}
		content++
		if strings.Contains(lowerText, w) {
			present++
		}
	}
	if content > 0 {
		score += 0.3 * float64(present) / float64(content)
	}

	return clamp(score)
}

// #endregion response-quality

// #region latency-score

// latencyScore is 1.0 within budget, decays linearly to 0.5 by twice the
// budget and to 0.0 by four times the budget.
func latencyScore(processingMs, budgetMs float64) float64 {
	switch {
	case processingMs <= budgetMs:
		return 1.0
	case processingMs <= 2*budgetMs:
		return 1.0 - 0.5*(processingMs-budgetMs)/budgetMs
	case processingMs <= 4*budgetMs:
		return 0.5 - 0.5*(processingMs-2*budgetMs)/(2*budgetMs)
	default:
		return 0.0
	}
}

// #endregion latency-score

// #region rationale

// rationale renders the audit line: truncated query, widget verdict, every
// sub-score as a percentage, and the final call.
func rationale(query string, s Scores, overall float64, rating string, expected, observed int) string {
	verdict := "mismatch"
	if s.WidgetCountMatch {
		verdict = "match"
	}
	return fmt.Sprintf("%s | widgets %s (%d spec / %d rendered) | relevance %.0f%% | accuracy %.0f%% | quality %.0f%% | latency %.0f%% | overall %.0f%% | %s",
		truncate(query, 48), verdict, expected, observed,
		s.ScenarioRelevance*100, s.DataAccuracy*100, s.ResponseQuality*100, s.Latency*100,
		overall*100, rating)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion rationale

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
