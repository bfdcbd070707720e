package evaluator

import (
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region ratings

const (
	RatingUp   = "up"
	RatingDown = "down"
)

// #endregion ratings

// #region types

// Scores holds the five independent quality signals of one response.
// All float scores are in [0,1].
type Scores struct {
	WidgetCountMatch  bool
	ScenarioRelevance float64
	DataAccuracy      float64
	ResponseQuality   float64
	Latency           float64
}

// Evaluation is the scored judgment of one orchestration response.
// Read-only after creation.
type Evaluation struct {
	ID               string
	QueryID          string
	Query            string
	Scores           Scores
	Overall          float64 // weighted combination, always in [0,1]
	Rating           string  // RatingUp iff Overall >= threshold
	Interactions     []gateway.Interaction
	Correction       string // empty when no rule fired
	Rationale        string
	ProcessingTimeMs float64
	CreatedAt        time.Time
}

// Batch is an immutable aggregate snapshot of a completed evaluation run.
type Batch struct {
	Evaluations      []Evaluation
	Total            int
	Passed           int
	Failed           int
	AverageScore     float64
	AverageLatencyMs float64
	CreatedAt        time.Time
}

// ABComparison is a pairwise judgment between two responses to one query.
type ABComparison struct {
	A         Evaluation
	B         Evaluation
	Winner    string // "A" | "B" | "tie"
	Delta     float64
	Rationale string
}

// #endregion types
