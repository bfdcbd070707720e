package evaluator

import (
	"fmt"
	"math"
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region summarize

// SummarizeBatch aggregates a completed evaluation run. Empty input yields
// an all-zero snapshot, never a division by zero.
func SummarizeBatch(evals []Evaluation) Batch {
	b := Batch{
		Evaluations: evals,
		Total:       len(evals),
		CreatedAt:   time.Now().UTC(),
	}
	if len(evals) == 0 {
		return b
	}

	var scoreSum, latencySum float64
	for _, ev := range evals {
		if ev.Rating == RatingUp {
			b.Passed++
		} else {
			b.Failed++
		}
		scoreSum += ev.Overall
		latencySum += ev.ProcessingTimeMs
	}
	b.AverageScore = scoreSum / float64(len(evals))
	b.AverageLatencyMs = latencySum / float64(len(evals))
	return b
}

// #endregion summarize

// #region compare-ab

// tieWindow is the score distance under which two responses are considered
// indistinguishable.
const tieWindow = 0.05

// CompareAB evaluates two responses to the same query and picks a winner.
// Scores closer than the tie window are a tie.
func (e *Evaluator) CompareAB(query string, respA, respB *gateway.OrchestrationResponse, tagsA, tagsB []string) (ABComparison, error) {
	evalA, err := e.Evaluate(query, respA, tagsA)
	if err != nil {
		return ABComparison{}, fmt.Errorf("compare A: %w", err)
	}
	evalB, err := e.Evaluate(query, respB, tagsB)
	if err != nil {
		return ABComparison{}, fmt.Errorf("compare B: %w", err)
	}

	delta := evalA.Overall - evalB.Overall
	winner := "tie"
	switch {
	case math.Abs(delta) < tieWindow:
		winner = "tie"
	case delta > 0:
		winner = "A"
	default:
		winner = "B"
	}

	return ABComparison{
		A:      evalA,
		B:      evalB,
		Winner: winner,
		Delta:  delta,
		Rationale: fmt.Sprintf("A %.0f%% vs B %.0f%% | delta %.3f | winner %s",
			evalA.Overall*100, evalB.Overall*100, delta, winner),
	}, nil
}

// #endregion compare-ab
