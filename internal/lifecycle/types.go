package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/evaluator"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region outcome

// TrainingOutcome states what happened to the weight-update step of a cycle.
type TrainingOutcome string

const (
	TrainingCompleted TrainingOutcome = "completed" // run counter advanced within the deadline
	TrainingTimedOut  TrainingOutcome = "timed_out" // approved but counter never advanced
	TrainingSkipped   TrainingOutcome = "skipped"   // not enough preference pairs
	TrainingFailed    TrainingOutcome = "failed"    // approval or polling error
)

// #endregion outcome

// #region backend

// Backend is the slice of the gateway the lifecycle needs. Satisfied by
// *gateway.Client; faked in tests.
type Backend interface {
	SubmitFeedback(ctx context.Context, payload gateway.FeedbackPayload) (gateway.FeedbackResult, error)
	ApproveTraining(ctx context.Context) (gateway.ApprovalResult, error)
	Status(ctx context.Context) (gateway.TrainingStatus, error)
	CheckServers(ctx context.Context, frontendURL string) gateway.ServerHealth
}

// #endregion backend

// #region cycle-result

// CycleResult is the best-effort outcome of one full lifecycle run. Produced
// even when training was skipped or some feedback submissions failed.
type CycleResult struct {
	CycleID string

	Baseline evaluator.Batch
	After    evaluator.Batch

	ScoreDelta    float64
	RelativeDelta string // signed percentage, or "N/A" without baseline data

	FeedbackAttempted int
	FeedbackSubmitted int

	Training   TrainingOutcome
	PairsReady int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Report renders the human-readable cycle summary.
func (r CycleResult) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle %s\n", r.CycleID)
	fmt.Fprintf(&b, "  baseline: %d evaluated, %d up / %d down, mean score %.3f, mean latency %.0fms\n",
		r.Baseline.Total, r.Baseline.Passed, r.Baseline.Failed, r.Baseline.AverageScore, r.Baseline.AverageLatencyMs)
	fmt.Fprintf(&b, "  feedback: %d/%d submitted\n", r.FeedbackSubmitted, r.FeedbackAttempted)
	fmt.Fprintf(&b, "  training: %s (%d pairs ready)\n", r.Training, r.PairsReady)
	fmt.Fprintf(&b, "  after:    %d evaluated, %d up / %d down, mean score %.3f\n",
		r.After.Total, r.After.Passed, r.After.Failed, r.After.AverageScore)
	fmt.Fprintf(&b, "  delta:    %+.3f (%s)\n", r.ScoreDelta, r.RelativeDelta)
	fmt.Fprintf(&b, "  took %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return b.String()
}

// #endregion cycle-result
