package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/evaluator"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
	"github.com/parkerwhite/voicedash/go-harness/internal/scenario"
)

// #region runner-struct

// statusAttempts bounds the readiness check's tolerance for flaky status
// polls before treating the cycle as not ready.
const statusAttempts = 3

// Runner drives one training cycle as a strictly sequential pipeline:
// health check → baseline batch → feedback → readiness → approve+poll →
// post batch → compare. One logical thread of control; every network call is
// individually timeout-bounded by the gateway.
type Runner struct {
	backend Backend
	eval    *evaluator.Evaluator
	exec    scenario.Executor
	suite   []scenario.Scenario

	frontendURL    string
	cooldown       time.Duration
	pollInterval   time.Duration
	pollDeadline   time.Duration
	pairsThreshold int

	// sleep is injectable so tests do not wait out cooldowns or poll cadence.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner wires a lifecycle runner from harness configuration.
func NewRunner(backend Backend, eval *evaluator.Evaluator, exec scenario.Executor, suite []scenario.Scenario, cfg config.Config) *Runner {
	return &Runner{
		backend:        backend,
		eval:           eval,
		exec:           exec,
		suite:          suite,
		frontendURL:    cfg.FrontendURL,
		cooldown:       cfg.FeedbackCooldown,
		pollInterval:   cfg.PollInterval,
		pollDeadline:   cfg.PollDeadline,
		pairsThreshold: cfg.DPOPairsThreshold,
		sleep:          sleepCtx,
	}
}

// #endregion runner-struct

// #region run

// Run executes one full cycle. The only fatal condition is the initial
// health check: everything after it degrades per item and still produces a
// best-effort result.
func (r *Runner) Run(ctx context.Context) (CycleResult, error) {
	result := CycleResult{
		CycleID:   uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Training:  TrainingSkipped,
	}

	// 1. Health check: backend down aborts before consuming resources.
	health := r.backend.CheckServers(ctx, r.frontendURL)
	if !health.Backend {
		return CycleResult{}, fmt.Errorf("health check: backend unreachable, aborting cycle")
	}
	if !health.Frontend {
		log.Printf("[CYCLE] frontend unreachable, continuing with layout-echo observation")
	}

	// 2. Baseline batch.
	result.Baseline = r.evaluateBatch(ctx, "baseline")

	// 3. Feedback with cooldown between submissions.
	result.FeedbackAttempted, result.FeedbackSubmitted = r.submitFeedback(ctx, result.Baseline.Evaluations)

	// 4. Readiness: enough preference pairs accumulated?
	status, ok := r.pollStatus(ctx)
	if ok {
		result.PairsReady = status.Trainer.DPOPairsReady
	}
	switch {
	case !ok:
		log.Printf("[TRAIN] status unavailable, skipping training this cycle")
		result.Training = TrainingSkipped
	case status.Trainer.DPOPairsReady < r.pairsThreshold:
		log.Printf("[TRAIN] %d pairs ready (< %d), skipping training this cycle",
			status.Trainer.DPOPairsReady, r.pairsThreshold)
		result.Training = TrainingSkipped
	default:
		// 5. Approve and poll for the run counter to advance.
		result.Training = r.approveAndWait(ctx, status.Trainer.Tier2Runs)
	}

	// 6. Post-training batch over the same scenarios, same order.
	result.After = r.evaluateBatch(ctx, "post-training")

	// 7. Compare.
	result.ScoreDelta, result.RelativeDelta = compareBatches(result.Baseline, result.After)
	result.FinishedAt = time.Now().UTC()

	log.Printf("[CYCLE] done: delta %+.3f (%s), training %s",
		result.ScoreDelta, result.RelativeDelta, result.Training)
	return result, nil
}

// #endregion run

// #region evaluate-batch

// evaluateBatch runs the scenario suite sequentially and scores each
// response. Per-scenario failures are logged and skipped.
func (r *Runner) evaluateBatch(ctx context.Context, label string) evaluator.Batch {
	evals := make([]evaluator.Evaluation, 0, len(r.suite))
	for _, sc := range r.suite {
		resp, tags, err := r.exec.Run(ctx, sc)
		if err != nil {
			log.Printf("[EVAL] %s %q failed: %v", label, sc.Name, err)
			continue
		}
		ev, err := r.eval.Evaluate(sc.Query, &resp, tags)
		if err != nil {
			log.Printf("[EVAL] %s %q failed: %v", label, sc.Name, err)
			continue
		}
		log.Printf("[EVAL] %s %q: %s", label, sc.Name, ev.Rationale)
		evals = append(evals, ev)
	}
	batch := evaluator.SummarizeBatch(evals)
	log.Printf("[EVAL] %s batch: %d/%d up, mean score %.3f",
		label, batch.Passed, batch.Total, batch.AverageScore)
	return batch
}

// #endregion evaluate-batch

// #region submit-feedback

// submitFeedback derives a payload per evaluation and submits sequentially.
// A failed submission is logged and skipped; the cooldown is awaited between
// attempts regardless of outcome, to respect backend buffer pacing.
func (r *Runner) submitFeedback(ctx context.Context, evals []evaluator.Evaluation) (attempted, submitted int) {
	for i, ev := range evals {
		attempted++
		payload := evaluator.GenerateFeedback(ev)
		if _, err := r.backend.SubmitFeedback(ctx, payload); err != nil {
			log.Printf("[FEEDBACK] %s: %v", payload.QueryID, err)
		} else {
			submitted++
		}
		if i < len(evals)-1 {
			if err := r.sleep(ctx, r.cooldown); err != nil {
				log.Printf("[FEEDBACK] cooldown interrupted: %v", err)
				return attempted, submitted
			}
		}
	}
	return attempted, submitted
}

// #endregion submit-feedback

// #region poll-status

// pollStatus fetches a status snapshot, tolerating transient failures.
// Every failed attempt is logged; a fully failed check means "not ready",
// never a fatal error.
func (r *Runner) pollStatus(ctx context.Context) (gateway.TrainingStatus, bool) {
	for attempt := 1; attempt <= statusAttempts; attempt++ {
		status, err := r.backend.Status(ctx)
		if err == nil {
			return status, true
		}
		log.Printf("[TRAIN] status attempt %d/%d: %v", attempt, statusAttempts, err)
		if attempt < statusAttempts {
			if r.sleep(ctx, time.Second) != nil {
				return gateway.TrainingStatus{}, false
			}
		}
	}
	return gateway.TrainingStatus{}, false
}

// #endregion poll-status

// #region approve-and-wait

// approveAndWait authorizes a weight-update job and polls until the trainer's
// run counter advances past its pre-approval value or the deadline elapses.
// Both the timeout and polling errors are non-fatal: the cycle proceeds to
// post-evaluation either way.
func (r *Runner) approveAndWait(ctx context.Context, baselineRuns int) TrainingOutcome {
	approval, err := r.backend.ApproveTraining(ctx)
	if err != nil {
		log.Printf("[TRAIN] approval failed: %v", err)
		return TrainingFailed
	}
	log.Printf("[TRAIN] approved (%s), waiting for run %d → %d", approval.Status, baselineRuns, baselineRuns+1)

	maxPolls := int(r.pollDeadline / r.pollInterval)
	for i := 0; i < maxPolls; i++ {
		if err := r.sleep(ctx, r.pollInterval); err != nil {
			log.Printf("[TRAIN] wait interrupted: %v", err)
			return TrainingFailed
		}
		status, err := r.backend.Status(ctx)
		if err != nil {
			log.Printf("[TRAIN] poll %d/%d: %v", i+1, maxPolls, err)
			continue
		}
		if status.Trainer.Tier2Runs > baselineRuns {
			log.Printf("[TRAIN] run counter advanced to %d", status.Trainer.Tier2Runs)
			return TrainingCompleted
		}
	}
	log.Printf("[TRAIN] deadline elapsed after %s, proceeding anyway", r.pollDeadline)
	return TrainingTimedOut
}

// #endregion approve-and-wait

// #region compare

// compareBatches computes the mean-score delta and its relative percentage.
// Without baseline data the delta is 0 and the relative figure "N/A".
func compareBatches(baseline, after evaluator.Batch) (delta float64, relative string) {
	if baseline.Total == 0 || baseline.AverageScore == 0 {
		return 0, "N/A"
	}
	delta = after.AverageScore - baseline.AverageScore
	return delta, fmt.Sprintf("%+.1f%%", delta/baseline.AverageScore*100)
}

// #endregion compare

// #region helpers

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// #endregion helpers
