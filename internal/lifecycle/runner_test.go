package lifecycle

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/evaluator"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
	"github.com/parkerwhite/voicedash/go-harness/internal/scenario"
)

// #region fakes

type fakeBackend struct {
	health       gateway.ServerHealth
	feedbackErr  func(call int) error
	statusFn     func(call int) (gateway.TrainingStatus, error)
	approveErr   error
	feedbackLog  []gateway.FeedbackPayload
	feedbackCall int
	statusCall   int
}

func (f *fakeBackend) SubmitFeedback(_ context.Context, p gateway.FeedbackPayload) (gateway.FeedbackResult, error) {
	f.feedbackCall++
	if f.feedbackErr != nil {
		if err := f.feedbackErr(f.feedbackCall); err != nil {
			return gateway.FeedbackResult{}, err
		}
	}
	f.feedbackLog = append(f.feedbackLog, p)
	return gateway.FeedbackResult{Status: "ok", Updated: true}, nil
}

func (f *fakeBackend) ApproveTraining(context.Context) (gateway.ApprovalResult, error) {
	if f.approveErr != nil {
		return gateway.ApprovalResult{}, f.approveErr
	}
	return gateway.ApprovalResult{Status: "approved", File: "adapter.bin"}, nil
}

func (f *fakeBackend) Status(context.Context) (gateway.TrainingStatus, error) {
	f.statusCall++
	if f.statusFn != nil {
		return f.statusFn(f.statusCall)
	}
	return gateway.TrainingStatus{}, nil
}

func (f *fakeBackend) CheckServers(context.Context, string) gateway.ServerHealth {
	return f.health
}

type fakeExecutor struct {
	calls int
	fail  map[string]bool // scenario name → always fail
}

func (f *fakeExecutor) Run(_ context.Context, sc scenario.Scenario) (gateway.OrchestrationResponse, []string, error) {
	f.calls++
	if f.fail[sc.Name] {
		return gateway.OrchestrationResponse{}, nil, fmt.Errorf("backend unavailable")
	}
	resp := gateway.OrchestrationResponse{
		QueryID:       fmt.Sprintf("q-%s-%d", sc.Name, f.calls),
		VoiceResponse: "Here is the " + sc.Query,
		Layout: gateway.Layout{Widgets: []gateway.WidgetSpec{
			{Scenario: "status-grid"},
			{Scenario: "kpi-card"},
		}},
		ProcessingTimeMs: 900,
	}
	return resp, []string{"status-grid", "kpi-card"}, nil
}

// #endregion fakes

// #region helpers

func testSuite() []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "one", Query: "What is the overall status?"},
		{Name: "two", Query: "Give me a summary of the devices"},
		{Name: "three", Query: "How is the energy overview looking?"},
	}
}

func testRunner(backend Backend, exec scenario.Executor) (*Runner, *[]time.Duration) {
	cfg := config.DefaultConfig()
	eval := evaluator.NewEvaluatorWithRand(cfg, rand.New(rand.NewSource(3)))
	r := NewRunner(backend, eval, exec, testSuite(), cfg)

	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func readyStatus(pairs, tier2 int) gateway.TrainingStatus {
	return gateway.TrainingStatus{
		Running: true,
		Trainer: gateway.TrainerStats{DPOPairsReady: pairs, Tier2Runs: tier2},
	}
}

// #endregion helpers

func TestRunAbortsWhenBackendDown(t *testing.T) {
	backend := &fakeBackend{health: gateway.ServerHealth{Frontend: true, Backend: false}}
	r, _ := testRunner(backend, &fakeExecutor{})

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error when backend is unreachable")
	}
	if backend.feedbackCall != 0 {
		t.Fatal("no feedback may be submitted after a failed health check")
	}
}

func TestRunSkipsTrainingBelowPairThreshold(t *testing.T) {
	backend := &fakeBackend{
		health:   gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(int) (gateway.TrainingStatus, error) { return readyStatus(12, 0), nil },
	}
	exec := &fakeExecutor{}
	r, _ := testRunner(backend, exec)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Training != TrainingSkipped {
		t.Fatalf("expected skipped at 12 pairs, got %s", result.Training)
	}
	if result.PairsReady != 12 {
		t.Fatalf("expected 12 pairs recorded, got %d", result.PairsReady)
	}
	// Post batch still runs: 3 baseline + 3 after scenario executions.
	if exec.calls != 6 {
		t.Fatalf("expected 6 scenario runs, got %d", exec.calls)
	}
	if result.After.Total != 3 {
		t.Fatalf("expected full post batch, got %d", result.After.Total)
	}
	if result.RelativeDelta == "" {
		t.Fatal("expected a relative delta figure")
	}
}

func TestRunSubmitsFeedbackWithCooldown(t *testing.T) {
	backend := &fakeBackend{
		health:   gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(int) (gateway.TrainingStatus, error) { return readyStatus(0, 0), nil },
	}
	r, slept := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeedbackAttempted != 3 || result.FeedbackSubmitted != 3 {
		t.Fatalf("expected 3/3 feedback, got %d/%d", result.FeedbackSubmitted, result.FeedbackAttempted)
	}
	cooldowns := 0
	for _, d := range *slept {
		if d == 2000*time.Millisecond {
			cooldowns++
		}
	}
	if cooldowns != 2 {
		t.Fatalf("expected a cooldown between each of 3 submissions, got %d", cooldowns)
	}
	for _, p := range backend.feedbackLog {
		if p.QueryID == "" {
			t.Fatal("feedback must carry the scored query id")
		}
	}
}

func TestFeedbackFailureIsIsolatedPerItem(t *testing.T) {
	backend := &fakeBackend{
		health:      gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn:    func(int) (gateway.TrainingStatus, error) { return readyStatus(0, 0), nil },
		feedbackErr: func(call int) error {
			if call == 2 {
				return fmt.Errorf("buffer write rejected")
			}
			return nil
		},
	}
	r, _ := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeedbackAttempted != 3 {
		t.Fatalf("expected all submissions attempted, got %d", result.FeedbackAttempted)
	}
	if result.FeedbackSubmitted != 2 {
		t.Fatalf("expected 2 successes, got %d", result.FeedbackSubmitted)
	}
}

func TestReadinessToleratesTransientStatusFailures(t *testing.T) {
	backend := &fakeBackend{
		health: gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(call int) (gateway.TrainingStatus, error) {
			if call <= 2 {
				return gateway.TrainingStatus{}, fmt.Errorf("connection refused")
			}
			return readyStatus(12, 0), nil
		},
	}
	r, _ := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("transient status failures must not be fatal: %v", err)
	}
	if result.PairsReady != 12 {
		t.Fatalf("expected third attempt to succeed, got pairs %d", result.PairsReady)
	}
	if result.Training != TrainingSkipped {
		t.Fatalf("expected skipped, got %s", result.Training)
	}
}

func TestReadinessAllFailuresMeansNotReady(t *testing.T) {
	backend := &fakeBackend{
		health: gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(int) (gateway.TrainingStatus, error) {
			return gateway.TrainingStatus{}, fmt.Errorf("connection refused")
		},
	}
	r, _ := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("status outage must not be fatal: %v", err)
	}
	if result.Training != TrainingSkipped {
		t.Fatalf("expected skipped on status outage, got %s", result.Training)
	}
	if result.After.Total != 3 {
		t.Fatal("post batch must still run")
	}
}

func TestApproveAndWaitDetectsRunCounterAdvance(t *testing.T) {
	backend := &fakeBackend{
		health: gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(call int) (gateway.TrainingStatus, error) {
			// Readiness snapshot, then two polls: counter advances on the second.
			switch call {
			case 1:
				return readyStatus(64, 5), nil
			case 2:
				return readyStatus(64, 5), nil
			default:
				return readyStatus(10, 6), nil
			}
		},
	}
	r, slept := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Training != TrainingCompleted {
		t.Fatalf("expected completed, got %s", result.Training)
	}
	polls := 0
	for _, d := range *slept {
		if d == 15*time.Second {
			polls++
		}
	}
	if polls != 2 {
		t.Fatalf("expected 2 poll waits before the counter advanced, got %d", polls)
	}
}

func TestApproveAndWaitDeadlineIsNonFatal(t *testing.T) {
	backend := &fakeBackend{
		health: gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(int) (gateway.TrainingStatus, error) {
			return readyStatus(64, 5), nil // counter never advances
		},
	}
	r, _ := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("training timeout must not be fatal: %v", err)
	}
	if result.Training != TrainingTimedOut {
		t.Fatalf("expected timed_out, got %s", result.Training)
	}
	if result.After.Total != 3 {
		t.Fatal("post batch must still run after a timeout")
	}
}

func TestApprovalErrorMarksTrainingFailed(t *testing.T) {
	backend := &fakeBackend{
		health:     gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn:   func(int) (gateway.TrainingStatus, error) { return readyStatus(64, 5), nil },
		approveErr: fmt.Errorf("approval rejected"),
	}
	r, _ := testRunner(backend, &fakeExecutor{})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("approval error must not be fatal: %v", err)
	}
	if result.Training != TrainingFailed {
		t.Fatalf("expected failed, got %s", result.Training)
	}
}

func TestScenarioFailureIsIsolated(t *testing.T) {
	backend := &fakeBackend{
		health:   gateway.ServerHealth{Frontend: true, Backend: true},
		statusFn: func(int) (gateway.TrainingStatus, error) { return readyStatus(0, 0), nil },
	}
	exec := &fakeExecutor{fail: map[string]bool{"two": true}}
	r, _ := testRunner(backend, exec)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Baseline.Total != 2 {
		t.Fatalf("expected failing scenario skipped, got %d", result.Baseline.Total)
	}
	if result.FeedbackAttempted != 2 {
		t.Fatalf("feedback only for scored responses, got %d", result.FeedbackAttempted)
	}
}

func TestCompareBatchesWithoutBaseline(t *testing.T) {
	delta, relative := compareBatches(evaluator.Batch{}, evaluator.Batch{AverageScore: 0.7, Total: 3})
	if delta != 0 {
		t.Fatalf("expected zero delta, got %f", delta)
	}
	if relative != "N/A" {
		t.Fatalf("expected N/A, got %s", relative)
	}
}

func TestCompareBatchesRelativePercent(t *testing.T) {
	baseline := evaluator.Batch{AverageScore: 0.5, Total: 3}
	after := evaluator.Batch{AverageScore: 0.6, Total: 3}
	delta, relative := compareBatches(baseline, after)
	if diff := delta - 0.1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected 0.1, got %f", delta)
	}
	if relative != "+20.0%" {
		t.Fatalf("expected +20.0%%, got %s", relative)
	}
}
