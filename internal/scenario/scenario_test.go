package scenario

import (
	"context"
	"fmt"
	"testing"

	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region expectations

func TestExpectedTagsForUnclassifiedQuery(t *testing.T) {
	tags, matched := ExpectedTagsFor("tell me a joke")
	if matched {
		t.Fatalf("expected no keyword match, got %v", tags)
	}
	if len(tags) != 0 {
		t.Fatalf("unclassified query must yield no tags, got %v", tags)
	}
}

func TestExpectedTagsForSingleKeyword(t *testing.T) {
	tags, matched := ExpectedTagsFor("Where is the lobby sensor?")
	if !matched {
		t.Fatal("expected keyword match")
	}
	want := map[string]bool{"map": true, "device-list": true, "gauge": true}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), tags)
	}
	for _, tag := range tags {
		if !want[tag] {
			t.Fatalf("unexpected tag %s", tag)
		}
	}
}

func TestExpectedTagsForUnionIsDeduped(t *testing.T) {
	// "temperature" and "humidity" both contribute gauge and timeseries.
	tags, matched := ExpectedTagsFor("show temperature and humidity")
	if !matched {
		t.Fatal("expected keyword match")
	}
	seen := map[string]int{}
	for _, tag := range tags {
		seen[tag]++
	}
	for tag, n := range seen {
		if n > 1 {
			t.Fatalf("tag %s appears %d times", tag, n)
		}
	}
	if seen["gauge"] != 1 || seen["timeseries"] != 1 {
		t.Fatalf("expected gauge and timeseries once each, got %v", tags)
	}
}

func TestExpectedTagsForIsCaseInsensitive(t *testing.T) {
	tags, matched := ExpectedTagsFor("Any CRITICAL Alerts?")
	if !matched {
		t.Fatal("expected match regardless of case")
	}
	found := false
	for _, tag := range tags {
		if tag == "alert-feed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected alert-feed, got %v", tags)
	}
}

// #endregion expectations

// #region suite

func TestDefaultSuiteIsClassifiable(t *testing.T) {
	suite := DefaultSuite()
	if len(suite) == 0 {
		t.Fatal("expected a non-empty suite")
	}
	names := map[string]bool{}
	for _, sc := range suite {
		if sc.Name == "" || sc.Query == "" {
			t.Fatalf("scenario missing name or query: %+v", sc)
		}
		if names[sc.Name] {
			t.Fatalf("duplicate scenario name %s", sc.Name)
		}
		names[sc.Name] = true
		if _, matched := ExpectedTagsFor(sc.Query); !matched {
			t.Fatalf("suite query %q hits no expectation keyword", sc.Query)
		}
	}
}

// #endregion suite

// #region executor

type stubBackend struct {
	lastQuery   string
	lastSession string
	resp        gateway.OrchestrationResponse
	err         error
}

func (s *stubBackend) Orchestrate(_ context.Context, query string, opts gateway.OrchestrateOptions) (gateway.OrchestrationResponse, error) {
	s.lastQuery = query
	s.lastSession = opts.SessionID
	return s.resp, s.err
}

type failingObserver struct{}

func (failingObserver) ObserveWidgets(context.Context, gateway.OrchestrationResponse) ([]string, error) {
	return nil, fmt.Errorf("browser gone")
}

func TestLayoutObserverEchoesLayoutTags(t *testing.T) {
	resp := gateway.OrchestrationResponse{Layout: gateway.Layout{Widgets: []gateway.WidgetSpec{
		{Scenario: "alert-feed"},
		{Scenario: "kpi-card"},
	}}}
	tags, err := LayoutObserver{}.ObserveWidgets(context.Background(), resp)
	if err != nil {
		t.Fatalf("ObserveWidgets: %v", err)
	}
	if len(tags) != 2 || tags[0] != "alert-feed" || tags[1] != "kpi-card" {
		t.Fatalf("expected layout echo in order, got %v", tags)
	}
}

func TestGatewayExecutorSharesSessionAcrossRuns(t *testing.T) {
	backend := &stubBackend{resp: gateway.OrchestrationResponse{QueryID: "q-1"}}
	exec := NewGatewayExecutor(backend, nil)

	if _, _, err := exec.Run(context.Background(), Scenario{Name: "a", Query: "alerts?"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := backend.lastSession
	if first == "" {
		t.Fatal("expected a session id on the request")
	}
	if _, _, err := exec.Run(context.Background(), Scenario{Name: "b", Query: "status?"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if backend.lastSession != first {
		t.Fatalf("session changed between runs: %s vs %s", first, backend.lastSession)
	}
	if backend.lastQuery != "status?" {
		t.Fatalf("expected scenario query forwarded, got %q", backend.lastQuery)
	}
}

func TestGatewayExecutorDegradesToLayoutEcho(t *testing.T) {
	backend := &stubBackend{resp: gateway.OrchestrationResponse{
		QueryID: "q-2",
		Layout:  gateway.Layout{Widgets: []gateway.WidgetSpec{{Scenario: "gauge"}}},
	}}
	exec := NewGatewayExecutor(backend, failingObserver{})

	resp, tags, err := exec.Run(context.Background(), Scenario{Name: "a", Query: "temperature?"})
	if err != nil {
		t.Fatalf("observation failure must not discard the response: %v", err)
	}
	if resp.QueryID != "q-2" {
		t.Fatalf("expected response preserved, got %s", resp.QueryID)
	}
	if len(tags) != 1 || tags[0] != "gauge" {
		t.Fatalf("expected layout-echo fallback, got %v", tags)
	}
}

func TestGatewayExecutorPropagatesBackendError(t *testing.T) {
	backend := &stubBackend{err: fmt.Errorf("connection refused")}
	exec := NewGatewayExecutor(backend, nil)

	if _, _, err := exec.Run(context.Background(), Scenario{Name: "a", Query: "alerts?"}); err == nil {
		t.Fatal("expected backend error surfaced")
	}
}

// #endregion executor
