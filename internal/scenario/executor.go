package scenario

import (
	"context"

	"github.com/google/uuid"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region seams

// Executor obtains one (response, rendered-tags) pair for a scenario.
type Executor interface {
	Run(ctx context.Context, sc Scenario) (gateway.OrchestrationResponse, []string, error)
}

// Observer supplies the widget category tags actually rendered for a
// response. How the observation is obtained (browser DOM inspection and the
// like) lives behind this seam.
type Observer interface {
	ObserveWidgets(ctx context.Context, resp gateway.OrchestrationResponse) ([]string, error)
}

// #endregion seams

// #region layout-observer

// LayoutObserver echoes the tags of the response's own layout. Headless
// fallback for runs without a browser attached: it assumes the layout
// rendered exactly as proposed.
type LayoutObserver struct{}

func (LayoutObserver) ObserveWidgets(_ context.Context, resp gateway.OrchestrationResponse) ([]string, error) {
	tags := make([]string, len(resp.Layout.Widgets))
	for i, w := range resp.Layout.Widgets {
		tags[i] = w.Scenario
	}
	return tags, nil
}

// #endregion layout-observer

// #region gateway-executor

// Backend is the slice of the gateway the executor needs.
type Backend interface {
	Orchestrate(ctx context.Context, query string, opts gateway.OrchestrateOptions) (gateway.OrchestrationResponse, error)
}

// GatewayExecutor runs scenarios against the live backend, observing rendered
// widgets through the attached Observer. All scenarios of one executor share
// a session id so the backend sees a single conversation.
type GatewayExecutor struct {
	backend   Backend
	observer  Observer
	sessionID string
}

// NewGatewayExecutor wires an executor. observer may be nil, in which case
// the layout echo is used.
func NewGatewayExecutor(backend Backend, observer Observer) *GatewayExecutor {
	if observer == nil {
		observer = LayoutObserver{}
	}
	return &GatewayExecutor{
		backend:   backend,
		observer:  observer,
		sessionID: uuid.New().String(),
	}
}

// Run sends the scenario query and observes the rendered widgets. An
// observation failure degrades to the layout echo rather than discarding the
// response.
func (e *GatewayExecutor) Run(ctx context.Context, sc Scenario) (gateway.OrchestrationResponse, []string, error) {
	resp, err := e.backend.Orchestrate(ctx, sc.Query, gateway.OrchestrateOptions{SessionID: e.sessionID})
	if err != nil {
		return gateway.OrchestrationResponse{}, nil, err
	}
	tags, err := e.observer.ObserveWidgets(ctx, resp)
	if err != nil {
		tags, _ = LayoutObserver{}.ObserveWidgets(ctx, resp)
	}
	return resp, tags, nil
}

// #endregion gateway-executor
