package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/config"
)

// #region client-struct

// Client is a narrow request/response client over the backend's HTTP surface.
// One method per logical operation, each bounded by the configured timeout.
// Retries are the caller's responsibility, never the client's.
type Client struct {
	baseURL      string
	feedbackKey  string
	timeout      time.Duration
	probeTimeout time.Duration
	httpc        *http.Client
}

// #endregion client-struct

// #region constructor

// NewClient builds a gateway client from harness configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		feedbackKey:  cfg.FeedbackKey,
		timeout:      cfg.RequestTimeout,
		probeTimeout: cfg.ProbeTimeout,
		httpc:        &http.Client{},
	}
}

// NewClientWithHTTP creates a Client with an injected http.Client.
// Used for testing against httptest servers with tight timeouts.
func NewClientWithHTTP(baseURL string, httpc *http.Client, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		probeTimeout: timeout,
		httpc:        httpc,
	}
}

// #endregion constructor

// #region orchestrate

// OrchestrateOptions carries the optional fields of an orchestrate call.
type OrchestrateOptions struct {
	SessionID string
	Context   map[string]any
	UserID    string
}

type orchestrateRequest struct {
	Transcript string         `json:"transcript"`
	SessionID  string         `json:"session_id,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
}

// Orchestrate submits a natural-language query and returns the backend's
// structured response unmodified.
func (c *Client) Orchestrate(ctx context.Context, query string, opts OrchestrateOptions) (OrchestrationResponse, error) {
	req := orchestrateRequest{
		Transcript: query,
		SessionID:  opts.SessionID,
		Context:    opts.Context,
		UserID:     opts.UserID,
	}
	var resp OrchestrationResponse
	if err := c.postJSON(ctx, "orchestrate", "/orchestrate", req, &resp, nil); err != nil {
		return OrchestrationResponse{}, err
	}
	return resp, nil
}

// #endregion orchestrate

// #region feedback

// SubmitFeedback submits one rating keyed by query id. The optional feedback
// key is attached as an X-Feedback-Key header when configured.
func (c *Client) SubmitFeedback(ctx context.Context, payload FeedbackPayload) (FeedbackResult, error) {
	var headers map[string]string
	if c.feedbackKey != "" {
		headers = map[string]string{"X-Feedback-Key": c.feedbackKey}
	}
	var res FeedbackResult
	if err := c.postJSON(ctx, "feedback", "/feedback", payload, &res, headers); err != nil {
		return FeedbackResult{}, err
	}
	return res, nil
}

// #endregion feedback

// #region training-control

// ApproveTraining authorizes the next weight-update job.
func (c *Client) ApproveTraining(ctx context.Context) (ApprovalResult, error) {
	var res ApprovalResult
	if err := c.postJSON(ctx, "approve training", "/approve-training", nil, &res, nil); err != nil {
		return ApprovalResult{}, err
	}
	return res, nil
}

// Status fetches a fresh snapshot of buffer and trainer state.
func (c *Client) Status(ctx context.Context) (TrainingStatus, error) {
	var st TrainingStatus
	if err := c.getJSON(ctx, "rl status", "/rl-status", &st); err != nil {
		return TrainingStatus{}, err
	}
	return st, nil
}

// RAGHealth probes the secondary retrieval health endpoint.
func (c *Client) RAGHealth(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, "rag health", "/rag-health", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion training-control

// #region check-servers

// CheckServers probes frontend and backend liveness concurrently. Each probe
// is bounded by the probe timeout; a status below 500 counts as up and any
// transport error counts as down. Best effort: never returns an error.
func (c *Client) CheckServers(ctx context.Context, frontendURL string) ServerHealth {
	var health ServerHealth
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		health.Frontend = c.probe(ctx, frontendURL)
	}()
	go func() {
		defer wg.Done()
		health.Backend = c.probe(ctx, c.baseURL+"/rl-status")
	}()
	wg.Wait()
	return health
}

func (c *Client) probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}

// #endregion check-servers

// #region http-helpers

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(ctx, op, req, out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	return c.do(ctx, op, req, out)
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.httpc.Do(req.WithContext(ctx))
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Op: op, Limit: c.timeout}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Op: op, Limit: c.timeout}
		}
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// #endregion http-helpers
