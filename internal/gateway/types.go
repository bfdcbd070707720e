package gateway

import "encoding/json"

// #region wire-types

// WidgetSpec is one entry of the layout descriptor returned by the backend.
// Scenario is the categorical tag; the rest are rendering hints.
type WidgetSpec struct {
	Scenario string          `json:"scenario"`
	Size     string          `json:"size,omitempty"`
	Fixture  string          `json:"fixture,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Layout is the ordered widget list the backend proposes for a query.
type Layout struct {
	Widgets []WidgetSpec `json:"widgets"`
}

// Intent is the backend's classification of the query.
type Intent struct {
	Domain     string         `json:"domain"`
	Action     string         `json:"action"`
	Entities   map[string]any `json:"entities,omitempty"`
	Confidence float64        `json:"confidence"`
}

// OrchestrationResponse is one backend answer to one query. Returned as
// parsed; missing-field handling belongs to the callers that score it.
type OrchestrationResponse struct {
	QueryID          string  `json:"query_id"`
	VoiceResponse    string  `json:"voice_response"`
	Layout           Layout  `json:"layout_json"`
	Intent           Intent  `json:"intent"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// Interaction is one telemetry event attached to a feedback submission.
type Interaction struct {
	WidgetIndex int    `json:"widget_index"`
	Action      string `json:"action"`
	DurationMs  int    `json:"duration_ms"`
}

// FeedbackPayload is the wire form of one rating submission. QueryID always
// refers to the orchestration response the rating was derived from.
type FeedbackPayload struct {
	QueryID      string        `json:"query_id"`
	Rating       string        `json:"rating"` // "up" | "down"
	Interactions []Interaction `json:"interactions,omitempty"`
	Correction   string        `json:"correction,omitempty"`
}

// FeedbackResult is the backend's acknowledgement of a feedback submission.
type FeedbackResult struct {
	Status  string `json:"status"`
	Updated bool   `json:"updated"`
}

// ApprovalResult acknowledges an authorized weight-update job.
type ApprovalResult struct {
	Status string `json:"status"`
	File   string `json:"file"`
}

// BufferStats reports the backend's online-learning buffer occupancy.
type BufferStats struct {
	Total    int `json:"total"`
	Rated    int `json:"rated"`
	Unrated  int `json:"unrated"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// TrainerStats reports the backend trainer's counters. Tier1Steps counts
// light continuous scorer updates; Tier2Runs counts completed weight-update
// jobs and only ever increments.
type TrainerStats struct {
	Tier1Steps    int      `json:"tier1_steps"`
	Tier2Runs     int      `json:"tier2_runs"`
	LastTrainTime *string  `json:"last_train_time,omitempty"`
	DPOPairsReady int      `json:"dpo_pairs_ready"`
	ScorerLoss    *float64 `json:"scorer_loss,omitempty"`
}

// TrainingStatus is one snapshot of backend training state. Snapshots are
// read-only; decisions re-poll rather than update local copies.
type TrainingStatus struct {
	Running bool           `json:"running"`
	Buffer  BufferStats    `json:"buffer"`
	Trainer TrainerStats   `json:"trainer"`
	Config  map[string]any `json:"config,omitempty"`
}

// ServerHealth is the outcome of the dual liveness probe.
type ServerHealth struct {
	Frontend bool
	Backend  bool
}

// #endregion wire-types
