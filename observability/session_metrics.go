package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RoutingMetric records one Agent Selector / Team Router decision.
type RoutingMetric struct {
	Timestamp        time.Time `json:"timestamp"`
	ClassifiedDomain string    `json:"classified_domain"`
	Score            float64   `json:"score"`
	Team             string    `json:"team"`
	Agent            string    `json:"agent"`
	Expected         string    `json:"expected,omitempty"`
	Correct          *bool     `json:"correct,omitempty"`
}

// ModelSelectionMetric records one Provider Orchestrator selection.
type ModelSelectionMetric struct {
	Timestamp time.Time `json:"timestamp"`
	Criterion string    `json:"criterion"`
	Selected  string    `json:"selected"`
	Score     float64   `json:"score"`
	Fallback  bool      `json:"fallback"`
}

// TeamUtilizationMetric records how often a team/agent was used within
// a session.
type TeamUtilizationMetric struct {
	Team           string `json:"team"`
	Agent          string `json:"agent"`
	TasksHandled   int    `json:"tasks_handled"`
}

// SessionSummary is the aggregate block appended to every persisted
// session document.
type SessionSummary struct {
	RoutingAccuracy  float64          `json:"routing_accuracy"`
	ModelUsageCounts map[string]int   `json:"model_usage_counts"`
	FallbackRate     float64          `json:"fallback_rate"`
	TeamUtilization  []TeamUtilizationMetric `json:"team_utilization"`
}

// SessionDocument is the single JSON document written per session.
type SessionDocument struct {
	SessionID string                 `json:"session_id"`
	StartedAt time.Time              `json:"started_at"`
	Routing   []RoutingMetric        `json:"routing"`
	Models    []ModelSelectionMetric `json:"models"`
	Summary   SessionSummary         `json:"summary"`
}

// SessionMetrics is a thread-safe recorder for routing/model-selection/
// team-utilization records, flushed to a single JSON file per session.
// Grounded on this package's Prometheus MetricsCollector for the
// "collector owned by the process, flushed at the end of a run" shape,
// adapted from gauge/counter export to append-only JSON persistence
// per the spec's §9 "no persistent store ... plus append-only JSON for
// metrics" non-goal carve-out.
type SessionMetrics struct {
	mu        sync.Mutex
	sessionID string
	startedAt time.Time
	routing   []RoutingMetric
	models    []ModelSelectionMetric
	teamUsage map[string]*TeamUtilizationMetric
	logger    Logger
}

// NewSessionMetrics creates a recorder for sessionID. A nil logger
// falls back to NewNoOpLogger.
func NewSessionMetrics(sessionID string, startedAt time.Time, logger Logger) *SessionMetrics {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &SessionMetrics{
		sessionID: sessionID,
		startedAt: startedAt,
		teamUsage: map[string]*TeamUtilizationMetric{},
		logger:    logger,
	}
}

// RecordRouting appends a routing decision.
func (s *SessionMetrics) RecordRouting(m RoutingMetric, recordedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Timestamp = recordedAt
	s.routing = append(s.routing, m)

	key := m.Team + "/" + m.Agent
	u, ok := s.teamUsage[key]
	if !ok {
		u = &TeamUtilizationMetric{Team: m.Team, Agent: m.Agent}
		s.teamUsage[key] = u
	}
	u.TasksHandled++
}

// RecordModelSelection appends a provider-selection decision.
func (s *SessionMetrics) RecordModelSelection(m ModelSelectionMetric, recordedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Timestamp = recordedAt
	s.models = append(s.models, m)
}

// Save writes the session document to <dir>/session_<savedAt-UTC>.json.
// Persistence is best-effort: failures are logged, never propagated.
func (s *SessionMetrics) Save(dir string, savedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := SessionDocument{
		SessionID: s.sessionID,
		StartedAt: s.startedAt,
		Routing:   s.routing,
		Models:    s.models,
		Summary:   s.summarize(),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("session metrics: failed to create metrics directory", Err(err), String("dir", dir))
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("session_%s.json", savedAt.UTC().Format("20060102T150405Z")))
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logger.Error("session metrics: failed to marshal session document", Err(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("session metrics: failed to write session document", Err(err), String("path", path))
		return
	}
}

func (s *SessionMetrics) summarize() SessionSummary {
	var correct, withExpected int
	modelUsage := map[string]int{}
	var fallbacks int
	for _, r := range s.routing {
		if r.Correct != nil {
			withExpected++
			if *r.Correct {
				correct++
			}
		}
	}
	for _, m := range s.models {
		modelUsage[m.Selected]++
		if m.Fallback {
			fallbacks++
		}
	}

	accuracy := 0.0
	if withExpected > 0 {
		accuracy = float64(correct) / float64(withExpected)
	}
	fallbackRate := 0.0
	if len(s.models) > 0 {
		fallbackRate = float64(fallbacks) / float64(len(s.models))
	}

	utilization := make([]TeamUtilizationMetric, 0, len(s.teamUsage))
	for _, u := range s.teamUsage {
		utilization = append(utilization, *u)
	}

	return SessionSummary{
		RoutingAccuracy:  accuracy,
		ModelUsageCounts: modelUsage,
		FallbackRate:     fallbackRate,
		TeamUtilization:  utilization,
	}
}
