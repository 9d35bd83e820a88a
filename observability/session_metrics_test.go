package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func TestSummarizeComputesRoutingAccuracyAndFallbackRate(t *testing.T) {
	s := NewSessionMetrics("sess-1", time.Unix(0, 0), nil)
	s.RecordRouting(RoutingMetric{Team: "Backend", Agent: "coder", Correct: boolPtr(true)}, time.Unix(1, 0))
	s.RecordRouting(RoutingMetric{Team: "Backend", Agent: "coder", Correct: boolPtr(false)}, time.Unix(2, 0))
	s.RecordRouting(RoutingMetric{Team: "Backend", Agent: "coder", Correct: nil}, time.Unix(3, 0))
	s.RecordModelSelection(ModelSelectionMetric{Selected: "openai", Fallback: false}, time.Unix(4, 0))
	s.RecordModelSelection(ModelSelectionMetric{Selected: "anthropic", Fallback: true}, time.Unix(5, 0))

	summary := s.summarize()
	if summary.RoutingAccuracy != 0.5 {
		t.Fatalf("expected routing accuracy 0.5 (1 correct of 2 judged), got %v", summary.RoutingAccuracy)
	}
	if summary.FallbackRate != 0.5 {
		t.Fatalf("expected fallback rate 0.5 (1 of 2 selections), got %v", summary.FallbackRate)
	}
	if summary.ModelUsageCounts["openai"] != 1 || summary.ModelUsageCounts["anthropic"] != 1 {
		t.Fatalf("expected one usage each for openai/anthropic, got %v", summary.ModelUsageCounts)
	}
	if len(summary.TeamUtilization) != 1 || summary.TeamUtilization[0].TasksHandled != 3 {
		t.Fatalf("expected Backend/coder handled 3 tasks, got %+v", summary.TeamUtilization)
	}
}

func TestSummarizeWithNoDataYieldsZeroRates(t *testing.T) {
	s := NewSessionMetrics("sess-empty", time.Unix(0, 0), nil)
	summary := s.summarize()
	if summary.RoutingAccuracy != 0 || summary.FallbackRate != 0 {
		t.Fatalf("expected zero rates with no recorded data, got %+v", summary)
	}
}

func TestSaveWritesSessionDocumentToDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionMetrics("sess-save", time.Unix(100, 0), nil)
	s.RecordRouting(RoutingMetric{Team: "Research", Agent: "writer", Correct: boolPtr(true)}, time.Unix(101, 0))

	savedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Save(dir, savedAt)

	path := filepath.Join(dir, "session_20260102T030405Z.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected session document at %s, got error: %v", path, err)
	}
	var doc SessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("failed to unmarshal saved session document: %v", err)
	}
	if doc.SessionID != "sess-save" {
		t.Fatalf("expected session id 'sess-save', got %q", doc.SessionID)
	}
	if len(doc.Routing) != 1 {
		t.Fatalf("expected one routing record, got %d", len(doc.Routing))
	}
}
