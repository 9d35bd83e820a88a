package providers

import (
	"context"
	"fmt"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/entities"
)

// fakeProvider is a hand-rolled stub Provider, following the teacher's
// own mock-provider style (see core/multiagent/mock_test.go).
type fakeProvider struct {
	name   string
	output string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req *CompletionRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func creatorFor(p *fakeProvider) ProviderCreator {
	return func() (Provider, error) { return p, nil }
}

func TestOrchestratorPicksHighestScoringModel(t *testing.T) {
	fast := &fakeProvider{name: "fast", output: "from fast"}
	slow := &fakeProvider{name: "slow", output: "from slow"}

	o := NewOrchestrator(DefaultOrchestratorConfig())
	o.Register("fast", entities.ModelCapabilities{AvgLatencyS: 0.1, SuccessRate: 0.9}, creatorFor(fast))
	o.Register("slow", entities.ModelCapabilities{AvgLatencyS: 20.0, SuccessRate: 0.9}, creatorFor(slow))

	out, err := o.Generate(context.Background(), []Message{{Role: "user", Content: "do this quickly, it's urgent"}}, GenerationConfig{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "from fast" {
		t.Fatalf("expected the faster model to win under a speed-biased prompt, got %q", out)
	}
}

func TestOrchestratorFallsBackOnFailure(t *testing.T) {
	a := &fakeProvider{name: "a", err: fmt.Errorf("connection refused")}
	b := &fakeProvider{name: "b", output: "from b"}
	c := &fakeProvider{name: "c", output: "from c"}

	o := NewOrchestrator(DefaultOrchestratorConfig())
	o.Register("a", entities.ModelCapabilities{SuccessRate: 0.99, AvgLatencyS: 0.1}, creatorFor(a))
	o.Register("b", entities.ModelCapabilities{SuccessRate: 0.9, AvgLatencyS: 0.2}, creatorFor(b))
	o.Register("c", entities.ModelCapabilities{SuccessRate: 0.8, AvgLatencyS: 0.3}, creatorFor(c))

	out, err := o.Generate(context.Background(), []Message{{Role: "user", Content: "balanced request"}}, GenerationConfig{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "from b" && out != "from c" {
		t.Fatalf("expected fallback to b or c, got %q", out)
	}

	stats := o.GetStats()
	if stats.FallbackUsed != 1 {
		t.Fatalf("expected FallbackUsed=1, got %d", stats.FallbackUsed)
	}
	if a.calls != 1 {
		t.Fatalf("expected the failing provider to be tried exactly once, got %d", a.calls)
	}
}

func TestOrchestratorNoProvidersRegistered(t *testing.T) {
	o := NewOrchestrator(DefaultOrchestratorConfig())
	if _, err := o.Generate(context.Background(), []Message{{Role: "user", Content: "hello"}}, GenerationConfig{}); err == nil {
		t.Fatal("expected an error when no providers are registered")
	}
}

func TestResolveCriterionKeywordOverride(t *testing.T) {
	cases := []struct {
		description string
		want        Criterion
	}{
		{"do this offline please", CriterionPrivacy},
		{"need this fast, it's urgent", CriterionSpeed},
		{"accuracy is critical here", CriterionQuality},
		{"keep it cheap, budget constrained", CriterionCost},
		{"no particular constraint", CriterionBalanced},
	}
	for _, tc := range cases {
		got := ResolveCriterion(tc.description, CriterionBalanced)
		if got != tc.want {
			t.Errorf("ResolveCriterion(%q) = %s, want %s", tc.description, got, tc.want)
		}
	}
}
