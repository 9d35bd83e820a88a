package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/resilience"
)

// OrchestratorConfig configures provider selection and fallback depth.
type OrchestratorConfig struct {
	DefaultCriterion    Criterion
	Weights             BalancedWeights
	MaxFallbackAttempts int

	// CircuitBreaker guards each model in the fallback chain
	// independently: a model that keeps failing trips open and is
	// skipped (without paying its call latency) until Timeout elapses.
	// The zero value uses resilience's own defaults (5 failures, 2
	// successes to close, 30s open timeout).
	CircuitBreaker resilience.CircuitBreakerConfig

	// RatePerSecond caps outbound requests across all models through one
	// shared limiter, 0 disables limiting.
	RatePerSecond float64
}

// DefaultOrchestratorConfig mirrors spec defaults (BALANCED, 3 attempts).
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		DefaultCriterion:    CriterionBalanced,
		Weights:             DefaultBalancedWeights,
		MaxFallbackAttempts: 3,
	}
}

// Stats is the thread-safe usage tally kept by the orchestrator.
type Stats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	FallbackUsed       int
	PerProviderUsage   map[string]int
}

// registeredModel pairs a provider name with its capability profile
// and a lazy creator, mirroring llm/factory.go's MultiProviderFactory
// but keyed by model name rather than provider type.
type registeredModel struct {
	name     string
	caps     entities.ModelCapabilities
	creator  ProviderCreator
	instance Provider
}

// Orchestrator implements the text-generation contract by scoring
// registered models against a criterion, building a fallback chain,
// and executing it. Grounded on llm/factory.go's registry-of-creators
// and the spec's §4.4 selection/fallback/execution algorithm.
type Orchestrator struct {
	mu       sync.Mutex
	config   OrchestratorConfig
	models   []*registeredModel
	order    []string // insertion order, for tie-breaking
	stats    Stats
	breakers *resilience.CircuitBreakerRegistry
	limiter  resilience.RateLimiter
}

// NewOrchestrator creates an orchestrator with the given config. Each
// registered model gets its own circuit breaker (lazily, by name) so
// one failing provider tripping open never blocks another; a shared
// token-bucket limiter throttles outbound requests when RatePerSecond
// is set.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	if config.MaxFallbackAttempts <= 0 {
		config.MaxFallbackAttempts = 3
	}
	o := &Orchestrator{
		config: config,
		stats:  Stats{PerProviderUsage: map[string]int{}},
		breakers: resilience.NewCircuitBreakerRegistry(func(name string) *resilience.CircuitBreaker {
			cfg := config.CircuitBreaker
			cfg.Name = name
			return resilience.NewCircuitBreaker(cfg)
		}),
	}
	if config.RatePerSecond > 0 {
		o.limiter = resilience.NewTokenBucketLimiter(resilience.TokenBucketConfig{Rate: config.RatePerSecond})
	}
	return o
}

// Register adds a model under name with its capability profile and a
// lazy provider creator. Later registrations of the same name replace
// the earlier one but keep its original insertion-order position.
func (o *Orchestrator) Register(name string, caps entities.ModelCapabilities, creator ProviderCreator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.models {
		if m.name == name {
			m.caps = caps
			m.creator = creator
			m.instance = nil
			return
		}
	}
	o.models = append(o.models, &registeredModel{name: name, caps: caps, creator: creator})
	o.order = append(o.order, name)
}

// Generate resolves a criterion from the last user message (or the
// configured default), builds a fallback chain, and executes it,
// returning the first provider's successful output.
func (o *Orchestrator) Generate(ctx context.Context, messages []Message, cfg GenerationConfig) (string, error) {
	taskDescription := lastUserMessage(messages)
	criterion := ResolveCriterion(taskDescription, o.config.DefaultCriterion)

	chain := o.buildFallbackChain(criterion)
	if len(chain) == 0 {
		return "", fmt.Errorf("no providers registered")
	}

	o.mu.Lock()
	o.stats.TotalRequests++
	o.mu.Unlock()

	var lastErr error
	for i, m := range chain {
		provider, err := o.resolve(m)
		if err != nil {
			lastErr = err
			continue
		}
		req := &CompletionRequest{Messages: messages, Config: cfg}
		req = req.WithDefaults(m.name, cfg.MaxTokens)
		cb := o.breakers.Get(m.name)
		out, err := resilience.DoWithResult(ctx, o.limiter, cb, func(ctx context.Context) (string, error) {
			return provider.Generate(ctx, req)
		})
		if err != nil {
			lastErr = err
			continue
		}
		o.mu.Lock()
		o.stats.SuccessfulRequests++
		o.stats.PerProviderUsage[m.name]++
		if i > 0 {
			o.stats.FallbackUsed++
		}
		o.mu.Unlock()
		return out, nil
	}

	o.mu.Lock()
	o.stats.FailedRequests++
	o.mu.Unlock()
	return "", fmt.Errorf("all providers in fallback chain failed: %w", lastErr)
}

// buildFallbackChain picks the primary model by score, the next-best
// by the same criterion, and the most reliable remaining model,
// deduplicated and truncated to MaxFallbackAttempts.
func (o *Orchestrator) buildFallbackChain(criterion Criterion) []*registeredModel {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.models) == 0 {
		return nil
	}

	byCriterion := append([]*registeredModel(nil), o.models...)
	sortByScore(byCriterion, func(m *registeredModel) float64 {
		return ScoreModel(m.caps, criterion, o.config.Weights)
	}, o.order)

	byReliability := append([]*registeredModel(nil), o.models...)
	sortByScore(byReliability, func(m *registeredModel) float64 {
		return ScoreModel(m.caps, CriterionQuality, o.config.Weights)
	}, o.order)

	var chain []*registeredModel
	seen := map[string]bool{}
	add := func(m *registeredModel) {
		if m != nil && !seen[m.name] {
			seen[m.name] = true
			chain = append(chain, m)
		}
	}
	if len(byCriterion) > 0 {
		add(byCriterion[0])
	}
	if len(byCriterion) > 1 {
		add(byCriterion[1])
	}
	for _, m := range byReliability {
		add(m)
		if len(chain) >= o.config.MaxFallbackAttempts {
			break
		}
	}
	if len(chain) > o.config.MaxFallbackAttempts {
		chain = chain[:o.config.MaxFallbackAttempts]
	}
	return chain
}

// sortByScore sorts models by descending score, breaking ties by
// insertion order (stable sort over an order-indexed slice).
func sortByScore(models []*registeredModel, score func(*registeredModel) float64, order []string) {
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	sort.SliceStable(models, func(i, j int) bool {
		si, sj := score(models[i]), score(models[j])
		if si != sj {
			return si > sj
		}
		return position[models[i].name] < position[models[j].name]
	})
}

// resolve lazily constructs (and caches) the Provider instance for m.
func (o *Orchestrator) resolve(m *registeredModel) (Provider, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m.instance != nil {
		return m.instance, nil
	}
	p, err := m.creator()
	if err != nil {
		return nil, fmt.Errorf("resolving provider %s: %w", m.name, err)
	}
	m.instance = p
	return p, nil
}

// GetStats returns a snapshot of the current usage statistics.
func (o *Orchestrator) GetStats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	usage := make(map[string]int, len(o.stats.PerProviderUsage))
	for k, v := range o.stats.PerProviderUsage {
		usage[k] = v
	}
	s := o.stats
	s.PerProviderUsage = usage
	return s
}

// RegisteredNames returns every model name registered with the
// orchestrator, in registration order.
func (o *Orchestrator) RegisteredNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, len(o.order))
	copy(names, o.order)
	return names
}

// GenerateWith bypasses scoring/fallback and calls exactly the named
// model, for callers that already know which provider they want to
// exercise (e.g. a health check probing one provider at a time).
func (o *Orchestrator) GenerateWith(ctx context.Context, name string, messages []Message, cfg GenerationConfig) (string, error) {
	o.mu.Lock()
	var target *registeredModel
	for _, m := range o.models {
		if m.name == name {
			target = m
			break
		}
	}
	o.mu.Unlock()
	if target == nil {
		return "", fmt.Errorf("no model registered under %q", name)
	}
	provider, err := o.resolve(target)
	if err != nil {
		return "", err
	}
	req := (&CompletionRequest{Messages: messages, Config: cfg}).WithDefaults(name, cfg.MaxTokens)
	return provider.Generate(ctx, req)
}

func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
