// Package planner implements the Task Planner (C6): builds an
// ExecutionPlan by asking a provider to suggest task order/assignment/
// groups, falling back to AgentSelector-based assignment plus
// tier-aware topological layering when the LLM response is missing or
// malformed. Grounded on core/multiagent/orchestrator.go's planTask/
// parseSubtasks/extractJSON (prompt shape, JSON-extraction-from-
// free-text strategy) generalised from subtask decomposition to
// whole-plan suggestion, and on the forced-progress cycle-breaking
// idea in the example corpus's topological sort.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/providers"
	"github.com/hollis-source/unified-intelligence-cli/selector"
)

const (
	planningTemperature = 0.3
	planningMaxTokens   = 500
)

// Generator is the minimal provider contract the planner needs.
type Generator interface {
	Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error)
}

// Planner builds execution plans, optionally consulting a Generator.
type Planner struct {
	Generator Generator
}

// New creates a Planner. A nil Generator means every plan falls
// straight through to the deterministic fallback.
func New(generator Generator) *Planner {
	return &Planner{Generator: generator}
}

// llmPlanResponse is the strict JSON shape the planning prompt asks
// the provider to return.
type llmPlanResponse struct {
	TaskOrder       []string            `json:"task_order"`
	TaskAssignments map[string]string   `json:"task_assignments"`
	ParallelGroups  [][]string          `json:"parallel_groups"`
}

// CreatePlan never returns an error: a malformed or absent LLM
// response, or any other failure, falls back to deterministic
// tier-aware layering.
func (p *Planner) CreatePlan(ctx context.Context, tasks []entities.Task, agents []entities.Agent) entities.ExecutionPlan {
	if p.Generator != nil {
		if plan, ok := p.tryLLMPlan(ctx, tasks, agents); ok {
			return plan
		}
	}
	return p.fallbackPlan(tasks, agents)
}

func (p *Planner) tryLLMPlan(ctx context.Context, tasks []entities.Task, agents []entities.Agent) (entities.ExecutionPlan, bool) {
	messages := []providers.Message{
		{Role: "system", Content: planningSystemPrompt(agents)},
		{Role: "user", Content: planningUserPrompt(tasks)},
	}
	out, err := p.Generator.Generate(ctx, messages, providers.GenerationConfig{
		Temperature: planningTemperature,
		MaxTokens:   planningMaxTokens,
	})
	if err != nil {
		return entities.ExecutionPlan{}, false
	}

	jsonStr := extractJSON(out)
	if jsonStr == "" {
		return entities.ExecutionPlan{}, false
	}
	var resp llmPlanResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return entities.ExecutionPlan{}, false
	}
	if len(resp.TaskOrder) == 0 || len(resp.TaskAssignments) == 0 || len(resp.ParallelGroups) == 0 {
		return entities.ExecutionPlan{}, false
	}
	return entities.ExecutionPlan{
		TaskOrder:       resp.TaskOrder,
		TaskAssignments: resp.TaskAssignments,
		ParallelGroups:  resp.ParallelGroups,
		CreatedAt:       time.Now(),
	}, true
}

// fallbackPlan assigns every task via the selector, then performs
// tier-aware topological layering with forced-progress cycle-breaking.
func (p *Planner) fallbackPlan(tasks []entities.Task, agents []entities.Agent) entities.ExecutionPlan {
	assignments := make(map[string]string, len(tasks))
	tierOf := make(map[string]entities.Tier, len(tasks))
	agentByRole := make(map[string]entities.Agent, len(agents))
	for _, a := range agents {
		agentByRole[a.Role] = a
	}

	for i, t := range tasks {
		key := t.Key(i)
		agent, err := selector.SelectAgent(agents, t)
		if err != nil {
			tierOf[key] = entities.TierSpecialist
			continue
		}
		assignments[key] = agent.Role
		tierOf[key] = agent.EffectiveTier()
	}

	groups := layerByTier(tasks, tierOf)

	order := make([]string, 0, len(tasks))
	for _, g := range groups {
		order = append(order, g...)
	}

	return entities.ExecutionPlan{
		TaskOrder:       order,
		TaskAssignments: assignments,
		ParallelGroups:  groups,
		CreatedAt:       time.Now(),
	}
}

// layerByTier partitions tasks by assigned-agent tier, processing
// tiers 1, 2, 3 in order; within a tier it repeatedly emits a frontier
// of tasks whose dependencies are all already emitted (across every
// prior tier and frontier), and forces progress by emitting the whole
// remaining tier as one frontier if a cycle blocks every task.
func layerByTier(tasks []entities.Task, tierOf map[string]entities.Tier) [][]string {
	// keyed is tasks paired with the same Key(index) fallbackPlan used to
	// build tierOf, so lookups below line up even when TaskID is empty.
	type keyedTask struct {
		key  string
		task entities.Task
	}
	keyed := make([]keyedTask, len(tasks))
	for i, t := range tasks {
		keyed[i] = keyedTask{key: t.Key(i), task: t}
	}

	tiers := map[entities.Tier][]keyedTask{}
	for _, kt := range keyed {
		tier := tierOf[kt.key]
		if tier == 0 {
			tier = entities.TierSpecialist
		}
		tiers[tier] = append(tiers[tier], kt)
	}

	var groups [][]string
	emitted := map[string]bool{}

	for _, tier := range []entities.Tier{entities.TierOrchestration, entities.TierDomainLead, entities.TierSpecialist} {
		remaining := tiers[tier]
		for len(remaining) > 0 {
			var frontier []keyedTask
			var still []keyedTask
			for _, kt := range remaining {
				if dependenciesSatisfied(kt.task, emitted) {
					frontier = append(frontier, kt)
				} else {
					still = append(still, kt)
				}
			}
			if len(frontier) == 0 {
				// Cycle detected within this tier: force progress by
				// emitting every remaining task of the tier as one frontier.
				frontier = remaining
				still = nil
			}
			ids := make([]string, len(frontier))
			for i, kt := range frontier {
				ids[i] = kt.key
				emitted[kt.key] = true
			}
			groups = append(groups, ids)
			remaining = still
		}
	}
	return groups
}

func dependenciesSatisfied(t entities.Task, emitted map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !emitted[dep] {
			return false
		}
	}
	return true
}

func planningSystemPrompt(agents []entities.Agent) string {
	var b strings.Builder
	b.WriteString("You are a planning agent that orders and assigns tasks to specialised agents.\n\n")
	b.WriteString("Available agents:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s (tier %d): %v\n", a.Role, a.EffectiveTier(), a.Capabilities)
	}
	b.WriteString(`
Respond with ONLY valid JSON in this exact format:

{
  "task_order": ["task_id_1", "task_id_2"],
  "task_assignments": {"task_id_1": "agent_role"},
  "parallel_groups": [["task_id_1"], ["task_id_2"]]
}

Output ONLY the JSON object, nothing else.`)
	return b.String()
}

func planningUserPrompt(tasks []entities.Task) string {
	var b strings.Builder
	b.WriteString("Tasks to plan:\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "- id=%s priority=%d deps=%v: %s\n", t.Key(i), t.Priority, t.Dependencies, t.Description)
	}
	return b.String()
}

// extractJSON extracts the first balanced JSON object or array found
// in text, tolerating surrounding explanatory prose from the model.
func extractJSON(text string) string {
	if s := extractBalanced(text, '{', '}'); s != "" {
		return s
	}
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
