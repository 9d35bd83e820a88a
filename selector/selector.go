// Package selector implements the capability-based Agent Selector and
// the two-phase Team Router (domain classifier + per-team internal
// routing). Grounded on core/multiagent/protocol.go's AgentMetadata/
// AgentRole and the scoring shape of core/multiagent/orchestrator.go's
// scoreWorker, replaced with the spec's SequenceMatcher-ratio fuzzy
// matcher (entities.StringRatio).
package selector

import (
	"fmt"
	"sort"

	"github.com/hollis-source/unified-intelligence-cli/entities"
)

// scoringThreshold is the spec's 0.8 cutoff counted toward an agent's
// capability score (distinct from CanHandle's 0.6 acceptance bar).
const scoringThreshold = 0.8

// Score computes an agent's capability score for task: the sum, over
// every word in the task description, of the best StringRatio against
// any of the agent's capabilities, counting only ratios >= 0.8.
func Score(agent entities.Agent, task entities.Task) float64 {
	var total float64
	for _, word := range entities.DescriptionWords(task.Description) {
		best := 0.0
		for _, cap := range agent.Capabilities {
			if r := entities.StringRatio(cap, word); r > best {
				best = r
			}
		}
		if best >= scoringThreshold {
			total += best
		}
	}
	return total
}

// SelectAgent picks the highest-scoring agent among those whose
// CanHandle(task) is true, breaking ties toward the agent with fewer
// capabilities (more specialised).
func SelectAgent(agents []entities.Agent, task entities.Task) (entities.Agent, error) {
	var candidates []entities.Agent
	for _, a := range agents {
		if a.CanHandle(task) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return entities.Agent{}, fmt.Errorf("no agent can handle task %q", task.TaskID)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := Score(candidates[i], task), Score(candidates[j], task)
		if si != sj {
			return si > sj
		}
		return len(candidates[i].Capabilities) < len(candidates[j].Capabilities)
	})
	return candidates[0], nil
}

// Domain is one of the fixed task-classification buckets.
type Domain string

const (
	DomainFrontend      Domain = "frontend"
	DomainBackend       Domain = "backend"
	DomainTesting       Domain = "testing"
	DomainDevOps        Domain = "devops"
	DomainResearch      Domain = "research"
	DomainDocumentation Domain = "documentation"
	DomainSecurity      Domain = "security"
	DomainPerformance   Domain = "performance"
	DomainGeneral       Domain = "general"
)

// domainKeywords is the deterministic weighted keyword scorer: each
// matched keyword contributes 1 to its domain's tally.
var domainKeywords = map[Domain][]string{
	DomainFrontend:      {"ui", "react", "css", "frontend", "component", "vue", "html"},
	DomainBackend:       {"api", "backend", "server", "database", "endpoint", "service"},
	DomainTesting:       {"test", "unit", "mock", "fixture", "integration", "e2e", "selenium", "cypress", "postman"},
	DomainDevOps:        {"deploy", "ci", "cd", "docker", "kubernetes", "pipeline", "infra"},
	DomainResearch:      {"research", "investigate", "explore", "analyze", "survey"},
	DomainDocumentation: {"document", "docs", "readme", "guide", "manual"},
	DomainSecurity:      {"security", "vulnerability", "auth", "encryption", "exploit"},
	DomainPerformance:   {"performance", "latency", "throughput", "optimize", "benchmark"},
}

// ClassifyDomain scores task against each domain's keyword set and
// returns the highest-scoring domain, defaulting to DomainGeneral when
// no keyword matches.
func ClassifyDomain(task entities.Task) Domain {
	words := entities.DescriptionWords(task.Description)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	best := DomainGeneral
	bestScore := 0
	// Deterministic iteration order: fixed domain list, not map range.
	for _, d := range []Domain{
		DomainFrontend, DomainBackend, DomainTesting, DomainDevOps,
		DomainResearch, DomainDocumentation, DomainSecurity, DomainPerformance,
	} {
		score := 0
		for _, kw := range domainKeywords[d] {
			if _, ok := wordSet[kw]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}

// domainTeamOverrides captures the explicit domain -> team mappings
// the spec names (documentation -> Research, security/performance ->
// Backend, general -> Orchestration); anything else falls through to
// a by-domain-field lookup against the registered teams.
var domainTeamOverrides = map[Domain]string{
	DomainDocumentation: "Research",
	DomainSecurity:      "Backend",
	DomainPerformance:   "Backend",
	DomainGeneral:       "Orchestration",
}

// TeamRouter is the two-phase router: classify the task's domain, map
// domain to a team, then delegate to that team's RouteInternally.
type TeamRouter struct {
	Teams []*entities.AgentTeam
}

// NewTeamRouter builds a router over the given teams.
func NewTeamRouter(teams []*entities.AgentTeam) *TeamRouter {
	return &TeamRouter{Teams: teams}
}

// Route classifies task, resolves a team, and delegates routing.
func (r *TeamRouter) Route(task entities.Task) (entities.Agent, error) {
	domain := ClassifyDomain(task)
	team := r.resolveTeam(domain, task)
	if team == nil {
		return entities.Agent{}, fmt.Errorf("no team available to route task %q (domain %s)", task.TaskID, domain)
	}
	return team.RouteInternally(task)
}

func (r *TeamRouter) resolveTeam(domain Domain, task entities.Task) *entities.AgentTeam {
	if name, ok := domainTeamOverrides[domain]; ok {
		if t := r.teamByName(name); t != nil {
			return t
		}
	}
	if t := r.teamByDomain(string(domain)); t != nil {
		return t
	}
	if t := r.teamByName("Orchestration"); t != nil {
		return t
	}
	for _, t := range r.Teams {
		for _, a := range t.Agents {
			if a.CanHandle(task) {
				return t
			}
		}
	}
	return nil
}

func (r *TeamRouter) teamByName(name string) *entities.AgentTeam {
	for _, t := range r.Teams {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (r *TeamRouter) teamByDomain(domain string) *entities.AgentTeam {
	for _, t := range r.Teams {
		if t.Domain == domain {
			return t
		}
	}
	return nil
}

// RoutingMetric records a single routing decision for the metrics
// collector (C13).
type RoutingMetric struct {
	ClassifiedDomain Domain
	Score            float64
	Team             string
	Agent            string
	Expected         string
	Correct          *bool
}
