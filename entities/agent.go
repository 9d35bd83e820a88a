package entities

// Tier denotes an agent's layer in the planning hierarchy: 1 is
// orchestration/QA, 2 is domain lead, 3 is specialist (the default).
type Tier int

const (
	TierOrchestration Tier = 1
	TierDomainLead    Tier = 2
	TierSpecialist    Tier = 3
)

// Agent is a role plus a capability list. Role is unique within the set
// of agents passed to the planner/coordinator for a given run.
type Agent struct {
	Role           string
	Capabilities   []string
	Tier           Tier
	Parent         string
	Specialization string
}

// NewAgent builds an Agent with the default tier (specialist) when Tier
// is left zero.
func NewAgent(role string, capabilities ...string) Agent {
	return Agent{Role: role, Capabilities: capabilities, Tier: TierSpecialist}
}

// EffectiveTier returns the agent's tier, defaulting to TierSpecialist
// when unset (zero value).
func (a Agent) EffectiveTier() Tier {
	if a.Tier == 0 {
		return TierSpecialist
	}
	return a.Tier
}

// RouteStrategy maps a task to the member agent that should handle it.
// AgentTeam holds one per team instance rather than relying on
// inheritance-based virtual dispatch (see DESIGN NOTES on dynamic
// dispatch).
type RouteStrategy func(task Task) (Agent, error)

// AgentTeam groups agents that share a domain, with an optional lead and
// a per-team routing strategy.
type AgentTeam struct {
	Name    string
	Domain  string
	Agents  []Agent
	Lead    *Agent
	Tier    Tier
	routeFn RouteStrategy
}

// NewAgentTeam constructs a team with its routing strategy. route may be
// nil, in which case RouteInternally falls back to the first agent.
func NewAgentTeam(name, domain string, agents []Agent, lead *Agent, tier Tier, route RouteStrategy) *AgentTeam {
	return &AgentTeam{Name: name, Domain: domain, Agents: agents, Lead: lead, Tier: tier, routeFn: route}
}

// RouteInternally delegates to the team's strategy, falling back to the
// lead (if set) or the first agent when no strategy is configured.
func (t *AgentTeam) RouteInternally(task Task) (Agent, error) {
	if t.routeFn != nil {
		return t.routeFn(task)
	}
	if t.Lead != nil {
		return *t.Lead, nil
	}
	if len(t.Agents) > 0 {
		return t.Agents[0], nil
	}
	return Agent{}, &ValidationError{Field: "team", Value: t.Name, Message: "team has no agents to route to"}
}

// CanHandle reports whether any capability fuzzily matches a word in the
// task description (acceptance threshold 0.6), per §4.5.
func (a Agent) CanHandle(task Task) bool {
	for _, word := range DescriptionWords(task.Description) {
		for _, cap := range a.Capabilities {
			if StringRatio(cap, word) > 0.6 {
				return true
			}
		}
	}
	return false
}
